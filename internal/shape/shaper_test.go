package shape

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newDefaultShaper(t *testing.T) *Shaper {
	t.Helper()
	return New(DefaultLimits())
}

// ---------------------------------------------------------------------------
// Empty input and filler prefixes
// ---------------------------------------------------------------------------

func TestShape_EmptyInput_ReturnsPlaceholder(t *testing.T) {
	s := newDefaultShaper(t)
	require.Equal(t, DefaultPlaceholder, s.Shape(""))
	require.Equal(t, DefaultPlaceholder, s.Shape("   \n\t  "))
}

func TestShape_StripsFillerPrefix(t *testing.T) {
	s := newDefaultShaper(t)
	cases := []struct {
		in   string
		want string
	}{
		{"¡Buena pregunta! El oro es denso.", "El oro es denso."},
		{"Buena pregunta: el oro es denso.", "el oro es denso."},
		{"GREAT QUESTION! Gold is dense.", "Gold is dense."},
		{"Gran pregunta. El helio es ligero.", "El helio es ligero."},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, s.Shape(tc.in), "in=%q", tc.in)
	}
}

func TestShape_FillerOnlyInput_ReturnsPlaceholder(t *testing.T) {
	s := newDefaultShaper(t)
	require.Equal(t, DefaultPlaceholder, s.Shape("¡Buena pregunta!"))
}

func TestShape_NonFillerPrefix_Untouched(t *testing.T) {
	s := newDefaultShaper(t)
	require.Equal(t, "El oro es un metal precioso.", s.Shape("El oro es un metal precioso."))
}

// ---------------------------------------------------------------------------
// Line mode
// ---------------------------------------------------------------------------

func TestShape_LineMode_CapsLines(t *testing.T) {
	s := newDefaultShaper(t)
	in := "uno\n\ndos\n  tres  \ncuatro\ncinco\nseis\nsiete\nocho"
	out := s.Shape(in)
	require.Equal(t, "uno\ndos\ntres\ncuatro\ncinco\nseis", out)
}

func TestShape_LineMode_TrimsDanglingConnector(t *testing.T) {
	s := newDefaultShaper(t)
	require.Equal(t, "El oro es denso", s.Shape("El oro es denso y"))
	require.Equal(t, "Gold is dense", s.Shape("Gold is dense and "))
	// a trailing non-connector word stays
	require.Equal(t, "El oro es denso", s.Shape("El oro es denso"))
}

func TestShape_LineMode_SentenceCut_AtBoundaryFloor(t *testing.T) {
	s := newDefaultShaper(t)
	// Period at rune index 286 = floor(0.55 * 520): late enough to cut there.
	in := strings.Repeat("a", 286) + "." + " " + strings.Repeat("b", 500)
	out := s.Shape(in)
	require.Equal(t, strings.Repeat("a", 286)+".", out)
}

func TestShape_LineMode_SentenceCut_JustBelowFloor(t *testing.T) {
	s := newDefaultShaper(t)
	// Period at rune index 285 sits below the floor, so the cut falls back to
	// the last whitespace boundary plus the ellipsis marker.
	in := strings.Repeat("a", 285) + "." + " " + strings.Repeat("b", 600)
	out := s.Shape(in)
	require.Equal(t, strings.Repeat("a", 285)+"."+DefaultEllipsis, out)
}

func TestShape_LineMode_NoWhitespace_CutsHardWithEllipsis(t *testing.T) {
	s := newDefaultShaper(t)
	in := strings.Repeat("x", 900)
	out := s.Shape(in)
	require.Equal(t, strings.Repeat("x", 520)+DefaultEllipsis, out)
}

func TestShape_LineMode_LengthBound(t *testing.T) {
	s := newDefaultShaper(t)
	inputs := []string{
		strings.Repeat("palabra corta ", 100),
		strings.Repeat("Frase terminada. ", 60),
		strings.Repeat("sinespacios", 80),
		"¡Buena pregunta! " + strings.Repeat("El oro es denso y pesado. ", 40),
	}
	maxRunes := DefaultMaxChars + len([]rune(DefaultEllipsis))
	for _, in := range inputs {
		out := s.Shape(in)
		require.LessOrEqual(t, len([]rune(out)), maxRunes, "in=%q", in[:40])
	}
}

func TestShape_Idempotent(t *testing.T) {
	s := newDefaultShaper(t)
	inputs := []string{
		"El oro es denso.\nEs un metal de transición.",
		strings.Repeat("Frase terminada con punto. ", 60),
		strings.Repeat("x", 900),
		"| a | b |\n| --- | --- |\n| 1 | 2 |",
	}
	for _, in := range inputs {
		once := s.Shape(in)
		require.Equal(t, once, s.Shape(once), "in=%q", in[:20])
	}
}

// ---------------------------------------------------------------------------
// Table mode
// ---------------------------------------------------------------------------

func TestShape_TableMode_ShortTable_PassesThrough(t *testing.T) {
	s := newDefaultShaper(t)
	in := "| Símbolo | Nombre |\n| --- | --- |\n| Au | Oro |"
	require.Equal(t, in, s.Shape(in))
}

func TestShape_TableMode_DropsTrailingPartialRow(t *testing.T) {
	s := newDefaultShaper(t)
	in := "| Símbolo | Nombre |\n| --- | --- |\n| Au | Oro |\n| Ag | Pla"
	require.Equal(t, "| Símbolo | Nombre |\n| --- | --- |\n| Au | Oro |", s.Shape(in))
}

func TestShape_TableMode_LongTable_CutsAtRowBoundary(t *testing.T) {
	s := newDefaultShaper(t)
	row := "| elemento | " + strings.Repeat("d", 40) + " |\n"
	in := strings.Repeat(row, 60) // well past the table ceiling
	out := s.Shape(in)
	require.LessOrEqual(t, len([]rune(out)), DefaultTableMaxChars)
	require.True(t, strings.HasSuffix(out, "|"), "output must end on a row boundary: %q", out[len(out)-20:])
}

func TestShape_TableMode_NeverEndsWithOpenRow(t *testing.T) {
	s := newDefaultShaper(t)
	inputs := []string{
		"| a | b |\n| --- | --- |\n" + strings.Repeat("| celda larga | otra celda |\n", 120),
		"Texto.\n| a | b |\n| --- | --- |\n| 1 | 2 |\n| 3 | trunca",
	}
	for _, in := range inputs {
		out := s.Shape(in)
		lines := strings.Split(out, "\n")
		last := strings.TrimSpace(lines[len(lines)-1])
		if strings.HasPrefix(last, "|") {
			require.True(t, strings.HasSuffix(last, "|"), "open row in output: %q", last)
		}
	}
}

func TestShape_TableMode_NoRowBoundary_ReturnsRawChunk(t *testing.T) {
	s := New(Limits{TableMaxChars: 20})
	in := "| celda sin cierre de fila que sigue y sigue"
	out := s.Shape(in)
	require.Equal(t, 20, len([]rune(out)))
}

// ---------------------------------------------------------------------------
// Custom limits
// ---------------------------------------------------------------------------

func TestNew_ZeroLimits_FilledWithDefaults(t *testing.T) {
	s := New(Limits{})
	require.Equal(t, DefaultMaxLines, s.limits.MaxLines)
	require.Equal(t, DefaultMaxChars, s.limits.MaxChars)
	require.Equal(t, DefaultTableMaxChars, s.limits.TableMaxChars)
	require.InEpsilon(t, DefaultBoundaryRatio, s.limits.BoundaryRatio, 1e-9)
	require.NotEmpty(t, s.limits.FillerPrefixes)
	require.NotEmpty(t, s.limits.Connectors)
}

func TestShape_CustomConnectorList(t *testing.T) {
	s := New(Limits{Connectors: []string{"porque"}})
	require.Equal(t, "No flota", s.Shape("No flota porque"))
	// default connectors are replaced, not merged
	require.Equal(t, "No flota y", s.Shape("No flota y"))
}
