// Package markdown converts a restricted markdown subset (tables, emphasis,
// inline code, headings, bullet lists, paragraphs) into HTML safe to insert
// into a document. Input is escaped before any structural substitution, so
// untrusted text can never introduce markup of its own.
package markdown

import (
	"regexp"
	"strings"
)

var (
	boldRe    = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe  = regexp.MustCompile(`\*([^*\n]+)\*`)
	codeRe    = regexp.MustCompile("`([^`\n]+)`")
	headingRe = regexp.MustCompile(`^(#{1,3}) (.*)$`)
)

// Render converts text to HTML. It is total: malformed or unbalanced markdown
// degrades to plain escaped text with partial structure, never an error.
func Render(text string) string {
	t := escape(text)
	t = dropTrailingPartialRow(t)

	lines := strings.Split(t, "\n")

	var out []string
	var para []string
	var items []string

	flushPara := func() {
		if len(para) == 0 {
			return
		}
		out = append(out, "<p>"+strings.Join(para, "<br>")+"</p>")
		para = nil
	}
	flushList := func() {
		if len(items) == 0 {
			return
		}
		out = append(out, "<ul>"+strings.Join(items, "")+"</ul>")
		items = nil
	}

	i := 0
	for i < len(lines) {
		trimmed := strings.TrimSpace(lines[i])

		switch {
		case isTableRow(trimmed):
			flushPara()
			flushList()
			start := i
			for i < len(lines) && isTableRow(strings.TrimSpace(lines[i])) {
				i++
			}
			out = append(out, renderTable(lines[start:i]))
			continue

		case strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "• "):
			flushPara()
			_, content, _ := strings.Cut(trimmed, " ")
			items = append(items, "<li>"+inline(content)+"</li>")

		case trimmed == "":
			flushPara()
			flushList()

		default:
			flushList()
			para = append(para, inline(trimmed))
		}
		i++
	}
	flushPara()
	flushList()

	return strings.Join(out, "\n")
}

// escape neutralizes the three HTML-significant characters. Must run before
// every structural step.
func escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// dropTrailingPartialRow removes a last line that opens a table row without
// closing it, guarding against a truncation artifact upstream.
func dropTrailingPartialRow(text string) string {
	lines := strings.Split(text, "\n")
	last := strings.TrimSpace(lines[len(lines)-1])
	if strings.HasPrefix(last, "|") && !strings.HasSuffix(last, "|") {
		return strings.TrimRight(strings.Join(lines[:len(lines)-1], "\n"), "\n")
	}
	return text
}

func isTableRow(trimmed string) bool {
	return len(trimmed) >= 2 && strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|")
}

// renderTable converts a contiguous block of |...| lines. The first row is
// the header, the markdown separator row is discarded, the rest become body
// rows.
func renderTable(rows []string) string {
	var b strings.Builder
	b.WriteString("<table>")

	b.WriteString("<thead><tr>")
	for _, cell := range splitCells(rows[0]) {
		b.WriteString("<th>" + inline(cell) + "</th>")
	}
	b.WriteString("</tr></thead>")

	if len(rows) > 2 {
		b.WriteString("<tbody>")
		for _, row := range rows[2:] {
			b.WriteString("<tr>")
			for _, cell := range splitCells(row) {
				b.WriteString("<td>" + inline(cell) + "</td>")
			}
			b.WriteString("</tr>")
		}
		b.WriteString("</tbody>")
	}

	b.WriteString("</table>")
	return b.String()
}

// splitCells splits a table row on pipes, discarding the outer empty cells
// produced by the leading and trailing pipe.
func splitCells(row string) []string {
	parts := strings.Split(strings.TrimSpace(row), "|")
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}
	return cells
}

// inline applies emphasis, code, and heading transforms to one line of
// already-escaped text.
func inline(s string) string {
	s = boldRe.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicRe.ReplaceAllString(s, "<em>$1</em>")
	s = codeRe.ReplaceAllString(s, "<code>$1</code>")
	if m := headingRe.FindStringSubmatch(s); m != nil {
		// headings render as a bold lead-in span, not a block heading tag
		s = `<strong class="heading">` + m[2] + `</strong>`
	}
	return s
}
