package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"element-agent/internal/domain"
)

// ElementQuery narrows the catalog listing. Empty fields match everything.
type ElementQuery struct {
	Q        string
	Category domain.Category
	Phase    domain.Phase
}

// ComparisonRow is one property line in a pairwise element comparison.
type ComparisonRow struct {
	Property string `json:"property"`
	A        string `json:"a"`
	B        string `json:"b"`
}

// ElementComparison pairs two elements with their property-by-property rows.
type ElementComparison struct {
	A    domain.Element  `json:"a"`
	B    domain.Element  `json:"b"`
	Rows []ComparisonRow `json:"rows"`
}

// ElementService answers search/filter/compare queries over the injected
// element dataset. The dataset is read-only after construction.
type ElementService struct {
	elements []domain.Element
	bySymbol map[string]domain.Element
}

func NewElementService(elements []domain.Element) (*ElementService, error) {
	if len(elements) == 0 {
		return nil, errors.New("usecase: element dataset must not be empty")
	}
	bySymbol := make(map[string]domain.Element, len(elements))
	for _, e := range elements {
		bySymbol[strings.ToLower(e.Symbol)] = e
	}
	return &ElementService{elements: elements, bySymbol: bySymbol}, nil
}

// Query returns elements matching the free-text term and the category/phase
// filters, in dataset (atomic number) order.
func (s *ElementService) Query(q ElementQuery) []domain.Element {
	term := strings.ToLower(strings.TrimSpace(q.Q))

	out := make([]domain.Element, 0, len(s.elements))
	for _, e := range s.elements {
		if q.Category != "" && e.Category != q.Category {
			continue
		}
		if q.Phase != "" && e.Phase != q.Phase {
			continue
		}
		if term != "" && !matchesTerm(e, term) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// matchesTerm matches a lowercase term against symbol (exact), name
// (substring), or atomic number (exact).
func matchesTerm(e domain.Element, term string) bool {
	if strings.ToLower(e.Symbol) == term {
		return true
	}
	if strings.Contains(strings.ToLower(e.Name), term) {
		return true
	}
	if n, err := strconv.Atoi(term); err == nil && n == e.AtomicNumber {
		return true
	}
	return false
}

// Get looks up one element by symbol, case-insensitively.
func (s *ElementService) Get(symbol string) (domain.Element, error) {
	e, ok := s.bySymbol[strings.ToLower(strings.TrimSpace(symbol))]
	if !ok {
		return domain.Element{}, newError(ErrorNotFound, "unknown_element", fmt.Errorf("symbol %q", symbol))
	}
	return e, nil
}

// Compare builds the pairwise property table for two symbols.
func (s *ElementService) Compare(a, b string) (ElementComparison, error) {
	ea, err := s.Get(a)
	if err != nil {
		return ElementComparison{}, err
	}
	eb, err := s.Get(b)
	if err != nil {
		return ElementComparison{}, err
	}
	return ElementComparison{
		A:    ea,
		B:    eb,
		Rows: comparisonRows(ea, eb),
	}, nil
}

func comparisonRows(a, b domain.Element) []ComparisonRow {
	return []ComparisonRow{
		{Property: "Atomic number", A: strconv.Itoa(a.AtomicNumber), B: strconv.Itoa(b.AtomicNumber)},
		{Property: "Atomic mass", A: formatMass(a.AtomicMass), B: formatMass(b.AtomicMass)},
		{Property: "Category", A: a.Category.Display().Label, B: b.Category.Display().Label},
		{Property: "Phase", A: string(a.Phase), B: string(b.Phase)},
		{Property: "Period", A: strconv.Itoa(a.Period), B: strconv.Itoa(b.Period)},
		{Property: "Group", A: strconv.Itoa(a.Group), B: strconv.Itoa(b.Group)},
	}
}

func formatMass(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
