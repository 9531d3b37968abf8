package domain

// Category is the closed set of element classifications used by the table
// grid. Unknown strings fall back to CategoryUnknown display values.
type Category string

const (
	CategoryAlkaliMetal     Category = "alkali-metal"
	CategoryAlkalineEarth   Category = "alkaline-earth-metal"
	CategoryTransitionMetal Category = "transition-metal"
	CategoryPostTransition  Category = "post-transition-metal"
	CategoryMetalloid       Category = "metalloid"
	CategoryNonmetal        Category = "nonmetal"
	CategoryHalogen         Category = "halogen"
	CategoryNobleGas        Category = "noble-gas"
	CategoryLanthanide      Category = "lanthanide"
	CategoryActinide        Category = "actinide"
	CategoryUnknown         Category = "unknown"
)

// Phase is the element's state at standard temperature and pressure.
type Phase string

const (
	PhaseSolid   Phase = "solid"
	PhaseLiquid  Phase = "liquid"
	PhaseGas     Phase = "gas"
	PhaseUnknown Phase = "unknown"
)

// CategoryDisplay is the presentation mapping for a category.
type CategoryDisplay struct {
	Label string
	Color string
}

// categoryDisplay is a fixed lookup keyed by the closed Category set.
var categoryDisplay = map[Category]CategoryDisplay{
	CategoryAlkaliMetal:     {Label: "Alkali metal", Color: "#ff6b6b"},
	CategoryAlkalineEarth:   {Label: "Alkaline earth metal", Color: "#ffa94d"},
	CategoryTransitionMetal: {Label: "Transition metal", Color: "#ffd43b"},
	CategoryPostTransition:  {Label: "Post-transition metal", Color: "#69db7c"},
	CategoryMetalloid:       {Label: "Metalloid", Color: "#38d9a9"},
	CategoryNonmetal:        {Label: "Nonmetal", Color: "#4dabf7"},
	CategoryHalogen:         {Label: "Halogen", Color: "#748ffc"},
	CategoryNobleGas:        {Label: "Noble gas", Color: "#9775fa"},
	CategoryLanthanide:      {Label: "Lanthanide", Color: "#f783ac"},
	CategoryActinide:        {Label: "Actinide", Color: "#e599f7"},
	CategoryUnknown:         {Label: "Unknown", Color: "#adb5bd"},
}

// Display returns the label and color for the category.
func (c Category) Display() CategoryDisplay {
	if d, ok := categoryDisplay[c]; ok {
		return d
	}
	return categoryDisplay[CategoryUnknown]
}

// phaseSymbol is a fixed lookup keyed by the closed Phase set.
var phaseSymbol = map[Phase]string{
	PhaseSolid:   "s",
	PhaseLiquid:  "l",
	PhaseGas:     "g",
	PhaseUnknown: "?",
}

// Symbol returns the one-letter state marker shown on element tiles.
func (p Phase) Symbol() string {
	if s, ok := phaseSymbol[p]; ok {
		return s
	}
	return phaseSymbol[PhaseUnknown]
}

// Element is one row of the injected periodic-table dataset.
type Element struct {
	AtomicNumber int      `json:"atomicNumber"`
	Symbol       string   `json:"symbol"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	Phase        Phase    `json:"phase"`
	AtomicMass   float64  `json:"atomicMass"`
	Period       int      `json:"period"`
	Group        int      `json:"group"`
	Summary      string   `json:"summary"`
}

// GridPosition is a 1-based row/column coordinate in the 18-column table
// layout, with lanthanides and actinides pulled out into rows 9 and 10.
type GridPosition struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GridPositionOf returns the fixed table coordinate for an element. The
// f-block (group 0 in the dataset) is placed by atomic-number offset within
// its detached row.
func GridPositionOf(e Element) GridPosition {
	switch {
	case e.Category == CategoryLanthanide && e.Group == 0:
		return GridPosition{Row: 9, Col: e.AtomicNumber - 57 + 3}
	case e.Category == CategoryActinide && e.Group == 0:
		return GridPosition{Row: 10, Col: e.AtomicNumber - 89 + 3}
	default:
		return GridPosition{Row: e.Period, Col: e.Group}
	}
}
