package arxivfeed

// Category is a logical listing key.
type Category string

const (
	CategoryLatest  Category = "latest"
	CategoryCS      Category = "cs"
	CategoryMath    Category = "math"
	CategoryPhysics Category = "physics"
	CategoryQBio    Category = "q-bio"
	CategoryQFin    Category = "q-fin"
	CategoryStat    Category = "stat"
	CategoryEESS    Category = "eess"
	CategoryEcon    Category = "econ"
	CategorySearch  Category = "search"
)

// Subjects lists the subject-area categories in display order.
var Subjects = []Category{
	CategoryCS,
	CategoryMath,
	CategoryPhysics,
	CategoryQBio,
	CategoryQFin,
	CategoryStat,
	CategoryEESS,
	CategoryEcon,
}

// subjectPrefixes maps each subject area to the arXiv category patterns it covers.
// Physics spans several archives that predate the physics.* namespace.
var subjectPrefixes = map[Category][]string{
	CategoryCS:   {"cs.*"},
	CategoryMath: {"math.*"},
	CategoryPhysics: {
		"physics.*", "astro-ph*", "cond-mat*", "gr-qc", "hep-ex", "hep-lat",
		"hep-ph", "hep-th", "math-ph", "nlin.*", "nucl-ex", "nucl-th", "quant-ph",
	},
	CategoryQBio: {"q-bio.*"},
	CategoryQFin: {"q-fin.*"},
	CategoryStat: {"stat.*"},
	CategoryEESS: {"eess.*"},
	CategoryEcon: {"econ.*"},
}

// Fallback tiers for the latest listing.
var (
	latestSecondaryPrefixes = []string{"cs.AI", "cs.LG", "cs.CL", "cs.CV", "stat.ML"}
	latestTertiaryPrefixes  = []string{"cs.*"}
)

// IsSubject reports whether c is one of the subject-area categories.
func (c Category) IsSubject() bool {
	_, ok := subjectPrefixes[c]
	return ok
}

// ParseCategory validates a category key.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if c == CategoryLatest || c == CategorySearch || c.IsSubject() {
		return c, nil
	}
	return "", invalidRequest("unknown category %q", s)
}

func (c Category) String() string {
	return string(c)
}

// SortField selects the ordering key of a listing.
type SortField string

const (
	SortSubmitted SortField = "submittedDate"
	SortUpdated   SortField = "lastUpdatedDate"
)

// ParseSortField accepts the API names and the short forms "submitted" and "updated".
func ParseSortField(s string) (SortField, error) {
	switch s {
	case "", "submitted", string(SortSubmitted):
		return SortSubmitted, nil
	case "updated", string(SortUpdated):
		return SortUpdated, nil
	}
	return "", invalidRequest("unknown sort field %q", s)
}
