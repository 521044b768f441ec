package queryops

import "regexp"

// Family is the top-level classification of a detected operator.
type Family string

const (
	// FamilySubject marks operators naming who or what is searched for.
	FamilySubject Family = "SUBJECT"
	// FamilyObject marks operators shaping how terms combine.
	FamilyObject Family = "OBJECT"
	// FamilyLocation marks operators constraining where results live.
	FamilyLocation Family = "LOCATION"
)

// Dimension refines FamilyLocation operators.
type Dimension string

const (
	DimensionNone       Dimension = ""
	DimensionTemporal   Dimension = "temporal"
	DimensionGeographic Dimension = "geographic"
	DimensionTextual    Dimension = "textual"
	DimensionAddress    Dimension = "address"
	DimensionFormat     Dimension = "format"
	DimensionCategory   Dimension = "category"
)

// Rule binds one literal token pattern to its operator classification.
// The grammar is data: adding an operator means adding a row here and an
// engine mapping in engines.go, never new control flow.
type Rule struct {
	Family    Family
	Dimension Dimension
	Name      string
	Pattern   *regexp.Regexp
}

// grammar is the full operator table. Rules are evaluated independently;
// a query may match any number of them (multi-label detection).
//
// Ordering note: the date-range rule precedes the single-date rule, and the
// single-date pattern rejects a leading '-' so a range never also reports
// its end year as a bare date.
var grammar = []Rule{
	// SUBJECT
	{FamilySubject, DimensionNone, "person", regexp.MustCompile(`(?i)(?:^|\s)p:("[^"]+"|\S+)`)},
	{FamilySubject, DimensionNone, "company", regexp.MustCompile(`(?i)(?:^|\s)c:("[^"]+"|\S+)`)},
	{FamilySubject, DimensionNone, "username", regexp.MustCompile(`(?i)(?:^|\s)username:(\S+)`)},

	// OBJECT
	{FamilyObject, DimensionNone, "proximity", regexp.MustCompile(`(\S+)\s*~(\d+)\s*(\S+)`)},
	{FamilyObject, DimensionNone, "not", regexp.MustCompile(`(?:^|\s)-(\w\S*)`)},
	{FamilyObject, DimensionNone, "or", regexp.MustCompile(`(?:^|\s)(\w+)(?:\s+OR\s+|/)(\w+)`)},
	{FamilyObject, DimensionNone, "translation", regexp.MustCompile(`(?i)(?:^|\s)tr([a-z]{2})!`)},
	{FamilyObject, DimensionNone, "variation", regexp.MustCompile(`'([^']+)'`)},
	{FamilyObject, DimensionNone, "handshake", regexp.MustCompile(`handshake\{([^}]*)\}`)},
	{FamilyObject, DimensionNone, "wildcard", regexp.MustCompile(`\*[^*\s]*\*`)},

	// LOCATION / temporal
	{FamilyLocation, DimensionTemporal, "date-range", regexp.MustCompile(`(?:^|\s)(\d{4})-(\d{4})!`)},
	{FamilyLocation, DimensionTemporal, "date", regexp.MustCompile(`(?:^|[^-\d])(\d{4})!`)},
	{FamilyLocation, DimensionTemporal, "event", regexp.MustCompile(`(?i)(?:^|\s)event:(\S+)`)},

	// LOCATION / geographic
	{FamilyLocation, DimensionGeographic, "site", regexp.MustCompile(`(?i)(?:^|\s)site:(\S+)`)},
	{FamilyLocation, DimensionGeographic, "address", regexp.MustCompile(`(?i)(?:^|\s)(?:loc|near):([a-z]{2})!`)},
	{FamilyLocation, DimensionGeographic, "language", regexp.MustCompile(`(?i)(?:^|\s)(?:lang|language):([a-z]{2})!`)},
	{FamilyLocation, DimensionGeographic, "language-bare", regexp.MustCompile(`(?:^|\s)([a-z]{2})!`)},

	// LOCATION / textual
	{FamilyLocation, DimensionTextual, "intitle", regexp.MustCompile(`(?i)(?:^|\s)intitle:("[^"]+"|\S+)`)},
	{FamilyLocation, DimensionTextual, "author", regexp.MustCompile(`(?i)(?:^|\s)(?:author|by):("[^"]+"|\S+)`)},
	{FamilyLocation, DimensionTextual, "anchor", regexp.MustCompile(`(?i)(?:^|\s)anchor:("[^"]+"|\S+)`)},

	// LOCATION / address
	{FamilyLocation, DimensionAddress, "inurl", regexp.MustCompile(`(?i)(?:^|\s)inurl:(\S+)`)},
	{FamilyLocation, DimensionAddress, "indom", regexp.MustCompile(`(?i)(?:^|\s)indom:(\S+)`)},
	{FamilyLocation, DimensionAddress, "alldom", regexp.MustCompile(`(?i)(?:^|\s)alldom:(\S+)`)},

	// LOCATION / format
	{FamilyLocation, DimensionFormat, "filetype", regexp.MustCompile(`(?i)(?:^|\s)filetype:(\w+)`)},
	{FamilyLocation, DimensionFormat, "pdf", regexp.MustCompile(`(?i)(?:^|\s)pdf!`)},
	{FamilyLocation, DimensionFormat, "document", regexp.MustCompile(`(?i)(?:^|\s)(?:document|doc)!`)},
	{FamilyLocation, DimensionFormat, "image", regexp.MustCompile(`(?i)(?:^|\s)(?:image|img)!`)},
	{FamilyLocation, DimensionFormat, "audio", regexp.MustCompile(`(?i)(?:^|\s)audio!`)},
	{FamilyLocation, DimensionFormat, "video", regexp.MustCompile(`(?i)(?:^|\s)(?:video|vid)!`)},
	{FamilyLocation, DimensionFormat, "code", regexp.MustCompile(`(?i)(?:^|\s)(?:code|programming)!`)},

	// LOCATION / category
	{FamilyLocation, DimensionCategory, "news", regexp.MustCompile(`(?i)(?:^|\s)news!`)},
	{FamilyLocation, DimensionCategory, "academic", regexp.MustCompile(`(?i)(?:^|\s)(?:academic|scholar)!`)},
	{FamilyLocation, DimensionCategory, "social", regexp.MustCompile(`(?i)(?:^|\s)social!`)},
	{FamilyLocation, DimensionCategory, "forum", regexp.MustCompile(`(?i)(?:^|\s)forum!`)},
	{FamilyLocation, DimensionCategory, "book", regexp.MustCompile(`(?i)(?:^|\s)book!`)},
}

// Grammar returns a copy of the operator table, mainly for tests and
// documentation tooling.
func Grammar() []Rule {
	out := make([]Rule, len(grammar))
	copy(out, grammar)
	return out
}
