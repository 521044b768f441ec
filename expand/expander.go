package expand

import (
	"regexp"
	"strings"

	"github.com/dragnet-io/dragnet/queryops"
)

// FilterSpec is the structured filter set derived from a query's operators,
// applied to corpus searches instead of inline DSL tokens.
type FilterSpec struct {
	Site       string
	Filetype   string
	Language   string
	YearFrom   int
	YearTo     int
	Exclude    []string
	Categories []string
}

// IsZero reports whether no filter is set.
func (f FilterSpec) IsZero() bool {
	return f.Site == "" && f.Filetype == "" && f.Language == "" &&
		f.YearFrom == 0 && f.YearTo == 0 && len(f.Exclude) == 0 && len(f.Categories) == 0
}

// Expander derives engine-ready query variants from raw DSL input.
// Implementations must be thread-safe for concurrent use.
type Expander interface {
	// Parse strips all routing macros, returning the concrete query used
	// for corpus search.
	Parse(query string) string

	// ExpandForWeb rewrites the query for web engines: subject macros
	// become quoted phrases, internal-only macros are dropped, and engine
	// native operators (site:, filetype:, ...) are preserved.
	ExpandForWeb(query string) string

	// ElasticFilters extracts the structured filters implied by the
	// query's operators.
	ElasticFilters(query string) FilterSpec
}

// Token rewriters shared by Parse and ExpandForWeb. Subject macros carry the
// value; pure routing macros vanish.
var (
	subjectMacro   = regexp.MustCompile(`(?i)(^|\s)(?:p|c):("[^"]+"|\S+)`)
	usernameMacro  = regexp.MustCompile(`(?i)(^|\s)username:(\S+)`)
	bangToken      = regexp.MustCompile(`(?i)(^|\s)(?:tr[a-z]{2}|[a-z]{2,11}|\d{4}(?:-\d{4})?)!`)
	handshakeToken = regexp.MustCompile(`handshake\{[^}]*\}`)
	anchorFlag     = regexp.MustCompile(`(?i)(^|\s)\+anchor\b`)
	fieldMacro     = regexp.MustCompile(`(?i)(^|\s)(?:site|filetype|intitle|inurl|indom|alldom|event|anchor|author|by|loc|near|lang|language):("[^"]+"|\S+)`)
	spaceRun       = regexp.MustCompile(`\s+`)
)

// Default is the standard expander. It reuses the operator grammar for
// filter extraction so the two stay consistent.
type Default struct {
	router *queryops.Router
}

var _ Expander = (*Default)(nil)

// NewExpander creates the standard expander.
func NewExpander() *Default {
	return &Default{router: queryops.NewRouter()}
}

// Parse strips every routing macro. Subject values survive as plain words.
func (d *Default) Parse(query string) string {
	q := anchorFlag.ReplaceAllString(query, "$1")
	q = handshakeToken.ReplaceAllString(q, "")
	q = subjectMacro.ReplaceAllString(q, "$1$2")
	q = usernameMacro.ReplaceAllString(q, "$1$2")
	q = fieldMacro.ReplaceAllString(q, "$1")
	q = bangToken.ReplaceAllString(q, "$1")
	q = strings.ReplaceAll(q, `"`, "")
	return strings.TrimSpace(spaceRun.ReplaceAllString(q, " "))
}

// ExpandForWeb keeps engine-native operators and turns subject macros into
// quoted phrases.
func (d *Default) ExpandForWeb(query string) string {
	q := anchorFlag.ReplaceAllString(query, "$1")
	q = handshakeToken.ReplaceAllString(q, "")
	q = subjectMacro.ReplaceAllStringFunc(q, func(m string) string {
		sub := subjectMacro.FindStringSubmatch(m)
		value := strings.Trim(sub[2], `"`)
		return sub[1] + `"` + value + `"`
	})
	q = usernameMacro.ReplaceAllString(q, `$1"$2"`)
	q = bangToken.ReplaceAllString(q, "$1")
	return strings.TrimSpace(spaceRun.ReplaceAllString(q, " "))
}

// ElasticFilters extracts structured filters from the detected operators.
func (d *Default) ElasticFilters(query string) FilterSpec {
	var spec FilterSpec
	for _, det := range d.router.DetectOperators(query) {
		switch det.Name {
		case "site", "indom", "alldom":
			if spec.Site == "" && len(det.Values) > 0 {
				spec.Site = det.Values[0]
			}
		case "filetype":
			if len(det.Values) > 0 {
				spec.Filetype = strings.ToLower(det.Values[0])
			}
		case "pdf":
			spec.Filetype = "pdf"
		case "language", "language-bare":
			if len(det.Values) > 0 {
				spec.Language = strings.ToLower(det.Values[0])
			}
		case "date":
			if len(det.Values) > 0 {
				year := atoiSafe(det.Values[0])
				spec.YearFrom, spec.YearTo = year, year
			}
		case "date-range":
			if len(det.Values) >= 2 {
				spec.YearFrom = atoiSafe(det.Values[0])
				spec.YearTo = atoiSafe(det.Values[1])
			}
		case "not":
			spec.Exclude = append(spec.Exclude, det.Values...)
		case "news", "academic", "social", "forum", "book":
			spec.Categories = append(spec.Categories, det.Name)
		}
	}
	return spec
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
