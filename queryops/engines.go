package queryops

import "sort"

// LayerSet groups engine codes by dispatch layer. L1 engines run first and
// cheapest; L2 adds specialty engines; L3 is the long tail used only at high
// aggressiveness.
type LayerSet struct {
	L1 []string
	L2 []string
	L3 []string
}

// IsEmpty reports whether no layer carries an engine.
func (ls LayerSet) IsEmpty() bool {
	return len(ls.L1) == 0 && len(ls.L2) == 0 && len(ls.L3) == 0
}

// All returns the union of all layers, deduplicated and sorted.
func (ls LayerSet) All() []string {
	seen := map[string]bool{}
	var out []string
	for _, layer := range [][]string{ls.L1, ls.L2, ls.L3} {
		for _, code := range layer {
			if !seen[code] {
				seen[code] = true
				out = append(out, code)
			}
		}
	}
	sort.Strings(out)
	return out
}

// operatorEngines maps operator names to their static per-layer engine sets.
// Unlisted operators contribute no engines (they shape the query, not the
// dispatch set).
var operatorEngines = map[string]LayerSet{
	"person":   {L1: []string{"GO", "BI"}, L2: []string{"EX"}, L3: []string{"BR"}},
	"company":  {L1: []string{"GO", "BI"}, L2: []string{"EX"}, L3: []string{"BR"}},
	"username": {L1: []string{"DU", "MJ"}, L2: []string{"BR"}},

	"proximity": {L1: []string{"GO"}, L2: []string{"EX"}},
	"or":        {L1: []string{"GO", "BI"}},
	"variation": {L1: []string{"GO"}, L2: []string{"EX"}},

	"date":       {L1: []string{"GO", "BI"}, L2: []string{"EX"}},
	"date-range": {L1: []string{"GO", "BI"}, L2: []string{"EX"}},
	"event":      {L1: []string{"GO", "BI"}, L2: []string{"BR"}},

	"site":          {L1: []string{"GO", "BI"}, L2: []string{"MJ"}},
	"address":       {L1: []string{"GO"}, L2: []string{"MJ"}},
	"language":      {L1: []string{"GO", "BI"}, L2: []string{"MJ"}},
	"language-bare": {L1: []string{"GO", "BI"}, L2: []string{"MJ"}},

	"intitle": {L1: []string{"GO", "BI"}},
	"author":  {L1: []string{"GO"}, L2: []string{"AX", "PM"}},
	"anchor":  {L1: []string{"GO", "BI"}},

	"inurl":  {L1: []string{"GO", "BI"}},
	"indom":  {L1: []string{"GO"}, L2: []string{"MJ"}},
	"alldom": {L1: []string{"GO"}, L2: []string{"MJ"}, L3: []string{"BR"}},

	"filetype": {L1: []string{"GO", "BI"}, L2: []string{"EX"}, L3: []string{"MJ"}},
	"pdf":      {L1: []string{"GO", "BI"}, L2: []string{"EX"}},
	"document": {L1: []string{"GO", "BI"}, L2: []string{"EX"}},
	"image":    {L1: []string{"GO", "BI"}},
	"audio":    {L1: []string{"GO"}, L2: []string{"DU"}},
	"video":    {L1: []string{"GO", "BI"}},
	"code":     {L1: []string{"GO"}, L2: []string{"EX"}},

	"news":     {L1: []string{"GO", "BI"}, L2: []string{"BR"}},
	"academic": {L1: []string{"AX", "PM"}, L2: []string{"GO"}},
	"social":   {L1: []string{"DU", "BR"}, L2: []string{"GO"}},
	"forum":    {L1: []string{"DU"}, L2: []string{"GO", "BR"}},
	"book":     {L1: []string{"GO"}, L2: []string{"AX"}},
}
