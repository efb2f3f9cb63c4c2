// Package nation maps FIS nation codes to the country names used by the
// rating ledger and back. The table is built once and never mutated.
package nation

import (
	"sort"
	"strings"
	"sync"
)

type Nation struct {
	Code    string
	Name    string
	Aliases []string
}

type Table struct {
	byCode map[string]Nation
	byName map[string]Nation
}

// NewTable indexes nations by code and by every spelling of their name.
// Later entries never override earlier ones.
func NewTable(nations []Nation) *Table {
	t := &Table{
		byCode: make(map[string]Nation, len(nations)),
		byName: make(map[string]Nation, len(nations)*2),
	}
	for _, n := range nations {
		code := strings.ToUpper(strings.TrimSpace(n.Code))
		if code == "" {
			continue
		}
		n.Code = code
		if _, exists := t.byCode[code]; !exists {
			t.byCode[code] = n
		}
		for _, name := range append([]string{n.Name}, n.Aliases...) {
			key := nameKey(name)
			if key == "" {
				continue
			}
			if _, exists := t.byName[key]; !exists {
				t.byName[key] = n
			}
		}
	}
	return t
}

// Lookup accepts either a code ("NOR") or a name ("Norway").
func (t *Table) Lookup(v string) (Nation, bool) {
	if t == nil {
		return Nation{}, false
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return Nation{}, false
	}
	if n, ok := t.byCode[strings.ToUpper(v)]; ok {
		return n, true
	}
	n, ok := t.byName[nameKey(v)]
	return n, ok
}

func (t *Table) NameOf(code string) (string, bool) {
	n, ok := t.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return n.Name, ok
}

func (t *Table) CodeOf(name string) (string, bool) {
	n, ok := t.byName[nameKey(name)]
	return n.Code, ok
}

// Canonical returns the code for v when known, otherwise v upper-cased.
// Callers use it as a comparison key for nations coming from different feeds.
func (t *Table) Canonical(v string) string {
	if n, ok := t.Lookup(v); ok {
		return n.Code
	}
	return strings.ToUpper(strings.TrimSpace(v))
}

// DisplayName returns the country name for v when known, otherwise v as given.
func (t *Table) DisplayName(v string) string {
	if n, ok := t.Lookup(v); ok {
		return n.Name
	}
	return strings.TrimSpace(v)
}

func (t *Table) Codes() []string {
	out := make([]string, 0, len(t.byCode))
	for code := range t.byCode {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

func nameKey(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}

var defaultTable = sync.OnceValue(func() *Table {
	return NewTable(skiNations)
})

// Default returns the shared read-only table of ski nations.
func Default() *Table {
	return defaultTable()
}

var skiNations = []Nation{
	{Code: "AND", Name: "Andorra"},
	{Code: "ARG", Name: "Argentina"},
	{Code: "ARM", Name: "Armenia"},
	{Code: "AUS", Name: "Australia"},
	{Code: "AUT", Name: "Austria"},
	{Code: "BEL", Name: "Belgium"},
	{Code: "BIH", Name: "Bosnia and Herzegovina", Aliases: []string{"Bosnia & Herzegovina"}},
	{Code: "BLR", Name: "Belarus"},
	{Code: "BOL", Name: "Bolivia"},
	{Code: "BRA", Name: "Brazil"},
	{Code: "BUL", Name: "Bulgaria"},
	{Code: "CAN", Name: "Canada"},
	{Code: "CHI", Name: "Chile"},
	{Code: "CHN", Name: "China", Aliases: []string{"People's Republic of China"}},
	{Code: "COL", Name: "Colombia"},
	{Code: "CRO", Name: "Croatia"},
	{Code: "CZE", Name: "Czechia", Aliases: []string{"Czech Republic"}},
	{Code: "DEN", Name: "Denmark"},
	{Code: "ESP", Name: "Spain"},
	{Code: "EST", Name: "Estonia"},
	{Code: "FIN", Name: "Finland"},
	{Code: "FRA", Name: "France"},
	{Code: "GBR", Name: "Great Britain", Aliases: []string{"United Kingdom", "UK"}},
	{Code: "GEO", Name: "Georgia"},
	{Code: "GER", Name: "Germany"},
	{Code: "GRE", Name: "Greece"},
	{Code: "HUN", Name: "Hungary"},
	{Code: "IND", Name: "India"},
	{Code: "IRI", Name: "Iran"},
	{Code: "IRL", Name: "Ireland"},
	{Code: "ISL", Name: "Iceland"},
	{Code: "ISR", Name: "Israel"},
	{Code: "ITA", Name: "Italy"},
	{Code: "JPN", Name: "Japan"},
	{Code: "KAZ", Name: "Kazakhstan"},
	{Code: "KOR", Name: "South Korea", Aliases: []string{"Korea", "Republic of Korea"}},
	{Code: "LAT", Name: "Latvia"},
	{Code: "LIE", Name: "Liechtenstein"},
	{Code: "LTU", Name: "Lithuania"},
	{Code: "MDA", Name: "Moldova"},
	{Code: "MGL", Name: "Mongolia"},
	{Code: "MKD", Name: "North Macedonia", Aliases: []string{"Macedonia"}},
	{Code: "NED", Name: "Netherlands"},
	{Code: "NOR", Name: "Norway"},
	{Code: "NZL", Name: "New Zealand"},
	{Code: "POL", Name: "Poland"},
	{Code: "POR", Name: "Portugal"},
	{Code: "ROU", Name: "Romania"},
	{Code: "RUS", Name: "Russia"},
	{Code: "SLO", Name: "Slovenia"},
	{Code: "SRB", Name: "Serbia"},
	{Code: "SUI", Name: "Switzerland"},
	{Code: "SVK", Name: "Slovakia"},
	{Code: "SWE", Name: "Sweden"},
	{Code: "THA", Name: "Thailand"},
	{Code: "TUR", Name: "Turkey", Aliases: []string{"Türkiye"}},
	{Code: "UKR", Name: "Ukraine"},
	{Code: "USA", Name: "USA", Aliases: []string{"United States", "United States of America"}},
}
