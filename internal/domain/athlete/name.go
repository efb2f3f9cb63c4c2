package athlete

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// transliterations is applied before mark stripping so that letters which
// the ledger spells out (ø -> oe) are not reduced to a bare vowel.
var transliterations = []struct{ from, to string }{
	{"ø", "oe"},
	{"æ", "ae"},
	{"ä", "ae"},
	{"å", "aa"},
	{"ö", "oe"},
	{"ü", "ue"},
	{"ß", "ss"},
	{"ł", "l"},
	{"đ", "d"},
	{"þ", "th"},
}

// Normalizer turns a raw athlete name from any source into the key used for
// identity matching. It holds only read-only tables and is safe to share.
type Normalizer struct {
	aliases       map[string]string
	rawAliases    map[string]string
	replacer      *strings.Replacer
	lastNameFirst bool
}

type NormalizerOption func(*Normalizer)

// WithAliases registers known cross-source spellings. Both sides are
// normalized, so callers can write them as they appear in the feeds.
func WithAliases(aliases map[string]string) NormalizerOption {
	return func(n *Normalizer) {
		for from, to := range aliases {
			n.rawAliases[from] = to
		}
	}
}

// WithLastNameFirst treats the first token as the surname when the source
// gives no upper-case hint.
func WithLastNameFirst() NormalizerOption {
	return func(n *Normalizer) {
		n.lastNameFirst = true
	}
}

func NewNormalizer(opts ...NormalizerOption) *Normalizer {
	pairs := make([]string, 0, len(transliterations)*2)
	for _, t := range transliterations {
		pairs = append(pairs, t.from, t.to)
	}
	n := &Normalizer{
		aliases:    make(map[string]string),
		rawAliases: make(map[string]string),
		replacer:   strings.NewReplacer(pairs...),
	}
	for _, opt := range opts {
		opt(n)
	}
	for from, to := range n.rawAliases {
		key := n.canonical(n.reorder(from))
		if key == "" {
			continue
		}
		n.aliases[key] = n.canonical(n.reorder(to))
	}
	n.rawAliases = nil
	return n
}

// Normalize returns the matching key for raw: "First Last", lower-case,
// transliterated, without diacritics, aliases applied.
func (n *Normalizer) Normalize(raw string) string {
	key := n.canonical(n.reorder(raw))
	if alias, ok := n.aliases[key]; ok {
		return alias
	}
	return key
}

// Display reorders "LAST First" into "First Last" and title-cases the moved
// surname, keeping the source's diacritics. Used for imputed athletes.
func (n *Normalizer) Display(raw string) string {
	tokens := strings.Fields(n.reorder(raw))
	for i, tok := range tokens {
		if isUpperToken(tok) {
			tokens[i] = titleToken(tok)
		}
	}
	return strings.Join(tokens, " ")
}

func (n *Normalizer) reorder(raw string) string {
	raw = strings.TrimSpace(raw)
	if last, first, ok := strings.Cut(raw, ","); ok {
		return strings.TrimSpace(first) + " " + strings.TrimSpace(last)
	}

	tokens := strings.Fields(raw)
	if len(tokens) < 2 {
		return strings.Join(tokens, " ")
	}

	upper := 0
	for upper < len(tokens) && isUpperToken(tokens[upper]) {
		upper++
	}
	switch {
	case upper > 0 && upper < len(tokens):
		// "DOE Jane" -> "Jane DOE"
	case upper == 0 && n.lastNameFirst:
		upper = 1
	default:
		return strings.Join(tokens, " ")
	}

	out := make([]string, 0, len(tokens))
	out = append(out, tokens[upper:]...)
	out = append(out, tokens[:upper]...)
	return strings.Join(out, " ")
}

func (n *Normalizer) canonical(s string) string {
	s = strings.ToLower(s)
	s = n.replacer.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, s); err == nil {
		s = stripped
	}

	s = strings.Map(func(r rune) rune {
		switch r {
		case '-', '_', '‐', '‑':
			return ' '
		case '.', '\'', '’', '`':
			return -1
		}
		return r
	}, s)

	return strings.Join(strings.Fields(s), " ")
}

// isUpperToken reports whether tok is a surname written in capitals,
// e.g. "DOE" or "KLÆBO". Initials such as "J." do not count.
func isUpperToken(tok string) bool {
	letters := 0
	for _, r := range tok {
		if !unicode.IsLetter(r) {
			continue
		}
		if !unicode.IsUpper(r) {
			return false
		}
		letters++
	}
	return letters >= 2
}

func titleToken(tok string) string {
	parts := strings.Split(strings.ToLower(tok), "-")
	for i, p := range parts {
		rs := []rune(p)
		if len(rs) > 0 {
			rs[0] = unicode.ToUpper(rs[0])
		}
		parts[i] = string(rs)
	}
	return strings.Join(parts, "-")
}
