package normalize

import (
	"strings"

	"golang.org/x/text/cases"
)

// joinerWord is the canonical token connecting collaborating sponsors.
const joinerWord = "and"

// Canonicalizer collapses inconsistent sponsor spellings to one canonical
// name per company. It is stateless after construction and safe for
// concurrent use; it never reorders joined names and re-running it on its
// own output is a no-op.
type Canonicalizer struct {
	joiners       map[string]struct{}
	abbreviations map[string]string
	suffixes      []string
	commaSuffixes []string
}

func NewCanonicalizer(rules *Rules) *Canonicalizer {
	c := &Canonicalizer{
		joiners:       make(map[string]struct{}, len(rules.Joiners)+1),
		abbreviations: make(map[string]string, len(rules.Abbreviations)),
		suffixes:      sortBySizeDesc(rules.Suffixes),
		commaSuffixes: sortBySizeDesc(rules.CommaSuffixes),
	}
	c.joiners[joinerWord] = struct{}{}
	for _, j := range rules.Joiners {
		c.joiners[fold(j)] = struct{}{}
	}
	for k, v := range rules.Abbreviations {
		c.abbreviations[fold(k)] = v
	}
	return c
}

// Canonicalize applies, in order: joiner unification, abbreviation
// expansion, per-segment suffix stripping, punctuation cleanup. Unknown
// names pass through the suffix and separator steps unchanged; the function
// never fails.
func (c *Canonicalizer) Canonicalize(raw string) string {
	tokens := c.unifyJoiners(strings.Fields(raw))
	if len(tokens) == 0 {
		return ""
	}

	tokens = c.expandAbbreviations(tokens)

	var segments []string
	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		// A segment that strips down to a bare separator symbol carries no
		// name and would read as a joiner on the next pass.
		seg := c.stripSegment(strings.Join(current, " "))
		if _, joiner := c.joiners[fold(seg)]; seg != "" && !joiner {
			segments = append(segments, seg)
		}
		current = current[:0]
	}
	for _, tok := range tokens {
		if tok == joinerWord {
			flush()
			continue
		}
		current = append(current, tok)
	}
	flush()

	return strings.Join(segments, " "+joinerWord+" ")
}

// unifyJoiners rewrites every separator token to "and", dropping the comma
// of a ", and" pair and collapsing doubled or dangling joiners. Separators
// count only as standalone whitespace-delimited tokens, ignoring glued
// trailing punctuation ("/.", "and,"), so "A/S" and "J&J" stay whole.
func (c *Canonicalizer) unifyJoiners(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := c.joiners[fold(strings.TrimRight(tok, ",."))]; ok {
			if n := len(out); n > 0 {
				trimmed := strings.TrimRight(out[n-1], ",")
				if trimmed == "" {
					out = out[:n-1]
				} else {
					out[n-1] = trimmed
				}
			}
			if n := len(out); n == 0 || out[n-1] == joinerWord {
				continue
			}
			out = append(out, joinerWord)
			continue
		}
		out = append(out, tok)
	}
	for len(out) > 0 && out[len(out)-1] == joinerWord {
		out = out[:len(out)-1]
	}
	return out
}

// expandAbbreviations replaces each whole token that matches a table entry.
// Trailing commas and periods are ignored for the lookup; commas are kept
// so later suffix stripping still sees its boundary.
func (c *Canonicalizer) expandAbbreviations(tokens []string) []string {
	expanded := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		core := strings.TrimRight(tok, ",.")
		full, ok := c.abbreviations[fold(core)]
		if !ok || core == "" {
			expanded = append(expanded, tok)
			continue
		}
		if strings.Contains(tok[len(core):], ",") {
			full += ","
		}
		// The expansion may itself contain several tokens (or an "and").
		expanded = append(expanded, strings.Fields(full)...)
	}
	return expanded
}

// stripSegment removes trailing corporate-form tokens from one joined name
// segment, repeating until nothing matches. A segment reduced to nothing is
// reported empty and dropped by the caller.
func (c *Canonicalizer) stripSegment(segment string) string {
	s := strings.TrimSpace(segment)
	for {
		s = strings.TrimRight(s, " ,.")
		if s == "" {
			return ""
		}
		next, ok := c.stripOneSuffix(s)
		if !ok {
			return s
		}
		s = next
	}
}

func (c *Canonicalizer) stripOneSuffix(s string) (string, bool) {
	for _, suf := range c.suffixes {
		if head, ok := cutSuffix(s, suf, false); ok {
			return head, true
		}
	}
	for _, suf := range c.commaSuffixes {
		if head, ok := cutSuffix(s, suf, true); ok {
			return head, true
		}
	}
	return s, false
}

// cutSuffix matches suf case-insensitively at the end of s. The suffix must
// be the whole segment or be preceded by a space or comma; commaRequired
// suffixes additionally demand the comma, which keeps words like "Company"
// intact when they are part of the real name.
func cutSuffix(s, suf string, commaRequired bool) (string, bool) {
	if len(s) < len(suf) || !strings.EqualFold(s[len(s)-len(suf):], suf) {
		return s, false
	}
	head := s[:len(s)-len(suf)]
	if head == "" {
		return "", true
	}
	trimmed := strings.TrimRight(head, " ")
	switch {
	case strings.HasSuffix(trimmed, ","):
		return trimmed, true
	case commaRequired:
		return s, false
	case len(trimmed) < len(head):
		return trimmed, true
	default:
		// Suffix glued to the previous word ("NordiskA/S"): not a match.
		return s, false
	}
}

func sortBySizeDesc(items []string) []string {
	out := append([]string(nil), items...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && len(out[j]) > len(out[j-1]); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// fold lowercases for case-insensitive table lookups. A fresh caser per
// call keeps this safe under concurrent batch processing.
func fold(s string) string {
	return cases.Fold().String(s)
}
