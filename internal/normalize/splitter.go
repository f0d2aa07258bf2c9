package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// ParsedName is the decomposed form of a raw drug title line such as
// "Zepbound (tirzepatide) injection". Generic and Administration are empty
// when the source text carries no such part.
type ParsedName struct {
	Name           string `json:"name"`
	Generic        string `json:"generic"`
	Administration string `json:"administration"`
}

// Splitter decomposes raw drug title lines. It is stateless and safe for
// concurrent use.
type Splitter struct {
	prepositions []string
	aliasTail    *regexp.Regexp
}

func NewSplitter(rules *Rules) *Splitter {
	markers := rules.AliasMarkers
	if len(markers) == 0 {
		markers = []string{"formerly"}
	}
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return &Splitter{
		prepositions: rules.Prepositions,
		aliasTail:    regexp.MustCompile(`(?i)\s*-\s*(?:` + strings.Join(quoted, "|") + `)\b.*`),
	}
}

// Split never fails. Worst case the input comes back whitespace-collapsed
// as Name with the other fields empty; Name is never empty unless the input
// was blank.
func (s *Splitter) Split(raw string) ParsedName {
	cleaned := stripBracketGroups(raw)

	before, inner, after, found := scanFirstGroup(cleaned)
	if !found {
		// No parenthesized generic, so there is no reliable boundary
		// between name and route text: the whole line is the name.
		return ParsedName{Name: fallbackName(s.dropAliasTail(cleaned), raw)}
	}

	name := collapse(s.dropAliasTail(before))
	if name == "" {
		// The line opened with a parenthesis; splitting it further would
		// invent a structure the source never had.
		return ParsedName{Name: fallbackName(s.dropAliasTail(cleaned), raw)}
	}

	generic := collapse(inner)
	if isAnnotation(generic) {
		// A doubly wrapped group is an alias or cross-reference, not a
		// generic name. Drop it wholesale.
		generic = ""
	} else {
		generic = s.stripLeadingPreposition(collapse(s.dropAliasTail(generic)))
	}
	if !hasWord(generic) {
		generic = ""
	}

	admin := s.stripLeadingPreposition(collapse(s.dropAliasTail(foldGroups(after))))
	if !hasWord(admin) {
		admin = ""
	}

	return ParsedName{Name: name, Generic: generic, Administration: admin}
}

// dropAliasTail removes an obsolete-name tail ("- formerly Oldol ...") from
// one already separated field. Fields are cut apart before this runs, so
// the open-ended match cannot eat a closing parenthesis or the text behind
// it.
func (s *Splitter) dropAliasTail(field string) string {
	return s.aliasTail.ReplaceAllString(field, "")
}

func fallbackName(cleaned, raw string) string {
	if name := collapse(cleaned); name != "" {
		return name
	}
	return collapse(raw)
}

// scanFirstGroup finds the first top-level parenthesis group, tracking
// nesting depth so annotations nested inside the group stay intact. An
// unterminated group swallows the rest of the line.
func scanFirstGroup(s string) (before, inner, after string, found bool) {
	depth := 0
	start := -1
	for i, r := range s {
		switch r {
		case '(':
			depth++
			if depth == 1 && start == -1 {
				before = s[:i]
				start = i + 1
			}
		case ')':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return before, s[start:i], s[i+1:], true
				}
			}
		}
	}
	if start >= 0 {
		return before, s[start:], "", true
	}
	return "", "", "", false
}

// foldGroups removes the enclosing parentheses of every top-level group so
// trailing groups merge into the administration phrase. A group that is
// itself doubly wrapped is an alias annotation and is dropped whole; other
// nested parentheses survive verbatim.
func foldGroups(s string) string {
	var b strings.Builder
	var group strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '(':
			depth++
			if depth == 1 {
				group.Reset()
				continue
			}
		case ')':
			if depth > 0 {
				depth--
				if depth == 0 {
					b.WriteByte(' ')
					if inner := strings.TrimSpace(group.String()); !isAnnotation(inner) {
						b.WriteString(inner)
						b.WriteByte(' ')
					}
					continue
				}
			}
		}
		if depth > 0 {
			group.WriteRune(r)
		} else {
			b.WriteRune(r)
		}
	}
	if depth > 0 {
		b.WriteByte(' ')
		if inner := strings.TrimSpace(group.String()); !isAnnotation(inner) {
			b.WriteString(inner)
		}
	}
	return b.String()
}

// stripBracketGroups deletes [...] annotations anywhere in the line.
func stripBracketGroups(s string) string {
	if !strings.ContainsRune(s, '[') {
		return s
	}
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '[':
			depth++
			continue
		case ']':
			if depth > 0 {
				depth--
				continue
			}
		}
		if depth == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (s *Splitter) stripLeadingPreposition(phrase string) string {
	fields := strings.Fields(phrase)
	if len(fields) == 0 {
		return phrase
	}
	for _, prep := range s.prepositions {
		if strings.EqualFold(fields[0], prep) {
			return strings.Join(fields[1:], " ")
		}
	}
	return phrase
}

func isAnnotation(group string) bool {
	return len(group) >= 2 && strings.HasPrefix(group, "(") && strings.HasSuffix(group, ")")
}

// hasWord reports whether the phrase contains anything beyond punctuation.
func hasWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
