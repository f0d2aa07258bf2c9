// Package normalize turns the free-text fields of scraped approval
// announcements into a consistent schema: drug title lines are split into
// name, generic name and administration route, and sponsor names are
// collapsed to a single canonical spelling per company.
package normalize

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Rules holds the static lookup tables both normalizers run on. The tables
// are read-only after load; a single Rules value may back any number of
// concurrent Split/Canonicalize calls.
type Rules struct {
	// Suffixes are corporate-form tokens stripped from the end of each
	// company segment, matched case-insensitively with an optional
	// preceding comma.
	Suffixes []string `json:"suffixes"`

	// CommaSuffixes strip only when directly preceded by a comma, so that
	// names which legitimately end in the word survive ("Bristol-Myers
	// Squibb Company").
	CommaSuffixes []string `json:"comma_suffixes"`

	// Abbreviations maps known short spellings to the canonical full name.
	// Matching is exact per whitespace-delimited token.
	Abbreviations map[string]string `json:"abbreviations"`

	// Joiners are the separator tokens rewritten to "and" between
	// collaborating sponsors.
	Joiners []string `json:"joiners"`

	// Prepositions are leading tokens dropped from the administration
	// phrase ("for oral use" -> "oral use").
	Prepositions []string `json:"prepositions"`

	// AliasMarkers introduce obsolete-name annotations ("- formerly X")
	// which are removed from all output fields.
	AliasMarkers []string `json:"alias_markers"`
}

// DefaultRules returns the built-in rule tables covering the spellings
// observed on the source listing's historical pages.
func DefaultRules() *Rules {
	return &Rules{
		Suffixes: []string{
			"Inc.", "Inc", "Incorporated",
			"Ltd.", "Ltd", "Limited",
			"LLC", "L.L.C.",
			"Corp.", "Corp", "Corporation",
			"PLC", "A/S", "S.A.", "S.A", "SA",
			"GmbH", "AG", "N.V.", "AB",
			"LP", "L.P.",
		},
		CommaSuffixes: []string{"Company", "Co.", "Co"},
		Abbreviations: map[string]string{
			"GSK": "GlaxoSmithKline",
			"BMS": "Bristol-Myers Squibb",
			"J&J": "Johnson and Johnson",
			"MSD": "Merck",
			"P&G": "Procter and Gamble",
		},
		Joiners:      []string{"&", "+", "/"},
		Prepositions: []string{"for", "to", "as"},
		AliasMarkers: []string{"formerly", "previously"},
	}
}

// LoadRules reads a JSON rule table from disk. Any problem here is a
// configuration error and must abort startup before records are processed.
func LoadRules(path string) (*Rules, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var rules Rules
	if err := json.Unmarshal(content, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules file %s: %w", path, err)
	}
	return &rules, nil
}

// Validate checks the tables for entries that would break the
// canonicalizer's idempotence or segment matching.
func (r *Rules) Validate() error {
	if len(r.Suffixes)+len(r.CommaSuffixes) == 0 {
		return fmt.Errorf("suffix list is empty")
	}
	if len(r.Joiners) == 0 {
		return fmt.Errorf("joiner list is empty")
	}

	for _, s := range append(append([]string{}, r.Suffixes...), r.CommaSuffixes...) {
		if s == "" {
			return fmt.Errorf("empty suffix entry")
		}
		if strings.ContainsAny(s, " \t") {
			return fmt.Errorf("suffix %q contains whitespace; suffixes match single trailing tokens", s)
		}
	}

	for _, j := range r.Joiners {
		if j == "" {
			return fmt.Errorf("empty joiner entry")
		}
		if strings.ContainsAny(j, " \t") {
			return fmt.Errorf("joiner %q contains whitespace", j)
		}
	}

	keys := make(map[string]struct{}, len(r.Abbreviations))
	for k := range r.Abbreviations {
		if k == "" {
			return fmt.Errorf("empty abbreviation key")
		}
		if strings.ContainsAny(k, " \t") {
			return fmt.Errorf("abbreviation key %q contains whitespace; keys match single tokens", k)
		}
		keys[fold(k)] = struct{}{}
	}
	for k, v := range r.Abbreviations {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("abbreviation %q expands to an empty name", k)
		}
		// An expansion whose tokens are themselves keys would keep
		// rewriting on every pass and break idempotence.
		for _, tok := range strings.Fields(v) {
			folded := fold(strings.TrimRight(tok, ",."))
			if _, ok := keys[folded]; ok && !strings.EqualFold(tok, v) {
				return fmt.Errorf("abbreviation %q expands to %q, which contains abbreviation key %q", k, v, tok)
			}
		}
	}

	return nil
}
