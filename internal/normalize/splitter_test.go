package normalize

import (
	"strings"
	"testing"
	"unicode"
)

func newTestSplitter(t testing.TB) *Splitter {
	t.Helper()
	rules := DefaultRules()
	if err := rules.Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
	return NewSplitter(rules)
}

func TestSplit(t *testing.T) {
	s := newTestSplitter(t)

	tests := []struct {
		name string
		raw  string
		want ParsedName
	}{
		{
			name: "name generic and route",
			raw:  "Zepbound (tirzepatide) injection",
			want: ParsedName{Name: "Zepbound", Generic: "tirzepatide", Administration: "injection"},
		},
		{
			name: "leading preposition stripped from route",
			raw:  "Veozah (fezolinetant) for oral use",
			want: ParsedName{Name: "Veozah", Generic: "fezolinetant", Administration: "oral use"},
		},
		{
			name: "no parentheses at all",
			raw:  "DrugX",
			want: ParsedName{Name: "DrugX"},
		},
		{
			name: "empty parenthesized group discarded",
			raw:  "DrugX ()",
			want: ParsedName{Name: "DrugX"},
		},
		{
			name: "empty group with trailing route",
			raw:  "DrugX () oral",
			want: ParsedName{Name: "DrugX", Administration: "oral"},
		},
		{
			name: "punctuation-only group discarded",
			raw:  "DrugX (--) tablets",
			want: ParsedName{Name: "DrugX", Administration: "tablets"},
		},
		{
			name: "nested parentheses preserved inside generic",
			raw:  "Hemgenix (etranacogene dezaparvovec (AAV5)) injection",
			want: ParsedName{Name: "Hemgenix", Generic: "etranacogene dezaparvovec (AAV5)", Administration: "injection"},
		},
		{
			name: "second group folds into route",
			raw:  "Lantidra (donislecel) (allogeneic) infusion",
			want: ParsedName{Name: "Lantidra", Generic: "donislecel", Administration: "allogeneic infusion"},
		},
		{
			name: "obsolete alias tail removed",
			raw:  "Rezzayo (rezafungin) injection - formerly CD101",
			want: ParsedName{Name: "Rezzayo", Generic: "rezafungin", Administration: "injection"},
		},
		{
			name: "bracketed annotation removed",
			raw:  "Opvee [see Nalmefene] (nalmefene) nasal spray",
			want: ParsedName{Name: "Opvee", Generic: "nalmefene", Administration: "nasal spray"},
		},
		{
			name: "double-parenthesized annotation discarded",
			raw:  "Elfabrio ((pegunigalsidase alfa-iwxj))",
			want: ParsedName{Name: "Elfabrio"},
		},
		{
			name: "double-parenthesized annotation after generic discarded",
			raw:  "Emend (aprepitant) ((MK-0869)) capsules",
			want: ParsedName{Name: "Emend", Generic: "aprepitant", Administration: "capsules"},
		},
		{
			name: "alias tail inside generic keeps route",
			raw:  "Rezzayo (rezafungin - formerly CD101) injection",
			want: ParsedName{Name: "Rezzayo", Generic: "rezafungin", Administration: "injection"},
		},
		{
			name: "alias tail before generic trimmed from name only",
			raw:  "Newol - formerly Oldol (newicin) oral",
			want: ParsedName{Name: "Newol", Generic: "newicin", Administration: "oral"},
		},
		{
			name: "whitespace collapsed everywhere",
			raw:  "  Daybue   (trofinetide)   oral  solution ",
			want: ParsedName{Name: "Daybue", Generic: "trofinetide", Administration: "oral solution"},
		},
		{
			name: "unterminated group swallows tail",
			raw:  "Drug (unfinished generic",
			want: ParsedName{Name: "Drug", Generic: "unfinished generic"},
		},
		{
			name: "line opening with parenthesis falls back whole",
			raw:  "(somatrogon) injection",
			want: ParsedName{Name: "(somatrogon) injection"},
		},
		{
			name: "empty input",
			raw:  "",
			want: ParsedName{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Split(tt.raw)
			if got != tt.want {
				t.Errorf("Split(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSplitDeterministic(t *testing.T) {
	s := newTestSplitter(t)
	inputs := []string{
		"Zurzuvae (zuranolone) capsules",
		"weird ((x) (y)) ) ( input",
		"(((((",
	}
	for _, raw := range inputs {
		first := s.Split(raw)
		for i := 0; i < 5; i++ {
			if got := s.Split(raw); got != first {
				t.Fatalf("Split(%q) not deterministic: %+v vs %+v", raw, got, first)
			}
		}
	}
}

func FuzzSplit(f *testing.F) {
	seeds := []string{
		"Zepbound (tirzepatide) injection",
		"DrugX ()",
		"a (b (c) d) e (f)",
		")(", "((", "[[]]", "for (to) as",
		"Name - formerly Old (gen)",
		"Drug (gen - formerly X) oral",
		"A (b) ((c)) d",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	rules := DefaultRules()
	s := NewSplitter(rules)

	f.Fuzz(func(t *testing.T, raw string) {
		got := s.Split(raw)
		if got != s.Split(raw) {
			t.Fatalf("Split(%q) not deterministic", raw)
		}
		if strings.TrimSpace(raw) != "" && got.Name == "" {
			t.Fatalf("Split(%q) produced empty name", raw)
		}
		for _, field := range []string{got.Name, got.Generic, got.Administration} {
			if field != strings.Join(strings.Fields(field), " ") {
				t.Fatalf("Split(%q) field %q has uncollapsed whitespace", raw, field)
			}
		}
		for _, field := range []string{got.Generic, got.Administration} {
			if field != "" && !hasWordRune(field) {
				t.Fatalf("Split(%q) kept punctuation-only field %q", raw, field)
			}
		}
	})
}

func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
