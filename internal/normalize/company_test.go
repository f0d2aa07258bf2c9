package normalize

import (
	"os"
	"strings"
	"testing"
)

func newTestCanonicalizer(t testing.TB) *Canonicalizer {
	t.Helper()
	rules := DefaultRules()
	if err := rules.Validate(); err != nil {
		t.Fatalf("default rules invalid: %v", err)
	}
	return NewCanonicalizer(rules)
}

func TestCanonicalize(t *testing.T) {
	c := newTestCanonicalizer(t)

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "slash joiner with suffix stripping",
			raw:  "Bristol-Myers Squibb Company / Gilead Sciences, Inc.",
			want: "Bristol-Myers Squibb Company and Gilead Sciences",
		},
		{
			name: "suffix stripping on multi-party names",
			raw:  "Boehringer Ingelheim Pharmaceuticals, Inc. and Eli Lilly",
			want: "Boehringer Ingelheim Pharmaceuticals and Eli Lilly",
		},
		{
			name: "abbreviation expansion",
			raw:  "GSK",
			want: "GlaxoSmithKline",
		},
		{
			name: "full name with PLC converges with abbreviation",
			raw:  "GlaxoSmithKline PLC",
			want: "GlaxoSmithKline",
		},
		{
			name: "ampersand joiner",
			raw:  "Regeneron Pharmaceuticals, Inc. & Sanofi",
			want: "Regeneron Pharmaceuticals and Sanofi",
		},
		{
			name: "plus joiner",
			raw:  "AstraZeneca + Daiichi Sankyo",
			want: "AstraZeneca and Daiichi Sankyo",
		},
		{
			name: "comma before and collapses",
			raw:  "Pfizer, and BioNTech SE",
			want: "Pfizer and BioNTech SE",
		},
		{
			name: "three-party collaboration keeps order and placement",
			raw:  "Alpha Ltd. / Beta Corp & Gamma Inc",
			want: "Alpha and Beta and Gamma",
		},
		{
			name: "danish corporate form not mistaken for joiner",
			raw:  "Novo Nordisk A/S",
			want: "Novo Nordisk",
		},
		{
			name: "company word survives without comma",
			raw:  "Bristol-Myers Squibb Company",
			want: "Bristol-Myers Squibb Company",
		},
		{
			name: "company word strips after comma",
			raw:  "Takeda Pharmaceuticals, Company",
			want: "Takeda Pharmaceuticals",
		},
		{
			name: "segment that is only corporate form disappears",
			raw:  "Merck & Co., Inc.",
			want: "Merck",
		},
		{
			name: "embedded ampersand token expands as abbreviation",
			raw:  "J&J",
			want: "Johnson and Johnson",
		},
		{
			name: "stacked suffixes strip repeatedly",
			raw:  "Acme Biosciences Ltd. Inc.",
			want: "Acme Biosciences",
		},
		{
			name: "unknown name passes through",
			raw:  "Ionis Pharmaceuticals",
			want: "Ionis Pharmaceuticals",
		},
		{
			name: "joiner glued to trailing period",
			raw:  "Pfizer /. BioNTech SE",
			want: "Pfizer and BioNTech SE",
		},
		{
			name: "punctuated joiner alone yields nothing",
			raw:  "/.",
			want: "",
		},
		{
			name: "joiner word with trailing period yields nothing",
			raw:  "and.",
			want: "",
		},
		{
			name: "segment stripping down to a separator disappears",
			raw:  "+,aB",
			want: "",
		},
		{
			name: "trailing punctuated joiner and bare suffix both drop",
			raw:  "X and +, Inc",
			want: "X",
		},
		{
			name: "whitespace collapsed",
			raw:  "  Vertex   Pharmaceuticals   Incorporated ",
			want: "Vertex Pharmaceuticals",
		},
		{
			name: "empty input",
			raw:  "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Canonicalize(tt.raw)
			if got != tt.want {
				t.Errorf("Canonicalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if again := c.Canonicalize(got); again != got {
				t.Errorf("Canonicalize not idempotent: %q -> %q -> %q", tt.raw, got, again)
			}
		})
	}
}

func TestCanonicalizeKeepsSegmentOrder(t *testing.T) {
	c := newTestCanonicalizer(t)

	raw := "Zeta Therapeutics / Alpha Bio, Inc."
	got := c.Canonicalize(raw)
	want := "Zeta Therapeutics and Alpha Bio"
	if got != want {
		t.Fatalf("Canonicalize(%q) = %q, want %q", raw, got, want)
	}
	if strings.Index(got, "Zeta") > strings.Index(got, "Alpha") {
		t.Fatalf("segments reordered in %q", got)
	}
}

func TestLoadRules(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRules(t.TempDir() + "/absent.json"); err == nil {
			t.Fatal("expected error for missing rules file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := writeRules(t, `{"suffixes": [`)
		if _, err := LoadRules(path); err == nil {
			t.Fatal("expected error for malformed rules file")
		}
	})

	t.Run("empty suffix table rejected", func(t *testing.T) {
		path := writeRules(t, `{"suffixes": [], "comma_suffixes": [], "joiners": ["&"]}`)
		if _, err := LoadRules(path); err == nil {
			t.Fatal("expected error for empty suffix table")
		}
	})

	t.Run("self-referencing abbreviation rejected", func(t *testing.T) {
		path := writeRules(t, `{
			"suffixes": ["Inc"],
			"joiners": ["&"],
			"abbreviations": {"GSK": "GSK Group", "Group": "GSK Group"}
		}`)
		if _, err := LoadRules(path); err == nil {
			t.Fatal("expected error for abbreviation expanding into another key")
		}
	})

	t.Run("valid file loads", func(t *testing.T) {
		path := writeRules(t, `{
			"suffixes": ["Inc", "Ltd"],
			"comma_suffixes": ["Company"],
			"joiners": ["&", "/"],
			"abbreviations": {"GSK": "GlaxoSmithKline"},
			"prepositions": ["for"],
			"alias_markers": ["formerly"]
		}`)
		rules, err := LoadRules(path)
		if err != nil {
			t.Fatalf("LoadRules failed: %v", err)
		}
		c := NewCanonicalizer(rules)
		if got := c.Canonicalize("GSK Inc"); got != "GlaxoSmithKline" {
			t.Errorf("Canonicalize with loaded rules = %q, want %q", got, "GlaxoSmithKline")
		}
	})
}

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := t.TempDir() + "/rules.json"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing rules fixture: %v", err)
	}
	return path
}

func FuzzCanonicalize(f *testing.F) {
	seeds := []string{
		"Bristol-Myers Squibb Company / Gilead Sciences, Inc.",
		"GSK", "a & b & c", "/ / /", ", and",
		"Merck & Co., Inc.", "...", "A/S",
		"/.", "+,aB", "and.", "X and +, Inc",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	c := NewCanonicalizer(DefaultRules())

	f.Fuzz(func(t *testing.T, raw string) {
		got := c.Canonicalize(raw)
		if got != c.Canonicalize(raw) {
			t.Fatalf("Canonicalize(%q) not deterministic", raw)
		}
		if again := c.Canonicalize(got); again != got {
			t.Fatalf("Canonicalize(%q) not idempotent: %q -> %q", raw, got, again)
		}
		if got != strings.Join(strings.Fields(got), " ") {
			t.Fatalf("Canonicalize(%q) = %q has uncollapsed whitespace", raw, got)
		}
		if strings.HasPrefix(got, joinerWord+" ") || strings.HasSuffix(got, " "+joinerWord) {
			t.Fatalf("Canonicalize(%q) = %q has dangling joiner", raw, got)
		}
	})
}
