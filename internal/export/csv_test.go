package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/drugwatch/approvals-hunter/internal/store"
)

func TestWriteCSV(t *testing.T) {
	approvals := []store.Approval{
		{
			DrugName:       "Zepbound",
			GenericName:    "tirzepatide",
			Administration: "injection",
			Description:    "GIP and GLP-1 receptor agonist, for weight management",
			ApprovalDate:   time.Date(2023, time.November, 8, 0, 0, 0, 0, time.UTC),
			Company:        "Eli Lilly and Company",
			Treatment:      "Weight Loss, Obesity",
			DrugType:       "Antidiabetics",
			DiseaseType:    "Endocrine Disorders",
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, approvals); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 row, got %d records", len(records))
	}

	wantHeader := []string{
		"drug_name", "drug_generic_name", "mode_administration", "description",
		"Date of Approval", "Company", "Treatment for", "drug_type", "disease_type",
	}
	for i, col := range wantHeader {
		if records[0][i] != col {
			t.Errorf("header[%d] = %q, want %q", i, records[0][i], col)
		}
	}

	row := records[1]
	if row[0] != "Zepbound" || row[1] != "tirzepatide" {
		t.Errorf("name columns = %q, %q", row[0], row[1])
	}
	if row[4] != "November 8, 2023" {
		t.Errorf("date column = %q", row[4])
	}
	if row[6] != "Weight Loss, Obesity" {
		t.Errorf("treatment column = %q", row[6])
	}
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Errorf("expected header only, got %d lines", len(lines))
	}
}
