// Package export writes stored approvals as CSV, column for column the
// layout downstream spreadsheets already expect.
package export

import (
	"encoding/csv"
	"io"

	"github.com/drugwatch/approvals-hunter/internal/store"
)

var csvHeader = []string{
	"drug_name",
	"drug_generic_name",
	"mode_administration",
	"description",
	"Date of Approval",
	"Company",
	"Treatment for",
	"drug_type",
	"disease_type",
}

const csvDateLayout = "January 2, 2006"

// WriteCSV streams approvals to w in the stored order.
func WriteCSV(w io.Writer, approvals []store.Approval) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, a := range approvals {
		record := []string{
			a.DrugName,
			a.GenericName,
			a.Administration,
			a.Description,
			a.ApprovalDate.Format(csvDateLayout),
			a.Company,
			a.Treatment,
			a.DrugType,
			a.DiseaseType,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
