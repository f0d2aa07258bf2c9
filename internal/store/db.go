package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
)

type Store struct {
	db *sql.DB
}

func NewStore(connStr string) (*Store, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) RunMigrations(schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

func clampLimit(limit int, defaultLimit, maxLimit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

type Approval struct {
	ID             int        `json:"id"`
	DrugName       string     `json:"drug_name"`
	GenericName    string     `json:"generic_name"`
	Administration string     `json:"administration"`
	Description    string     `json:"description"`
	ApprovalDate   time.Time  `json:"approval_date"`
	Company        string     `json:"company"`
	CompanyRaw     string     `json:"company_raw,omitempty"`
	Treatment      string     `json:"treatment"`
	DrugType       string     `json:"drug_type"`
	DiseaseType    string     `json:"disease_type"`
	DetailURL      string     `json:"detail_url,omitempty"`
	Year           int        `json:"year"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

type CompanyCount struct {
	Company   string `json:"company"`
	Approvals int    `json:"approvals"`
}

// SaveApproval upserts one approval, keyed by drug name and approval date.
// Re-scraping a year refreshes descriptions and classifications in place.
func (s *Store) SaveApproval(ctx context.Context, a Approval) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO approvals (drug_name, generic_name, administration, description, approval_date, company, company_raw, treatment, drug_type, disease_type, detail_url, year, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW())
ON CONFLICT (drug_name, approval_date) DO UPDATE SET
    generic_name = EXCLUDED.generic_name,
    administration = EXCLUDED.administration,
    description = EXCLUDED.description,
    company = EXCLUDED.company,
    company_raw = EXCLUDED.company_raw,
    treatment = EXCLUDED.treatment,
    drug_type = EXCLUDED.drug_type,
    disease_type = EXCLUDED.disease_type,
    detail_url = EXCLUDED.detail_url,
    year = EXCLUDED.year,
    updated_at = NOW()
`, a.DrugName, a.GenericName, a.Administration, a.Description, a.ApprovalDate, a.Company, a.CompanyRaw, a.Treatment, a.DrugType, a.DiseaseType, a.DetailURL, a.Year)
	return err
}

// GetApprovals lists approvals newest first. A zero year means all years.
func (s *Store) GetApprovals(ctx context.Context, limit, offset, year int) ([]Approval, error) {
	limit = clampLimit(limit, 20, 200)
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, drug_name, generic_name, administration, description, approval_date, company, company_raw, treatment, drug_type, disease_type, detail_url, year, created_at, updated_at
FROM approvals
WHERE ($3 = 0 OR year = $3)
ORDER BY approval_date DESC, drug_name ASC
LIMIT $1 OFFSET $2
`, limit, offset, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApprovals(rows)
}

// AllApprovals returns every stored approval newest first, for export.
// A zero year means all years.
func (s *Store) AllApprovals(ctx context.Context, year int) ([]Approval, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, drug_name, generic_name, administration, description, approval_date, company, company_raw, treatment, drug_type, disease_type, detail_url, year, created_at, updated_at
FROM approvals
WHERE ($1 = 0 OR year = $1)
ORDER BY approval_date DESC, drug_name ASC
`, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanApprovals(rows)
}

func scanApprovals(rows *sql.Rows) ([]Approval, error) {
	var approvals []Approval
	for rows.Next() {
		var (
			a         Approval
			updatedAt sql.NullTime
		)
		if err := rows.Scan(
			&a.ID,
			&a.DrugName,
			&a.GenericName,
			&a.Administration,
			&a.Description,
			&a.ApprovalDate,
			&a.Company,
			&a.CompanyRaw,
			&a.Treatment,
			&a.DrugType,
			&a.DiseaseType,
			&a.DetailURL,
			&a.Year,
			&a.CreatedAt,
			&updatedAt,
		); err != nil {
			return nil, err
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			a.UpdatedAt = &t
		}
		approvals = append(approvals, a)
	}
	return approvals, rows.Err()
}

// MostRecentApproval returns the newest stored approval, or nil when the
// table is empty. Ingestion stops scraping once it sees this row again.
func (s *Store) MostRecentApproval(ctx context.Context) (*Approval, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, drug_name, generic_name, administration, description, approval_date, company, company_raw, treatment, drug_type, disease_type, detail_url, year, created_at, updated_at
FROM approvals
ORDER BY approval_date DESC, id DESC
LIMIT 1
`)

	var (
		a         Approval
		updatedAt sql.NullTime
	)
	err := row.Scan(
		&a.ID,
		&a.DrugName,
		&a.GenericName,
		&a.Administration,
		&a.Description,
		&a.ApprovalDate,
		&a.Company,
		&a.CompanyRaw,
		&a.Treatment,
		&a.DrugType,
		&a.DiseaseType,
		&a.DetailURL,
		&a.Year,
		&a.CreatedAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		a.UpdatedAt = &t
	}
	return &a, nil
}

// CountByCompany aggregates approvals per canonical company, most prolific
// first.
func (s *Store) CountByCompany(ctx context.Context, limit int) ([]CompanyCount, error) {
	limit = clampLimit(limit, 50, 500)

	rows, err := s.db.QueryContext(ctx, `
SELECT company, COUNT(*) AS approvals
FROM approvals
WHERE company <> ''
GROUP BY company
ORDER BY approvals DESC, company ASC
LIMIT $1
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []CompanyCount
	for rows.Next() {
		var c CompanyCount
		if err := rows.Scan(&c.Company, &c.Approvals); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// CountApprovals returns the total number of stored approvals.
func (s *Store) CountApprovals(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM approvals`).Scan(&count)
	return count, err
}
