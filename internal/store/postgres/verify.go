package postgres

import (
	"context"
	"fmt"
)

// Report describes what the catalog table looks like from this connection.
type Report struct {
	Connected     bool     `json:"connected"`
	TableExists   bool     `json:"tableExists"`
	ColumnCount   int      `json:"columnCount"`
	RowCount      int64    `json:"rowCount"`
	SampleColumns []string `json:"sampleColumns"`
}

// ExpectedColumns are the catalog columns curio reads.
var ExpectedColumns = []string{
	"id", "title", "url", "author", "source", "publisher", "topics",
	"tag_categories", "tag_subcategories", "key_takeaways", "difficulty",
	"content_type", "rating", "date_added",
}

// MissingColumns returns the expected columns absent from the report.
func (r Report) MissingColumns() []string {
	have := make(map[string]bool, len(r.SampleColumns))
	for _, c := range r.SampleColumns {
		have[c] = true
	}
	var missing []string
	for _, c := range ExpectedColumns {
		if !have[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

// Verify checks connectivity and the shape of the catalog table. A missing
// table is reported, not returned as an error.
func (r *Reader) Verify(ctx context.Context) (Report, error) {
	var rep Report
	if err := r.db.Ping(ctx); err != nil {
		return rep, fmt.Errorf("failed to ping DB: %w", err)
	}
	rep.Connected = true

	rows, err := r.db.Query(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`, TableResources)
	if err != nil {
		return rep, fmt.Errorf("failed to list columns: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return rep, fmt.Errorf("failed to scan column: %w", err)
		}
		rep.SampleColumns = append(rep.SampleColumns, name)
	}
	if err := rows.Err(); err != nil {
		return rep, fmt.Errorf("failed to read columns: %w", err)
	}
	rep.ColumnCount = len(rep.SampleColumns)
	rep.TableExists = rep.ColumnCount > 0
	if !rep.TableExists {
		return rep, nil
	}

	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM `+TableResources).Scan(&rep.RowCount); err != nil {
		if isUnavailable(err) {
			return rep, nil
		}
		return rep, fmt.Errorf("failed to count rows: %w", err)
	}
	return rep, nil
}
