package content

import (
	"database/sql"
	"time"
)

// RegistrationRecord is one row of the registration audit log
type RegistrationRecord struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	RelPath   string    `json:"rel_path"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// ContentStats summarizes what is currently registered
type ContentStats struct {
	TotalItems      int64            `json:"total_items"`
	TotalRecipes    int64            `json:"total_recipes"`
	TotalFilters    int64            `json:"total_filters"`
	ItemsByCategory map[string]int64 `json:"items_by_category"`
	Runs            int64            `json:"runs"`
	LastRun         *time.Time       `json:"last_run,omitempty"`
}

// GetRecentRegistrations returns the N most recent registration calls
func (d *DB) GetRecentRegistrations(limit int) ([]RegistrationRecord, error) {
	return d.queryRegistrations(`
	SELECT id, run_id, kind, rel_path, count, timestamp
	FROM registrations
	ORDER BY id DESC
	LIMIT ?
	`, limit)
}

// GetRegistrationsByRun returns the registration calls of one run, in call order
func (d *DB) GetRegistrationsByRun(runID string) ([]RegistrationRecord, error) {
	return d.queryRegistrations(`
	SELECT id, run_id, kind, rel_path, count, timestamp
	FROM registrations
	WHERE run_id = ?
	ORDER BY id ASC
	`, runID)
}

// GetContentStats returns aggregate counts over the registry
func (d *DB) GetContentStats() (*ContentStats, error) {
	stats := &ContentStats{ItemsByCategory: make(map[string]int64)}

	if err := d.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&stats.TotalItems); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM recipes").Scan(&stats.TotalRecipes); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow("SELECT COUNT(*) FROM slot_filters").Scan(&stats.TotalFilters); err != nil {
		return nil, err
	}
	if err := d.db.QueryRow("SELECT COUNT(DISTINCT run_id) FROM registrations").Scan(&stats.Runs); err != nil {
		return nil, err
	}

	rows, err := d.db.Query("SELECT category, COUNT(*) FROM items GROUP BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var category string
		var count int64
		if err := rows.Scan(&category, &count); err != nil {
			return nil, err
		}
		stats.ItemsByCategory[category] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var last sql.NullTime
	err = d.db.QueryRow("SELECT timestamp FROM registrations ORDER BY id DESC LIMIT 1").Scan(&last)
	if err != nil && err != sql.ErrNoRows {
		return nil, err
	}
	if last.Valid {
		stats.LastRun = &last.Time
	}

	return stats, nil
}

func (d *DB) queryRegistrations(query string, args ...interface{}) ([]RegistrationRecord, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []RegistrationRecord
	for rows.Next() {
		var r RegistrationRecord
		if err := rows.Scan(&r.ID, &r.RunID, &r.Kind, &r.RelPath, &r.Count, &r.Timestamp); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}
