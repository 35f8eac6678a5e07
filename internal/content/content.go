package content

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when an item or recipe id is unknown
var ErrNotFound = errors.New("content not found")

// DB is the SQLite-backed content registry shared by asset registration and
// patch steps
type DB struct {
	db *sql.DB
}

// Item is a registered content item. Props carries the item's free-form
// properties as decoded from its asset file.
type Item struct {
	ID        string
	Category  string
	ParentID  string
	Name      string
	Props     map[string]interface{}
	Source    string
	UpdatedAt time.Time
}

// Recipe is a registered crafting recipe
type Recipe struct {
	ID             string   `json:"id"`
	Area           string   `json:"area"`
	EndProduct     string   `json:"end_product"`
	Count          int      `json:"count"`
	ProductionTime int      `json:"production_time"`
	Requirements   []string `json:"requirements"`
	Source         string   `json:"source"`
}

// NewContentDB opens (or creates) the database and initializes schema
func NewContentDB(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	// _loc=auto enables automatic DATETIME parsing
	db, err := sql.Open("sqlite3", "file:"+dbPath+"?_loc=auto")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	// Exec instead of Ping so the file is created up front
	if _, err = db.Exec("SELECT 1"); err != nil {
		return nil, fmt.Errorf("failed to initialize database (check permissions on %s): %w", dbPath, err)
	}

	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if _, err = db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		return nil, fmt.Errorf("failed to set synchronous mode: %w", err)
	}

	cdb := &DB{db: db}
	if err = cdb.initSchema(); err != nil {
		return nil, err
	}

	return cdb, nil
}

// initSchema creates tables and indexes if they don't exist
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL,
		parent_id TEXT,
		name TEXT,
		props TEXT NOT NULL DEFAULT '{}',
		source TEXT,
		updated_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_category ON items(category);
	CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent_id);

	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		area TEXT,
		end_product TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 1,
		production_time INTEGER NOT NULL DEFAULT 0,
		requirements TEXT NOT NULL DEFAULT '[]',
		source TEXT
	);

	CREATE TABLE IF NOT EXISTS slot_filters (
		item_id TEXT NOT NULL,
		slot TEXT NOT NULL,
		allowed_id TEXT NOT NULL,
		PRIMARY KEY (item_id, slot, allowed_id)
	);

	CREATE TABLE IF NOT EXISTS registrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		rel_path TEXT NOT NULL,
		count INTEGER NOT NULL,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_registrations_run ON registrations(run_id);
	CREATE INDEX IF NOT EXISTS idx_registrations_timestamp ON registrations(timestamp);

	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := d.db.Exec(schema)
	return err
}

// UpsertItem inserts or replaces an item by id
func (d *DB) UpsertItem(item Item) error {
	props, err := encodeProps(item.Props)
	if err != nil {
		return fmt.Errorf("item %s: %w", item.ID, err)
	}

	_, err = d.db.Exec(`
	INSERT INTO items (id, category, parent_id, name, props, source, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		category = excluded.category,
		parent_id = excluded.parent_id,
		name = excluded.name,
		props = excluded.props,
		source = excluded.source,
		updated_at = excluded.updated_at
	`, item.ID, item.Category, item.ParentID, item.Name, props, item.Source, time.Now())
	return err
}

// GetItem returns a single item or ErrNotFound
func (d *DB) GetItem(id string) (Item, error) {
	items, err := d.queryItems(`SELECT id, category, parent_id, name, props, source, updated_at FROM items WHERE id = ?`, id)
	if err != nil {
		return Item{}, err
	}
	if len(items) == 0 {
		return Item{}, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return items[0], nil
}

// ItemsByCategory returns all items of a category ordered by id
func (d *DB) ItemsByCategory(category string) ([]Item, error) {
	return d.queryItems(`SELECT id, category, parent_id, name, props, source, updated_at FROM items WHERE category = ? ORDER BY id`, category)
}

// AllItems returns every registered item ordered by id
func (d *DB) AllItems() ([]Item, error) {
	return d.queryItems(`SELECT id, category, parent_id, name, props, source, updated_at FROM items ORDER BY id`)
}

// UpdateProps replaces an item's properties
func (d *DB) UpdateProps(id string, props map[string]interface{}) error {
	encoded, err := encodeProps(props)
	if err != nil {
		return fmt.Errorf("item %s: %w", id, err)
	}
	res, err := d.db.Exec(`UPDATE items SET props = ?, updated_at = ? WHERE id = ?`, encoded, time.Now(), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return nil
}

// AddSlotFilter allows allowedID in the given slot of itemID. Adding an
// existing entry is a no-op.
func (d *DB) AddSlotFilter(itemID, slot, allowedID string) error {
	_, err := d.db.Exec(`INSERT OR IGNORE INTO slot_filters (item_id, slot, allowed_id) VALUES (?, ?, ?)`, itemID, slot, allowedID)
	return err
}

// SlotFilter returns the ids allowed in a slot, sorted
func (d *DB) SlotFilter(itemID, slot string) ([]string, error) {
	rows, err := d.db.Query(`SELECT allowed_id FROM slot_filters WHERE item_id = ? AND slot = ? ORDER BY allowed_id`, itemID, slot)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpsertRecipe inserts or replaces a recipe by id
func (d *DB) UpsertRecipe(r Recipe) error {
	reqs, err := json.Marshal(r.Requirements)
	if err != nil {
		return fmt.Errorf("recipe %s: %w", r.ID, err)
	}
	if r.Requirements == nil {
		reqs = []byte("[]")
	}

	_, err = d.db.Exec(`
	INSERT INTO recipes (id, area, end_product, count, production_time, requirements, source)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		area = excluded.area,
		end_product = excluded.end_product,
		count = excluded.count,
		production_time = excluded.production_time,
		requirements = excluded.requirements,
		source = excluded.source
	`, r.ID, r.Area, r.EndProduct, r.Count, r.ProductionTime, string(reqs), r.Source)
	return err
}

// Recipes returns every registered recipe ordered by id
func (d *DB) Recipes() ([]Recipe, error) {
	rows, err := d.db.Query(`SELECT id, area, end_product, count, production_time, requirements, source FROM recipes ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []Recipe
	for rows.Next() {
		var r Recipe
		var area, source sql.NullString
		var reqs string
		if err := rows.Scan(&r.ID, &area, &r.EndProduct, &r.Count, &r.ProductionTime, &reqs, &source); err != nil {
			return nil, err
		}
		r.Area = area.String
		r.Source = source.String
		if err := json.Unmarshal([]byte(reqs), &r.Requirements); err != nil {
			return nil, fmt.Errorf("recipe %s requirements: %w", r.ID, err)
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// RecordRegistration appends one registration call to the audit log
func (d *DB) RecordRegistration(runID, kind, relPath string, count int) error {
	_, err := d.db.Exec(
		`INSERT INTO registrations (run_id, kind, rel_path, count, timestamp) VALUES (?, ?, ?, ?, ?)`,
		runID, kind, relPath, count, time.Now(),
	)
	return err
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

// Vacuum optimizes the database
func (d *DB) Vacuum() error {
	_, err := d.db.Exec("VACUUM")
	return err
}

func (d *DB) queryItems(query string, args ...interface{}) ([]Item, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		var parent, name, source sql.NullString
		var props string
		if err := rows.Scan(&it.ID, &it.Category, &parent, &name, &props, &source, &it.UpdatedAt); err != nil {
			return nil, err
		}
		it.ParentID = parent.String
		it.Name = name.String
		it.Source = source.String
		if err := json.Unmarshal([]byte(props), &it.Props); err != nil {
			return nil, fmt.Errorf("item %s props: %w", it.ID, err)
		}
		if it.Props == nil {
			it.Props = map[string]interface{}{}
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func encodeProps(props map[string]interface{}) (string, error) {
	if props == nil {
		return "{}", nil
	}
	data, err := json.Marshal(props)
	if err != nil {
		return "", fmt.Errorf("encode props: %w", err)
	}
	return string(data), nil
}
