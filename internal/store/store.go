// Package store handles persistent local storage using SQLite: the backing
// table for the freshness cache and the persisted user settings.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"
)

// legacySettingsKey is the old name of the experimental shading toggle,
// renamed into morningShading on load
const legacySettingsKey = "experimentalShading"

// Settings are the persisted user preferences. JSON field names match the
// historical on-disk layout.
type Settings struct {
	AzimuthDeg      float64 `json:"azimut"` // compass convention, 0-360
	TiltDeg         float64 `json:"angle"`
	CapacityKw      float64 `json:"kwh"`
	MinQualifyingWh float64 `json:"minKwh"`
	MorningShading  bool    `json:"morningShading"`
	ShadingEndHour  int     `json:"shadingEndTime"`
}

// DefaultSettings returns the settings used before the user saves any
func DefaultSettings() Settings {
	return Settings{
		AzimuthDeg:      180, // south-facing
		TiltDeg:         45,
		CapacityKw:      5,
		MinQualifyingWh: 500,
		MorningShading:  false,
		ShadingEndHour:  10,
	}
}

// Store handles persistent storage using SQLite
type Store struct {
	db *sql.DB
}

// NewStore creates a new store and initializes the database
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// initialize creates the database schema
func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cache (
		namespace TEXT PRIMARY KEY,
		entry TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		data TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Get retrieves the raw cache entry for a namespace
func (s *Store) Get(namespace string) (string, bool, error) {
	var entry string
	err := s.db.QueryRow(`SELECT entry FROM cache WHERE namespace = ?`, namespace).Scan(&entry)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry, true, nil
}

// Set stores the raw cache entry for a namespace, overwriting any prior one
func (s *Store) Set(namespace, entry string) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO cache (namespace, entry) VALUES (?, ?)`,
		namespace, entry)
	return err
}

// Delete removes the cache entry for a namespace
func (s *Store) Delete(namespace string) error {
	_, err := s.db.Exec(`DELETE FROM cache WHERE namespace = ?`, namespace)
	return err
}

// Clear removes all cache entries. Settings are unaffected.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM cache`)
	return err
}

// LoadSettings retrieves the persisted settings merged over defaults. A
// legacy boolean field is renamed into morningShading if present under its
// old name. Missing or corrupt rows yield the defaults.
func (s *Store) LoadSettings() Settings {
	settings := DefaultSettings()

	var data string
	err := s.db.QueryRow(`SELECT data FROM settings WHERE id = 1`).Scan(&data)
	if err != nil {
		return settings
	}

	migrated, err := migrateSettings([]byte(data))
	if err != nil {
		return settings
	}

	if err := json.Unmarshal(migrated, &settings); err != nil {
		return DefaultSettings()
	}
	return settings
}

// SaveSettings persists the settings
func (s *Store) SaveSettings(settings Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	_, err = s.db.Exec(`INSERT OR REPLACE INTO settings (id, data) VALUES (1, ?)`, string(data))
	return err
}

// migrateSettings renames the legacy shading toggle into morningShading and
// drops the old field
func migrateSettings(data []byte) ([]byte, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}

	if legacy, ok := fields[legacySettingsKey]; ok {
		if _, exists := fields["morningShading"]; !exists {
			fields["morningShading"] = legacy
		}
		delete(fields, legacySettingsKey)
	}

	return json.Marshal(fields)
}
