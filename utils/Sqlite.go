package utils

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/reaandrew/secsweep/core"
	log "github.com/sirupsen/logrus"
)

// PredefinedFieldsSlice contains the fields that always go in the
// Findings table as their own columns.
var PredefinedFieldsSlice = []string{"Name", "Type", "Severity", "Tool", "Target", "Path"}

// InitializeSQLiteDB opens (or creates) the SQLite report DB, replacing
// any previous file, and applies the schema plus bulk-insert PRAGMAs.
func InitializeSQLiteDB(dbPath string) (*sql.DB, error) {
	if err := DeleteDatabaseFileIfExists(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// WAL plus relaxed fsync is fine here: the DB is rebuilt per run.
	_, _ = db.Exec("PRAGMA journal_mode = WAL;")
	_, _ = db.Exec("PRAGMA synchronous = OFF;")

	createStmt := `CREATE TABLE IF NOT EXISTS Findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		Name TEXT,
		Type TEXT,
		Severity TEXT,
		Tool TEXT,
		Target TEXT,
		Path TEXT,
		Properties TEXT
	);
	CREATE TABLE IF NOT EXISTS Runs (
		RunID TEXT PRIMARY KEY,
		Data TEXT
	);`

	if _, err := db.Exec(createStmt); err != nil {
		return nil, fmt.Errorf("failed to create report tables: %w", err)
	}

	return db, nil
}

// OpenSQLiteDB opens an existing report DB without touching its contents.
func OpenSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	return db, nil
}

// InsertFindings writes a batch of findings inside a single transaction.
func InsertFindings(db *sql.DB, findings []core.Finding) (err error) {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if err != nil {
			_ = tx.Rollback()
		} else {
			_ = tx.Commit()
		}
	}()

	stmt, err := tx.Prepare(`
		INSERT INTO Findings (Name, Type, Severity, Tool, Target, Path, Properties)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for _, finding := range findings {
		finding.Properties = flattenProperties(finding.Properties)

		jsonProps, jErr := json.Marshal(finding.Properties)
		if jErr != nil {
			log.Warnf("Failed to marshal properties for finding '%s': %v", finding.Name, jErr)
			jsonProps = []byte("{}")
		}

		_, execErr := stmt.Exec(
			finding.Name,
			finding.Type,
			string(finding.Severity),
			finding.Tool,
			finding.Target,
			finding.Path,
			string(jsonProps),
		)
		if execErr != nil {
			return fmt.Errorf("failed to insert finding '%s': %w", finding.Name, execErr)
		}
	}

	return nil
}

// InsertRun stores the run header as a JSON document.
func InsertRun(db *sql.DB, run *core.Run) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO Runs (RunID, Data) VALUES (?, ?)`, run.ID, string(data)); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// LoadRun reads the stored run header back out of a report DB.
func LoadRun(db *sql.DB) (*core.Run, error) {
	row := db.QueryRow(`SELECT Data FROM Runs LIMIT 1`)

	var data string
	if err := row.Scan(&data); err != nil {
		return nil, fmt.Errorf("failed to load run from report DB: %w", err)
	}

	var run core.Run
	if err := json.Unmarshal([]byte(data), &run); err != nil {
		return nil, fmt.Errorf("failed to parse stored run: %w", err)
	}
	return &run, nil
}

// LoadFindings reads a page of findings ordered by insertion.
func LoadFindings(db *sql.DB, afterID int64, limit int) ([]core.Finding, int64, error) {
	rows, err := db.Query(`
		SELECT id, Name, Type, Severity, Tool, Target, Path, Properties
		FROM Findings WHERE id > ? ORDER BY id LIMIT ?`, afterID, limit)
	if err != nil {
		return nil, afterID, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var findings []core.Finding
	lastID := afterID
	for rows.Next() {
		var id int64
		var severity, props string
		var finding core.Finding
		if err := rows.Scan(&id, &finding.Name, &finding.Type, &severity, &finding.Tool, &finding.Target, &finding.Path, &props); err != nil {
			return nil, lastID, fmt.Errorf("failed to scan finding: %w", err)
		}
		finding.Severity = core.Severity(severity)
		if props != "" {
			if err := json.Unmarshal([]byte(props), &finding.Properties); err != nil {
				log.Warnf("Failed to parse properties for finding '%s': %v", finding.Name, err)
			}
		}
		findings = append(findings, finding)
		lastID = id
	}
	return findings, lastID, rows.Err()
}

// flattenProperties takes a potentially nested properties map, JSON-encodes
// the nested bits, and returns a top-level map of only strings and scalars.
func flattenProperties(properties map[string]interface{}) map[string]interface{} {
	flattened := make(map[string]interface{})
	for key, value := range properties {
		if isPredefinedField(key) {
			// Standard columns are stored top-level anyway
			continue
		}
		switch v := value.(type) {
		case map[string]interface{}:
			jsonBytes, err := json.Marshal(v)
			if err != nil {
				log.Warnf("Failed to marshal nested map for key '%s': %v", key, err)
				flattened[key] = nil
			} else {
				flattened[key] = string(jsonBytes)
			}
		default:
			flattened[key] = value
		}
	}
	return flattened
}

// isPredefinedField checks if the key is one of the top-level columns.
func isPredefinedField(key string) bool {
	for _, field := range PredefinedFieldsSlice {
		if strings.EqualFold(key, field) {
			return true
		}
	}
	return false
}
