package repositories

import (
	"database/sql"
	"fmt"

	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/utils"
)

const sqliteBatchSize = 500

// SqliteFindingRepository implements core.FindingRepository on top of a
// report database, so a previous run's findings can be re-rendered
// without re-scanning.
type SqliteFindingRepository struct {
	db *sql.DB
}

// NewSqliteFindingRepository creates a fresh report DB at dbPath,
// replacing any existing file.
func NewSqliteFindingRepository(dbPath string) (*SqliteFindingRepository, error) {
	db, err := utils.InitializeSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &SqliteFindingRepository{db: db}, nil
}

// OpenSqliteFindingRepository opens an existing report DB read-write
// without clearing it.
func OpenSqliteFindingRepository(dbPath string) (*SqliteFindingRepository, error) {
	db, err := utils.OpenSQLiteDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &SqliteFindingRepository{db: db}, nil
}

func (r *SqliteFindingRepository) Store(findings []core.Finding) error {
	return utils.InsertFindings(r.db, findings)
}

func (r *SqliteFindingRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM Findings`); err != nil {
		return fmt.Errorf("failed to clear findings: %w", err)
	}
	return nil
}

func (r *SqliteFindingRepository) NewIterator() core.FindingIterator {
	return &sqliteFindingIterator{repository: r}
}

func (r *SqliteFindingRepository) Close() error {
	return r.db.Close()
}

// StoreRun persists the run header alongside the findings.
func (r *SqliteFindingRepository) StoreRun(run *core.Run) error {
	return utils.InsertRun(r.db, run)
}

// LoadRun reads the run header stored by a previous scan.
func (r *SqliteFindingRepository) LoadRun() (*core.Run, error) {
	return utils.LoadRun(r.db)
}

// sqliteFindingIterator pages through findings in insertion order.
type sqliteFindingIterator struct {
	repository *SqliteFindingRepository
	afterID    int64
	pending    *core.FindingSet
	done       bool
}

func (it *sqliteFindingIterator) HasNext() bool {
	if it.pending != nil {
		return true
	}
	if it.done {
		return false
	}

	findings, lastID, err := utils.LoadFindings(it.repository.db, it.afterID, sqliteBatchSize)
	if err != nil || len(findings) == 0 {
		it.done = true
		return false
	}
	it.afterID = lastID
	it.pending = &core.FindingSet{Findings: findings}
	return true
}

func (it *sqliteFindingIterator) Next() (core.FindingSet, error) {
	if !it.HasNext() {
		return core.FindingSet{}, fmt.Errorf("no more findings available")
	}
	set := *it.pending
	it.pending = nil
	return set, nil
}

func (it *sqliteFindingIterator) Reset() error {
	it.afterID = 0
	it.pending = nil
	it.done = false
	return nil
}
