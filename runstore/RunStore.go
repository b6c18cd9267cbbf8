// Package runstore keeps a compact history of completed runs in a bbolt
// database under the user cache directory so the history command can
// list past scans without their full reports.
package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/markusmobius/go-dateparser"
	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/utils"
	"go.etcd.io/bbolt"
)

const runsBucket = "Runs"

// RunSummary is the history record of one completed run.
type RunSummary struct {
	ID         string                `json:"id"`
	StartedAt  time.Time             `json:"started_at"`
	FinishedAt time.Time             `json:"finished_at"`
	Targets    []string              `json:"targets"`
	Tools      []string              `json:"tools"`
	Findings   int                   `json:"findings"`
	BySeverity map[core.Severity]int `json:"by_severity,omitempty"`
	ReportPath string                `json:"report_path,omitempty"`
}

// Summarize condenses a finished run into its history record.
func Summarize(run *core.Run, reportPath string) RunSummary {
	summary := RunSummary{
		ID:         run.ID,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Tools:      run.Tools,
		Findings:   run.Summary.Findings,
		BySeverity: run.Summary.BySeverity,
		ReportPath: reportPath,
	}
	for _, target := range run.Targets {
		summary.Targets = append(summary.Targets, target.Raw)
	}
	return summary
}

// Store persists run summaries.
type Store struct {
	db *bbolt.DB
}

// DefaultPath returns the history database file under the user cache
// directory (~/.secsweep_cache/runs.db).
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	cacheDir := filepath.Join(homeDir, utils.CacheDirName)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "runs.db"), nil
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0666, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open run store %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save records one run summary, replacing any record with the same ID.
func (s *Store) Save(summary RunSummary) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(runsBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		data, err := json.Marshal(summary)
		if err != nil {
			return err
		}
		return b.Put([]byte(summary.ID), data)
	})
}

// List returns run summaries started at or after since (zero time means
// all), most recent first.
func (s *Store) List(since time.Time) ([]RunSummary, error) {
	var summaries []RunSummary
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(runsBucket))
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var summary RunSummary
			if err := json.Unmarshal(v, &summary); err != nil {
				return err
			}
			if !since.IsZero() && summary.StartedAt.Before(since) {
				return nil
			}
			summaries = append(summaries, summary)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].StartedAt.After(summaries[j].StartedAt)
	})
	return summaries, nil
}

// ParseSince turns a natural-language or absolute date string into a
// cutoff time. An empty string means no cutoff.
func ParseSince(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	parsed, err := dateparser.Parse(nil, value)
	if err != nil {
		return time.Time{}, core.NewConfigError("could not parse date %q: %v", value, err)
	}
	return parsed.Time, nil
}
