package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/utils"
	log "github.com/sirupsen/logrus"
)

// FileBasedFindingRepository spools finding batches to uuid-named JSON
// files so a large run never has to hold every finding in memory.
type FileBasedFindingRepository struct {
	path    string
	files   []string
	ownsDir bool
}

func NewFileBasedFindingRepository() (core.FindingRepository, error) {
	dir, err := os.MkdirTemp("", "secsweep-findings-")
	if err != nil {
		return nil, fmt.Errorf("failed to create findings spool dir: %w", err)
	}
	return &FileBasedFindingRepository{
		path:    dir,
		files:   make([]string, 0),
		ownsDir: true,
	}, nil
}

func (r *FileBasedFindingRepository) Store(findings []core.Finding) error {
	if len(findings) == 0 {
		return nil
	}

	jsonData, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return err
	}

	filePath := path.Join(r.path, utils.GenerateRandomFilename("json"))
	r.files = append(r.files, filePath)
	return os.WriteFile(filePath, jsonData, 0644)
}

// Clear removes only the batch files this repository created.
func (r *FileBasedFindingRepository) Clear() error {
	for _, filePath := range r.files {
		if err := os.Remove(filePath); err != nil {
			return err
		}
	}
	r.files = nil
	return nil
}

func (r *FileBasedFindingRepository) Close() error {
	if err := r.Clear(); err != nil {
		return err
	}
	if r.ownsDir {
		return os.RemoveAll(r.path)
	}
	return nil
}

func (r *FileBasedFindingRepository) NewIterator() core.FindingIterator {
	return &fileBasedFindingIterator{repository: r}
}

// fileBasedFindingIterator loads one batch file per Next call.
type fileBasedFindingIterator struct {
	repository  *FileBasedFindingRepository
	currentFile int
	pending     *core.FindingSet
}

// HasNext loads batch files until one parses or all are exhausted.
func (it *fileBasedFindingIterator) HasNext() bool {
	if it.pending != nil {
		return true
	}
	for it.currentFile < len(it.repository.files) {
		set, err := it.loadFile(it.repository.files[it.currentFile])
		it.currentFile++
		if err != nil {
			log.Warnf("Error loading findings batch: %v", err)
			continue
		}
		it.pending = &set
		return true
	}
	return false
}

func (it *fileBasedFindingIterator) Next() (core.FindingSet, error) {
	if !it.HasNext() {
		return core.FindingSet{}, fmt.Errorf("no more findings available")
	}
	set := *it.pending
	it.pending = nil
	return set, nil
}

func (it *fileBasedFindingIterator) Reset() error {
	it.currentFile = 0
	it.pending = nil
	return nil
}

func (it *fileBasedFindingIterator) loadFile(filePath string) (core.FindingSet, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return core.FindingSet{}, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	var findings []core.Finding
	if err := json.Unmarshal(data, &findings); err != nil {
		return core.FindingSet{}, fmt.Errorf("failed to parse JSON in file %s: %w", filePath, err)
	}
	return core.FindingSet{Findings: findings}, nil
}
