package utils

import (
	"fmt"

	"github.com/reaandrew/secsweep/core"
)

// MockFindingRepository is an in-memory core.FindingRepository for tests.
type MockFindingRepository struct {
	Findings []core.Finding
}

func (m *MockFindingRepository) Store(findings []core.Finding) error {
	m.Findings = append(m.Findings, findings...)
	return nil
}

func (m *MockFindingRepository) Clear() error {
	m.Findings = nil
	return nil
}

func (m *MockFindingRepository) NewIterator() core.FindingIterator {
	// Copy so mutation during iteration cannot corrupt the repository
	copied := make([]core.Finding, len(m.Findings))
	copy(copied, m.Findings)

	return &MockFindingIterator{
		position: 0,
		sets:     []core.FindingSet{{Findings: copied}},
	}
}

func (m *MockFindingRepository) Close() error {
	return nil
}

// MockFindingIterator walks the single batch held by the mock.
type MockFindingIterator struct {
	position int
	sets     []core.FindingSet
}

func (m *MockFindingIterator) Reset() error {
	m.position = 0
	return nil
}

func (m *MockFindingIterator) HasNext() bool {
	return m.position < len(m.sets)
}

func (m *MockFindingIterator) Next() (core.FindingSet, error) {
	if !m.HasNext() {
		return core.FindingSet{}, fmt.Errorf("no more findings")
	}
	set := m.sets[m.position]
	m.position++
	return set, nil
}
