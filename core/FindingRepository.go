package core

// FindingSet is one batch of findings as stored by a repository.
type FindingSet struct {
	Findings []Finding `json:"findings"`
}

// FindingRepository accumulates findings during a run and hands them back
// to reporters in batches.
type FindingRepository interface {
	Store(findings []Finding) error
	Clear() error
	NewIterator() FindingIterator
	Close() error
}

type FindingIterator interface {
	HasNext() bool
	Next() (FindingSet, error)
	Reset() error
}
