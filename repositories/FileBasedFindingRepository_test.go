package repositories

import (
	"os"
	"path"
	"testing"

	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/utils"
	"github.com/stretchr/testify/assert"
)

func TestStoreWritesFindingsToFile(t *testing.T) {
	dir := t.TempDir()

	repository := FileBasedFindingRepository{path: dir}

	err := repository.Store([]core.Finding{{Name: "AWS Access Key"}})
	assert.Nil(t, err)
	count, err := utils.CountFiles(dir)
	assert.Nil(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreSkipsEmptyBatches(t *testing.T) {
	dir := t.TempDir()

	repository := FileBasedFindingRepository{path: dir}

	err := repository.Store(nil)
	assert.Nil(t, err)
	count, err := utils.CountFiles(dir)
	assert.Nil(t, err)
	assert.Equal(t, 0, count)
}

func TestClearRemovesAllFiles(t *testing.T) {
	dir := t.TempDir()

	repository := FileBasedFindingRepository{path: dir}

	err := repository.Store([]core.Finding{{Name: "AWS Access Key"}})
	assert.Nil(t, err)
	err = repository.Clear()
	assert.Nil(t, err)
	count, err := utils.CountFiles(dir)
	assert.Nil(t, err)
	assert.Equal(t, 0, count)
}

func TestClearOnlyDeletesFilesItCreated(t *testing.T) {
	dir := t.TempDir()

	repository := FileBasedFindingRepository{path: dir}
	otherFile := path.Join(dir, utils.GenerateRandomFilename("other"))
	err := os.WriteFile(otherFile, []byte("something"), 0644)
	assert.Nil(t, err)

	err = repository.Store([]core.Finding{{Name: "AWS Access Key"}})
	assert.Nil(t, err)
	countBefore, err := utils.CountFiles(dir)
	assert.Nil(t, err)
	assert.Equal(t, 2, countBefore)

	err = repository.Clear()
	assert.Nil(t, err)
	countAfter, err := utils.CountFiles(dir)
	assert.Nil(t, err)
	assert.Equal(t, 1, countAfter)
}

func TestIteratorReturnsBatchesInStoreOrder(t *testing.T) {
	dir := t.TempDir()

	repository := FileBasedFindingRepository{path: dir}

	err := repository.Store([]core.Finding{{Name: "finding 1"}, {Name: "finding 2"}})
	assert.Nil(t, err)
	err = repository.Store([]core.Finding{{Name: "finding 3"}, {Name: "finding 4"}})
	assert.Nil(t, err)

	var names []string
	iterator := repository.NewIterator()
	for iterator.HasNext() {
		set, err := iterator.Next()
		assert.Nil(t, err)
		for _, finding := range set.Findings {
			names = append(names, finding.Name)
		}
	}

	assert.Equal(t, []string{"finding 1", "finding 2", "finding 3", "finding 4"}, names)
}

func TestIteratorResetStartsOver(t *testing.T) {
	dir := t.TempDir()

	repository := FileBasedFindingRepository{path: dir}
	err := repository.Store([]core.Finding{{Name: "finding 1"}})
	assert.Nil(t, err)

	iterator := repository.NewIterator()
	assert.True(t, iterator.HasNext())
	_, err = iterator.Next()
	assert.Nil(t, err)
	assert.False(t, iterator.HasNext())

	assert.Nil(t, iterator.Reset())
	assert.True(t, iterator.HasNext())
}

func TestCloseRemovesOwnedSpoolDir(t *testing.T) {
	repo, err := NewFileBasedFindingRepository()
	assert.Nil(t, err)

	err = repo.Store([]core.Finding{{Name: "finding 1"}})
	assert.Nil(t, err)

	concrete := repo.(*FileBasedFindingRepository)
	assert.Nil(t, repo.Close())
	_, statErr := os.Stat(concrete.path)
	assert.True(t, os.IsNotExist(statErr))
}
