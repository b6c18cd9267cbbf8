package scanners

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-enry/go-enry/v2"
	"github.com/reaandrew/secsweep/core"
	"github.com/reaandrew/secsweep/utils"
	log "github.com/sirupsen/logrus"
)

// languageSampleSize bounds how much of each file is read for language
// detection. enry only needs the head of the file.
const languageSampleSize = 8 * 1024

// CollectInventory builds the per-target report header: file count,
// language histogram and, for git working trees, a commit summary.
// Paths matched by excluded are left out of the counts.
func CollectInventory(target ResolvedTarget, excluded func(string) bool) core.TargetInfo {
	info := core.TargetInfo{Raw: target.Raw, Kind: target.Kind, LocalPath: target.LocalPath}
	if target.CloneErr != nil {
		info.CloneError = target.CloneErr.Error()
		return info
	}
	if target.LocalPath == "" {
		return info
	}

	languages := make(map[string]int)
	err := filepath.WalkDir(target.LocalPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Debugf("Skipping %q during inventory: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		relative, relErr := filepath.Rel(target.LocalPath, path)
		if relErr != nil {
			relative = path
		}
		if excluded != nil && excluded(relative) {
			return nil
		}

		info.Files++
		if language := detectLanguage(path); language != "" {
			languages[language]++
		}
		return nil
	})
	if err != nil {
		log.Warnf("Inventory walk of %q failed: %v", target.LocalPath, err)
	}
	if len(languages) > 0 {
		info.Languages = languages
	}

	if stats, err := utils.CollectRepoStats(target.LocalPath); err == nil {
		info.Commits = stats.Commits
		info.Contributors = stats.Contributors
		if !stats.LastCommit.IsZero() {
			info.LastCommit = stats.LastCommit.UTC().Format(time.RFC3339)
		}
	}

	return info
}

func detectLanguage(path string) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	sample := make([]byte, languageSampleSize)
	n, err := file.Read(sample)
	if err != nil && err != io.EOF {
		return ""
	}
	return enry.GetLanguage(filepath.Base(path), sample[:n])
}
