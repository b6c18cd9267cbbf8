package utils

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

func Contains[T comparable](slice []T, element T) bool {
	for _, v := range slice {
		if v == element {
			return true
		}
	}
	return false
}

// GenerateRandomFilename returns a uuid-based filename with the given
// extension, used for temp artifacts that must not collide.
func GenerateRandomFilename(extension string) string {
	id := uuid.New()
	return fmt.Sprintf("%s.%s", id.String(), extension)
}

func CountFiles(dirPath string) (int, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			count++
		}
	}
	return count, nil
}

// Sanitize turns a URL or path into something safe for a filename.
func Sanitize(name string) string {
	s := name
	s = strings.ReplaceAll(s, "https://", "")
	s = strings.ReplaceAll(s, "http://", "")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, ":", "_")
	s = strings.ToLower(s)
	return s
}
