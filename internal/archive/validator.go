// Package archive validates uploaded ZIP containers. Validation is purely
// structural: the container must parse and hold enough entries. Entry
// contents are never decompressed or inspected.
package archive

import (
	"archive/zip"

	"github.com/shrimpsizemoose/semla/internal/faults"
)

// Thresholds for the two upload call sites.
const (
	MinTaskEntries       = 5
	MinSubmissionEntries = 1
)

type Result struct {
	EntryCount int      `json:"file_count"`
	Entries    []string `json:"files"`
}

// Validate opens the archive at path and checks it holds at least minEntries
// entries. Fails with CorruptArchive when the container cannot be parsed and
// InsufficientContent when it is under-populated.
func Validate(path string, minEntries int) (*Result, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, faults.CorruptArchive(err)
	}
	defer reader.Close()

	if len(reader.File) < minEntries {
		return nil, faults.InsufficientContent(minEntries, len(reader.File))
	}

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}

	return &Result{
		EntryCount: len(names),
		Entries:    names,
	}, nil
}
