package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var partNamePattern = regexp.MustCompile(`\.part(\d{2})$`)

func partName(base string, index int) string {
	return fmt.Sprintf("%s.part%02d", base, index)
}

// IsPartFile reports whether path follows the .partNN naming convention.
func IsPartFile(path string) bool {
	return partNamePattern.MatchString(path)
}

// SplitFile divides the file at path into parts contiguous byte ranges named
// <path>.part01 through <path>.partNN and deletes the original on success.
// Concatenating the parts in index order reproduces the original file.
func SplitFile(path string, parts int) ([]string, error) {
	if parts < 2 {
		return nil, fmt.Errorf("split %q: part count must be at least 2, got %d", path, parts)
	}
	if parts > 99 {
		return nil, fmt.Errorf("split %q: part count must be at most 99, got %d", path, parts)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", path, err)
	}
	partSize := (info.Size() + int64(parts) - 1) / int64(parts)

	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("split %q: %w", path, err)
	}
	defer in.Close()

	written := make([]string, 0, parts)
	cleanup := func() {
		for _, part := range written {
			os.Remove(part)
		}
	}

	for index := 1; index <= parts; index++ {
		target := partName(path, index)
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("split %q: %w", path, err)
		}
		written = append(written, target)

		_, err = io.CopyN(out, in, partSize)
		if err != nil && !errors.Is(err, io.EOF) {
			out.Close()
			cleanup()
			return nil, fmt.Errorf("split %q: write part %d: %w", path, index, err)
		}
		if err := out.Close(); err != nil {
			cleanup()
			return nil, fmt.Errorf("split %q: close part %d: %w", path, index, err)
		}
	}

	if err := os.Remove(path); err != nil {
		cleanup()
		return nil, fmt.Errorf("split %q: remove original: %w", path, err)
	}
	return written, nil
}

// MergeParts reassembles a split archive starting from its first part and
// returns the merged file's path. The part files are left in place. Merging
// fails if the part sequence has gaps.
func MergeParts(firstPart string) (string, error) {
	match := partNamePattern.FindStringIndex(firstPart)
	if match == nil {
		return "", fmt.Errorf("merge %q: not a part file", firstPart)
	}
	base := firstPart[:match[0]]

	dir := filepath.Dir(firstPart)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("merge %q: %w", firstPart, err)
	}

	baseName := filepath.Base(base)
	var parts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, baseName+".part") && partNamePattern.MatchString(name) {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("merge %q: no parts found", firstPart)
	}
	sort.Strings(parts)

	for index, name := range parts {
		if want := filepath.Base(partName(baseName, index+1)); name != want {
			return "", fmt.Errorf("merge %q: incomplete part sequence, expected %s but found %s", firstPart, want, name)
		}
	}

	out, err := os.OpenFile(base, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return "", fmt.Errorf("merge %q: %w", firstPart, err)
	}

	for _, name := range parts {
		in, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			out.Close()
			os.Remove(base)
			return "", fmt.Errorf("merge %q: %w", firstPart, err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			os.Remove(base)
			return "", fmt.Errorf("merge %q: read %s: %w", firstPart, name, err)
		}
	}

	if err := out.Close(); err != nil {
		os.Remove(base)
		return "", fmt.Errorf("merge %q: %w", firstPart, err)
	}
	return base, nil
}
