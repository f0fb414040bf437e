package fileutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// DirStats reports the total byte size and file count of every regular file
// under root, recursively. Symlinks are counted by their link size, not
// followed.
func DirStats(root string) (totalBytes int64, fileCount int, err error) {
	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			return err
		}
		totalBytes += info.Size()
		fileCount++
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("walk %q: %w", root, err)
	}
	return totalBytes, fileCount, nil
}

// CopyTree recursively copies every file under src into dst, preserving
// relative paths and overwriting files that already exist. Directories named
// in skipDirs (relative to src, top level only) are not copied.
func CopyTree(src, dst string, skipDirs ...string) error {
	skip := make(map[string]struct{}, len(skipDirs))
	for _, dir := range skipDirs {
		skip[dir] = struct{}{}
	}

	return filepath.WalkDir(src, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if entry.IsDir() {
			if _, ok := skip[rel]; ok {
				return fs.SkipDir
			}
			return os.MkdirAll(filepath.Join(dst, rel), 0o755)
		}
		if parent := filepath.Dir(rel); parent != "." {
			if _, ok := skip[topLevel(parent)]; ok {
				return nil
			}
		}
		return CopyFile(path, filepath.Join(dst, rel))
	})
}

func topLevel(rel string) string {
	for {
		parent := filepath.Dir(rel)
		if parent == "." || parent == string(filepath.Separator) {
			return rel
		}
		rel = parent
	}
}
