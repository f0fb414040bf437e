package backup_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"cardbox/internal/backup"
	"cardbox/internal/testsupport"
)

func TestSplitMergeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "archive.zip")
	testsupport.WriteFile(t, source, 100*1024+7)

	original, err := os.ReadFile(source)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}

	parts, err := backup.SplitFile(source, 3)
	if err != nil {
		t.Fatalf("SplitFile failed: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts, got %v", parts)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatal("split should delete the original file")
	}
	for i, part := range parts {
		want := filepath.Join(dir, fmt.Sprintf("archive.zip.part%02d", i+1))
		if part != want {
			t.Fatalf("part %d named %q, want %q", i, part, want)
		}
	}

	var total int64
	for _, part := range parts {
		info, err := os.Stat(part)
		if err != nil {
			t.Fatalf("stat %s: %v", part, err)
		}
		total += info.Size()
	}
	if total != int64(len(original)) {
		t.Fatalf("parts total %d bytes, want %d", total, len(original))
	}

	merged, err := backup.MergeParts(parts[0])
	if err != nil {
		t.Fatalf("MergeParts failed: %v", err)
	}
	if merged != source {
		t.Fatalf("merged path %q, want %q", merged, source)
	}

	restored, err := os.ReadFile(merged)
	if err != nil {
		t.Fatalf("read merged: %v", err)
	}
	if string(restored) != string(original) {
		t.Fatal("merged file differs from original")
	}

	// Merge keeps the parts around.
	for _, part := range parts {
		if _, err := os.Stat(part); err != nil {
			t.Fatalf("part %s should survive merge: %v", part, err)
		}
	}
}

func TestSplitRejectsBadPartCount(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "archive.zip")
	testsupport.WriteFile(t, source, 512)

	if _, err := backup.SplitFile(source, 1); err == nil {
		t.Fatal("expected error for part count 1")
	}
	if _, err := backup.SplitFile(source, 100); err == nil {
		t.Fatal("expected error for part count 100")
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("rejected split must not remove the source: %v", err)
	}
}

func TestMergeDetectsIncompleteSequence(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "archive.zip")
	testsupport.WriteFile(t, source, 64*1024)

	parts, err := backup.SplitFile(source, 3)
	if err != nil {
		t.Fatalf("SplitFile failed: %v", err)
	}
	if err := os.Remove(parts[1]); err != nil {
		t.Fatalf("remove middle part: %v", err)
	}

	if _, err := backup.MergeParts(parts[0]); err == nil {
		t.Fatal("expected error for incomplete part sequence")
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatal("failed merge must not leave a merged file behind")
	}
}

func TestMergeRejectsNonPartPath(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "archive.zip")
	testsupport.WriteFile(t, plain, 16)

	if _, err := backup.MergeParts(plain); err == nil {
		t.Fatal("expected error for non-part path")
	}
}

func TestIsPartFile(t *testing.T) {
	cases := map[string]bool{
		"backup.zip.part01": true,
		"backup.zip.part99": true,
		"backup.zip.part1":  false,
		"backup.zip":        false,
		"backup.part01.zip": false,
	}
	for path, want := range cases {
		if got := backup.IsPartFile(path); got != want {
			t.Errorf("IsPartFile(%q) = %v, want %v", path, got, want)
		}
	}
}
