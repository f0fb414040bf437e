package backup_test

import (
	"archive/zip"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"

	"cardbox/internal/backup"
	"cardbox/internal/catalog"
	"cardbox/internal/config"
	"cardbox/internal/testsupport"
)

func seedWorkingDir(t *testing.T, cfg *config.Config) {
	t.Helper()
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.WorkingDir, "a.jpg"), 40*1024)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.WorkingDir, "b.mp4"), 120*1024)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.WorkingDir, "nested", "deep", "c.png"), 8*1024)
}

func seedSnapshot(t *testing.T, cfg *config.Config) *catalog.Snapshot {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	category := testsupport.NewCategory(t, store, "Style")
	tag := testsupport.NewTag(t, store, "Minimal", category.ID)
	card := testsupport.NewCard(t, store, "a.jpg", filepath.Join(cfg.Paths.WorkingDir, "a.jpg"))
	tags := []string{tag.ID}
	if _, err := store.UpdateCard(ctx, card.ID, catalog.CardUpdate{Tags: &tags}); err != nil {
		t.Fatalf("UpdateCard failed: %v", err)
	}
	if err := store.AddToMoodboard(ctx, card.ID); err != nil {
		t.Fatalf("AddToMoodboard failed: %v", err)
	}

	snap, err := store.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	return snap
}

func TestBackupRestoreRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedWorkingDir(t, cfg)
	snap := seedSnapshot(t, cfg)
	before := testsupport.TreeDigest(t, cfg.Paths.WorkingDir)

	builder := backup.NewBuilder(cfg, nil)
	result, err := builder.Create(context.Background(), backup.Request{Snapshot: snap})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if result.FileCount != 3 {
		t.Fatalf("expected 3 files counted, got %d", result.FileCount)
	}
	if result.Size <= 0 {
		t.Fatalf("expected positive archive size, got %d", result.Size)
	}
	if result.Manifest.Parts != 1 || len(result.Manifest.PartFiles) != 0 {
		t.Fatalf("unexpected manifest for whole archive: %+v", result.Manifest)
	}
	if result.Manifest.ArchiveName != filepath.Base(result.ArchivePath) {
		t.Fatalf("manifest archive name %q does not match %q", result.Manifest.ArchiveName, result.ArchivePath)
	}

	target := filepath.Join(t.TempDir(), "restored")
	restorer := backup.NewRestorer(cfg, nil)
	restored, err := restorer.Restore(context.Background(), backup.RestoreRequest{
		ArchivePath: result.ArchivePath,
		TargetDir:   target,
	})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if restored.Snapshot == nil {
		t.Fatal("expected snapshot payload in restore result")
	}
	if len(restored.Snapshot.Cards) != 1 || len(restored.Snapshot.Tags) != 1 || len(restored.Snapshot.Categories) != 1 {
		t.Fatalf("unexpected restored snapshot shape: %+v", restored.Snapshot)
	}
	if restored.Snapshot.Cards[0].ID != snap.Cards[0].ID {
		t.Fatalf("card id %q, want %q", restored.Snapshot.Cards[0].ID, snap.Cards[0].ID)
	}
	if !restored.Snapshot.Cards[0].InMoodboard {
		t.Fatal("moodboard membership lost in round trip")
	}

	after := testsupport.TreeDigest(t, target)
	if len(after) != len(before) {
		t.Fatalf("restored tree has %d files, want %d", len(after), len(before))
	}
	for rel, content := range before {
		if after[rel] != content {
			t.Fatalf("file %s differs after round trip", rel)
		}
	}
}

func TestBackupSplitsIntoExactParts(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	for i := 0; i < 50; i++ {
		testsupport.WriteFile(t, filepath.Join(cfg.Paths.WorkingDir, fmt.Sprintf("file-%02d.jpg", i)), 4*1024)
	}

	builder := backup.NewBuilder(cfg, nil)
	result, err := builder.Create(context.Background(), backup.Request{Parts: 4})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if len(result.PartFiles) != 4 {
		t.Fatalf("expected 4 part files, got %v", result.PartFiles)
	}
	if result.Manifest.Parts != 4 || len(result.Manifest.PartFiles) != 4 {
		t.Fatalf("unexpected manifest: %+v", result.Manifest)
	}

	var partTotal int64
	for _, part := range result.PartFiles {
		info, err := os.Stat(part)
		if err != nil {
			t.Fatalf("stat %s: %v", part, err)
		}
		partTotal += info.Size()
	}
	if partTotal != result.Size {
		t.Fatalf("parts total %d bytes, unsplit archive was %d", partTotal, result.Size)
	}

	// No single-file archive remains.
	entries, err := os.ReadDir(cfg.Paths.BackupDir)
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".zip") {
			t.Fatalf("unsplit archive %s left on disk", entry.Name())
		}
	}
}

func TestRestoreFromFirstPart(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedWorkingDir(t, cfg)
	before := testsupport.TreeDigest(t, cfg.Paths.WorkingDir)

	builder := backup.NewBuilder(cfg, nil)
	result, err := builder.Create(context.Background(), backup.Request{Parts: 2, Snapshot: &catalog.Snapshot{}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !backup.IsPartFile(result.ArchivePath) {
		t.Fatalf("expected first part path, got %q", result.ArchivePath)
	}

	target := filepath.Join(t.TempDir(), "restored")
	restorer := backup.NewRestorer(cfg, nil)
	if _, err := restorer.Restore(context.Background(), backup.RestoreRequest{
		ArchivePath: result.ArchivePath,
		TargetDir:   target,
	}); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	after := testsupport.TreeDigest(t, target)
	for rel, content := range before {
		if after[rel] != content {
			t.Fatalf("file %s differs after part restore", rel)
		}
	}

	// The merged temp archive is cleaned up, the parts are kept.
	merged := strings.TrimSuffix(result.ArchivePath, ".part01")
	if _, err := os.Stat(merged); !os.IsNotExist(err) {
		t.Fatal("merged archive should be removed after restore")
	}
	for _, part := range result.PartFiles {
		if _, err := os.Stat(part); err != nil {
			t.Fatalf("part %s should survive restore: %v", part, err)
		}
	}
}

func TestRestoreToleratesMissingCatalogEntry(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	// A hand-made zip with files only, the way a manual archive would look.
	archivePath := filepath.Join(cfg.Paths.BackupDir, "manual.zip")
	out, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	zw := zip.NewWriter(out)
	entry, err := zw.Create("photos/a.jpg")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := entry.Write([]byte("jpeg bytes")); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close file: %v", err)
	}

	target := filepath.Join(t.TempDir(), "restored")
	restorer := backup.NewRestorer(cfg, nil)
	result, err := restorer.Restore(context.Background(), backup.RestoreRequest{
		ArchivePath: archivePath,
		TargetDir:   target,
	})
	if err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if result.Snapshot != nil {
		t.Fatal("expected nil snapshot for archive without catalog entry")
	}
	data, err := os.ReadFile(filepath.Join(target, "photos", "a.jpg"))
	if err != nil {
		t.Fatalf("restored file missing: %v", err)
	}
	if string(data) != "jpeg bytes" {
		t.Fatalf("restored file content %q", data)
	}
}

func TestRestoreOverwritesExistingFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.WorkingDir, "a.jpg"), 1024)
	before := testsupport.TreeDigest(t, cfg.Paths.WorkingDir)

	builder := backup.NewBuilder(cfg, nil)
	result, err := builder.Create(context.Background(), backup.Request{Snapshot: &catalog.Snapshot{}})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	target := filepath.Join(t.TempDir(), "restored")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatalf("mkdir target: %v", err)
	}
	if err := os.WriteFile(filepath.Join(target, "a.jpg"), []byte("stale"), 0o644); err != nil {
		t.Fatalf("write stale file: %v", err)
	}

	restorer := backup.NewRestorer(cfg, nil)
	if _, err := restorer.Restore(context.Background(), backup.RestoreRequest{
		ArchivePath: result.ArchivePath,
		TargetDir:   target,
	}); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	after := testsupport.TreeDigest(t, target)
	if after["a.jpg"] != before["a.jpg"] {
		t.Fatal("pre-existing file was not overwritten")
	}
}

func TestBackupEmitsMonotonicProgress(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	seedWorkingDir(t, cfg)

	var events []backup.ProgressEvent
	builder := backup.NewBuilder(cfg, nil)
	if _, err := builder.Create(context.Background(), backup.Request{
		Snapshot: &catalog.Snapshot{},
		Progress: func(event backup.ProgressEvent) { events = append(events, event) },
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(events) == 0 {
		t.Fatal("expected progress events")
	}
	last := 0.0
	for i, event := range events {
		if event.Percent < last {
			t.Fatalf("event %d percent %.2f dropped below %.2f", i, event.Percent, last)
		}
		last = event.Percent
	}
	final := events[len(events)-1]
	if final.Percent != 100 {
		t.Fatalf("final percent %.2f, want 100", final.Percent)
	}
	if final.ProcessedBytes != final.TotalBytes {
		t.Fatalf("final processed %d, total %d", final.ProcessedBytes, final.TotalBytes)
	}
}

func TestBackupFailsWhenWorkingDirMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	builder := backup.NewBuilder(cfg, nil)
	_, err := builder.Create(context.Background(), backup.Request{
		WorkingDir: filepath.Join(t.TempDir(), "nope"),
		Snapshot:   &catalog.Snapshot{},
	})
	if err == nil {
		t.Fatal("expected error for missing working directory")
	}
	if !strings.Contains(err.Error(), "unavailable") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBackupRemovesPartialArchiveOnFailure(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.WorkingDir, "ok.jpg"), 4*1024)
	// A dangling symlink survives the size walk but fails when archived.
	if err := os.Symlink(filepath.Join(t.TempDir(), "gone"), filepath.Join(cfg.Paths.WorkingDir, "zz-dangling")); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	outputPath := filepath.Join(cfg.Paths.BackupDir, "broken.zip")
	builder := backup.NewBuilder(cfg, nil)
	_, err := builder.Create(context.Background(), backup.Request{
		OutputPath: outputPath,
		Snapshot:   &catalog.Snapshot{},
	})
	if err == nil {
		t.Fatal("expected archiving to fail")
	}
	if _, statErr := os.Stat(outputPath); !os.IsNotExist(statErr) {
		t.Fatal("partial archive should be removed on failure")
	}
}

func TestConcurrentOperationsAreRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.WorkingDir, "a.jpg"), 1024)

	held := flock.New(filepath.Join(cfg.Paths.TempDir, "cardbox-archive.lock"))
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-acquire lock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	builder := backup.NewBuilder(cfg, nil)
	if _, err := builder.Create(context.Background(), backup.Request{Snapshot: &catalog.Snapshot{}}); err == nil {
		t.Fatal("expected backup to fail while lock is held")
	}

	restorer := backup.NewRestorer(cfg, nil)
	if _, err := restorer.Restore(context.Background(), backup.RestoreRequest{
		ArchivePath: filepath.Join(cfg.Paths.BackupDir, "whatever.zip"),
		TargetDir:   t.TempDir(),
	}); err == nil {
		t.Fatal("expected restore to fail while lock is held")
	}
}
