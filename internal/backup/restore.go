package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"cardbox/internal/catalog"
	"cardbox/internal/config"
	"cardbox/internal/fileutil"
	"cardbox/internal/logging"
)

// RestoreRequest describes one restore invocation.
type RestoreRequest struct {
	// ArchivePath points at a whole archive or at its first .partNN file.
	ArchivePath string
	// TargetDir receives the restored file tree. Defaults to the configured
	// working directory. It is created if absent; existing files at the same
	// relative paths are overwritten.
	TargetDir string
	// Progress, when set, receives events as bytes are extracted.
	Progress ProgressFunc
}

// RestoreResult reports a completed restore. Snapshot is nil when the archive
// carries no catalog entry; the file tree is restored either way.
type RestoreResult struct {
	Snapshot  *catalog.Snapshot
	FileCount int
	Size      int64
	Duration  time.Duration
}

// Restorer reconstructs a working directory from an archive. It never
// mutates the catalog store; the caller decides whether to import the
// returned snapshot.
type Restorer struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewRestorer returns a restorer using the given configuration. A nil logger
// discards log output.
func NewRestorer(cfg *config.Config, logger *slog.Logger) *Restorer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Restorer{cfg: cfg, logger: logger}
}

// Restore reassembles the archive if it was split, extracts it into a
// temporary directory, copies the file tree into the target directory, and
// returns the decoded catalog snapshot. Temporary artifacts are removed
// before returning.
func (r *Restorer) Restore(ctx context.Context, req RestoreRequest) (*RestoreResult, error) {
	start := time.Now()

	targetDir := req.TargetDir
	if targetDir == "" {
		targetDir = r.cfg.Paths.WorkingDir
	}

	lock, err := acquireOperationLock(r.cfg)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	archivePath := req.ArchivePath
	var mergedPath string
	if IsPartFile(archivePath) {
		merged, err := MergeParts(archivePath)
		if err != nil {
			return nil, err
		}
		mergedPath = merged
		archivePath = merged
		defer os.Remove(mergedPath)
	}

	if err := os.MkdirAll(r.cfg.Paths.TempDir, 0o755); err != nil {
		return nil, fmt.Errorf("prepare temp directory: %w", err)
	}
	extractDir, err := os.MkdirTemp(r.cfg.Paths.TempDir, "cardbox-restore-")
	if err != nil {
		return nil, fmt.Errorf("create extraction directory: %w", err)
	}
	defer os.RemoveAll(extractDir)

	r.logger.Info("starting restore", "archive", req.ArchivePath, "target", targetDir)

	fileCount, extracted, err := r.extract(ctx, archivePath, extractDir, req.Progress)
	if err != nil {
		return nil, err
	}

	snap, err := r.readSnapshot(extractDir)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		r.logger.Warn("archive has no catalog entry, restoring files only", "archive", req.ArchivePath)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return nil, fmt.Errorf("create target directory: %w", err)
	}
	if err := fileutil.CopyTree(extractDir, targetDir, databaseDir); err != nil {
		return nil, fmt.Errorf("copy restored files: %w", err)
	}

	result := &RestoreResult{
		Snapshot:  snap,
		FileCount: fileCount,
		Size:      extracted,
		Duration:  time.Since(start),
	}
	r.logger.Info("restore complete",
		"target", targetDir,
		"files", result.FileCount,
		"size", humanize.IBytes(uint64(result.Size)),
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

func (r *Restorer) extract(ctx context.Context, archivePath, extractDir string, progress ProgressFunc) (int, int64, error) {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, 0, fmt.Errorf("open archive %q: %w", archivePath, err)
	}
	defer reader.Close()

	var total int64
	for _, entry := range reader.File {
		total += int64(entry.UncompressedSize64)
	}

	tracker := newProgressTracker("extracting", total, progress)
	sampler := logging.NewProgressSampler(10)
	fileCount := 0

	for _, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return 0, 0, err
		}
		dest, err := safeEntryPath(extractDir, entry.Name)
		if err != nil {
			return 0, 0, err
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return 0, 0, err
			}
			continue
		}
		if err := r.extractFile(entry, dest, tracker, sampler); err != nil {
			return 0, 0, fmt.Errorf("extract %q: %w", entry.Name, err)
		}
		fileCount++
	}
	tracker.Finish()
	return fileCount, tracker.processed, nil
}

func (r *Restorer) extractFile(entry *zip.File, dest string, tracker *progressTracker, sampler *logging.ProgressSampler) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := entry.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	buf := make([]byte, copyChunkSize)
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				out.Close()
				return err
			}
			tracker.Add(int64(n))
			if sampler.ShouldLog(tracker.Percent(), "extracting") {
				r.logger.Info("restore progress",
					"percent", fmt.Sprintf("%.0f", tracker.Percent()),
					"processed", humanize.IBytes(uint64(tracker.processed)))
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			out.Close()
			return readErr
		}
	}
	return out.Close()
}

func (r *Restorer) readSnapshot(extractDir string) (*catalog.Snapshot, error) {
	data, err := os.ReadFile(filepath.Join(extractDir, filepath.FromSlash(databaseEntry)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read catalog entry: %w", err)
	}
	return catalog.DecodeSnapshot(data)
}

// safeEntryPath resolves an archive entry name under root, rejecting names
// that would escape it.
func safeEntryPath(root, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("archive entry %q escapes extraction directory", name)
	}
	return filepath.Join(root, cleaned), nil
}
