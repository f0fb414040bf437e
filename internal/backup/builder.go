package backup

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"cardbox/internal/catalog"
	"cardbox/internal/config"
	"cardbox/internal/fileutil"
	"cardbox/internal/logging"
	"cardbox/internal/preflight"
)

const (
	databaseDir   = "_database"
	databaseEntry = databaseDir + "/catalog.json"

	copyChunkSize = 256 * 1024
)

// Request describes one backup invocation. Zero-value fields fall back to the
// builder's configuration.
type Request struct {
	// OutputPath is the archive destination. Defaults to a timestamped file
	// in the configured backup directory.
	OutputPath string
	// WorkingDir is the media tree to archive. Defaults to the configured
	// working directory.
	WorkingDir string
	// Parts is the number of .partNN files to split into. Values below 2
	// leave the archive whole.
	Parts int
	// Snapshot is the catalog payload embedded in the archive.
	Snapshot *catalog.Snapshot
	// Progress, when set, receives events as bytes are archived.
	Progress ProgressFunc
}

// Result reports a completed backup.
type Result struct {
	ArchivePath string
	PartFiles   []string
	Size        int64
	FileCount   int
	Duration    time.Duration
	Manifest    Manifest
}

// Builder creates catalog archives.
type Builder struct {
	cfg    *config.Config
	logger *slog.Logger
}

// NewBuilder returns a builder using the given configuration. A nil logger
// discards log output.
func NewBuilder(cfg *config.Config, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{cfg: cfg, logger: logger}
}

// Create archives the working directory and the catalog snapshot into a zip
// file, optionally split into parts. Steps run strictly in sequence:
// preflight, size walk, archive write, split, manifest. A failed run removes
// whatever output it produced.
func (b *Builder) Create(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	workingDir := req.WorkingDir
	if workingDir == "" {
		workingDir = b.cfg.Paths.WorkingDir
	}
	outputPath := req.OutputPath
	if outputPath == "" {
		name := fmt.Sprintf("cardbox-backup-%s.zip", start.Format("20060102-150405"))
		outputPath = filepath.Join(b.cfg.Paths.BackupDir, name)
	}
	parts := req.Parts
	if parts <= 0 {
		parts = b.cfg.Backup.DefaultParts
	}

	lock, err := acquireOperationLock(b.cfg)
	if err != nil {
		return nil, err
	}
	defer lock.Unlock()

	if check := preflight.CheckDirectoryAccess("working directory", workingDir); !check.Passed {
		return nil, fmt.Errorf("working directory unavailable: %s", check.Detail)
	}

	totalBytes, fileCount, err := fileutil.DirStats(workingDir)
	if err != nil {
		return nil, fmt.Errorf("measure working directory: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("prepare backup directory: %w", err)
	}
	margin := uint64(b.cfg.Backup.FreeSpaceMarginMiB) * 1024 * 1024
	if check := preflight.CheckFreeSpace("backup destination", filepath.Dir(outputPath), uint64(totalBytes)+margin); !check.Passed {
		return nil, fmt.Errorf("insufficient space for backup: %s", check.Detail)
	}

	b.logger.Info("starting backup",
		"working_dir", workingDir,
		"output", outputPath,
		"files", fileCount,
		"size", humanize.IBytes(uint64(totalBytes)),
		"parts", parts)

	if err := b.writeArchive(ctx, outputPath, workingDir, req.Snapshot, totalBytes, req.Progress); err != nil {
		os.Remove(outputPath)
		return nil, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		os.Remove(outputPath)
		return nil, fmt.Errorf("stat archive: %w", err)
	}
	archiveSize := info.Size()

	result := &Result{
		ArchivePath: outputPath,
		Size:        archiveSize,
		FileCount:   fileCount,
		Manifest: Manifest{
			Version:     manifestVersion,
			Date:        start.UTC(),
			WorkingDir:  workingDir,
			TotalSize:   archiveSize,
			FilesCount:  fileCount,
			Parts:       1,
			ArchiveName: filepath.Base(outputPath),
		},
	}

	if parts > 1 {
		partPaths, err := SplitFile(outputPath, parts)
		if err != nil {
			os.Remove(outputPath)
			return nil, fmt.Errorf("split archive: %w", err)
		}
		result.PartFiles = partPaths
		result.ArchivePath = partPaths[0]
		result.Manifest.Parts = parts
		result.Manifest.ArchiveName = filepath.Base(partPaths[0])
		result.Manifest.PartFiles = make([]string, len(partPaths))
		for i, part := range partPaths {
			result.Manifest.PartFiles[i] = filepath.Base(part)
		}
	}

	result.Duration = time.Since(start)
	b.logger.Info("backup complete",
		"archive", result.ArchivePath,
		"size", humanize.IBytes(uint64(result.Size)),
		"duration", result.Duration.Round(time.Millisecond))
	return result, nil
}

func (b *Builder) writeArchive(ctx context.Context, outputPath, workingDir string, snap *catalog.Snapshot, totalBytes int64, progress ProgressFunc) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(out)
	if err := b.writeSnapshotEntry(zw, snap); err != nil {
		zw.Close()
		out.Close()
		return err
	}

	tracker := newProgressTracker("archiving", totalBytes, progress)
	sampler := logging.NewProgressSampler(10)

	err = filepath.WalkDir(workingDir, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(workingDir, path)
		if err != nil {
			return err
		}
		return b.addFile(zw, path, filepath.ToSlash(rel), tracker, sampler)
	})
	if err != nil {
		zw.Close()
		out.Close()
		return fmt.Errorf("archive working directory: %w", err)
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}
	tracker.Finish()
	return nil
}

func (b *Builder) writeSnapshotEntry(zw *zip.Writer, snap *catalog.Snapshot) error {
	if snap == nil {
		snap = &catalog.Snapshot{}
	}
	data, err := catalog.EncodeSnapshot(snap)
	if err != nil {
		return err
	}
	entry, err := zw.Create(databaseEntry)
	if err != nil {
		return fmt.Errorf("create catalog entry: %w", err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("write catalog entry: %w", err)
	}
	return nil
}

func (b *Builder) addFile(zw *zip.Writer, path, entryName string, tracker *progressTracker, sampler *logging.ProgressSampler) error {
	in, err := os.Open(path)
	if err != nil {
		return err
	}
	defer in.Close()

	entry, err := zw.Create(entryName)
	if err != nil {
		return err
	}

	buf := make([]byte, copyChunkSize)
	for {
		n, readErr := in.Read(buf)
		if n > 0 {
			if _, err := entry.Write(buf[:n]); err != nil {
				return err
			}
			tracker.Add(int64(n))
			if sampler.ShouldLog(tracker.Percent(), "archiving") {
				b.logger.Info("backup progress",
					"percent", fmt.Sprintf("%.0f", tracker.Percent()),
					"processed", humanize.IBytes(uint64(tracker.processed)))
			}
		}
		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return nil
			}
			return readErr
		}
	}
}
