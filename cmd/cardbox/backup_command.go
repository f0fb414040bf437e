package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"cardbox/internal/backup"
	"cardbox/internal/config"
	"cardbox/internal/logging"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var parts int

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Archive the catalog and working directory",
		Long: "Creates a zip archive containing every file in the working directory plus " +
			"the serialized catalog, optionally split into numbered parts.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			snap, err := store.Snapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("snapshot catalog: %w", err)
			}

			interactive := isatty.IsTerminal(os.Stdout.Fd())
			logger, err := operationLogger(cfg, interactive)
			if err != nil {
				return err
			}

			req := backup.Request{
				OutputPath: strings.TrimSpace(outputPath),
				Parts:      parts,
				Snapshot:   snap,
			}

			var bar *progressbar.ProgressBar
			if interactive {
				req.Progress = func(event backup.ProgressEvent) {
					if bar == nil {
						bar = newTransferBar(event.TotalBytes, "Archiving")
					}
					bar.Set64(event.ProcessedBytes)
				}
			}

			result, err := backup.NewBuilder(cfg, logger).Create(cmd.Context(), req)
			if bar != nil {
				bar.Finish()
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}

			printBackupResult(cmd, result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Archive destination path")
	cmd.Flags().IntVar(&parts, "parts", 0, "Split the archive into this many parts (1 keeps it whole)")
	return cmd
}

func printBackupResult(cmd *cobra.Command, result *backup.Result) {
	manifest := result.Manifest
	rows := [][]string{
		{"Archive", result.ArchivePath},
		{"Size", humanize.IBytes(uint64(result.Size))},
		{"Files", fmt.Sprintf("%d", result.FileCount)},
		{"Parts", fmt.Sprintf("%d", manifest.Parts)},
		{"Duration", result.Duration.Round(time.Millisecond).String()},
	}
	if len(manifest.PartFiles) > 0 {
		rows = append(rows, []string{"Part files", strings.Join(manifest.PartFiles, "\n")})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Field", "Value"},
		rows,
		[]columnAlignment{alignLeft, alignLeft},
	))
}

// operationLogger keeps interactive runs quiet on the terminal so the
// progress bar stays readable; log lines still go to the log file.
func operationLogger(cfg *config.Config, interactive bool) (*slog.Logger, error) {
	if !interactive {
		return logging.NewFromConfig(cfg)
	}
	if cfg.Paths.LogDir == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil
	}
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	return logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{filepath.Join(cfg.Paths.LogDir, "cardbox.log")},
	})
}

func newTransferBar(total int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
