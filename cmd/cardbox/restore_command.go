package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"cardbox/internal/backup"
)

func newRestoreCommand(ctx *commandContext) *cobra.Command {
	var targetDir string
	var skipImport bool
	var merge bool

	cmd := &cobra.Command{
		Use:   "restore <archive>",
		Short: "Restore the catalog and working directory from an archive",
		Long: "Extracts a backup archive (or its first .partNN file) into the target " +
			"directory and imports the embedded catalog into the store. By default the " +
			"imported catalog replaces the current one.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			interactive := isatty.IsTerminal(os.Stdout.Fd())
			logger, err := operationLogger(cfg, interactive)
			if err != nil {
				return err
			}

			req := backup.RestoreRequest{
				ArchivePath: strings.TrimSpace(args[0]),
				TargetDir:   strings.TrimSpace(targetDir),
			}

			var bar *progressbar.ProgressBar
			if interactive {
				req.Progress = func(event backup.ProgressEvent) {
					if bar == nil {
						bar = newTransferBar(event.TotalBytes, "Extracting")
					}
					bar.Set64(event.ProcessedBytes)
				}
			}

			result, err := backup.NewRestorer(cfg, logger).Restore(cmd.Context(), req)
			if bar != nil {
				bar.Finish()
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			imported := false
			if result.Snapshot == nil {
				fmt.Fprintln(out, "Archive carries no catalog data; restored files only.")
			} else if skipImport {
				fmt.Fprintln(out, "Catalog import skipped (--skip-import).")
			} else {
				store, err := ctx.openStore()
				if err != nil {
					return err
				}
				defer store.Close()
				if err := store.ImportSnapshot(cmd.Context(), result.Snapshot, !merge); err != nil {
					return fmt.Errorf("import catalog: %w", err)
				}
				imported = true
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Field", "Value"},
				[][]string{
					{"Files restored", fmt.Sprintf("%d", result.FileCount)},
					{"Size", humanize.IBytes(uint64(result.Size))},
					{"Catalog imported", yesNo(imported)},
					{"Duration", result.Duration.Round(time.Millisecond).String()},
				},
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetDir, "target", "t", "", "Directory to restore files into (defaults to the working directory)")
	cmd.Flags().BoolVar(&skipImport, "skip-import", false, "Restore files without touching the catalog store")
	cmd.Flags().BoolVar(&merge, "merge", false, "Merge the archived catalog into the current one instead of replacing it")
	return cmd
}
