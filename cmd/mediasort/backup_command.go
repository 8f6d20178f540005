package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"mediasort/internal/backup"
)

func newBackupCommand(ctx *commandContext) *cobra.Command {
	var noCompress bool

	cmd := &cobra.Command{
		Use:   "backup SRC",
		Short: "Archive a directory as tar(.gz) with a .sha1 checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			started := time.Now()
			res, err := backup.Create(cmd.Context(), backup.Options{
				Source:   args[0],
				DestDir:  cfg.Paths.BackupDir,
				Compress: cfg.Backup.Compress && !noCompress,
				Pattern:  cfg.Backup.NamePattern,
				Now:      started,
				Logger:   logger,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderPairs("Backup", [][2]string{
				{"Archive", res.Archive},
				{"Checksum", res.Checksum},
				{"SHA-1", res.Digest},
				{"Entries", humanize.Comma(int64(res.Entries))},
				{"Size", humanize.Bytes(uint64(res.Bytes))},
				{"Elapsed", time.Since(started).Round(time.Millisecond).String()},
			}))
			return nil
		},
	}

	cmd.Flags().String("dest", "", "Directory for the archive (BACKUP_DIR)")
	cmd.Flags().BoolVar(&noCompress, "no-compress", false, "Write a plain .tar instead of .tar.gz")
	bindConfigKey(cmd, "dest", "BACKUP_DIR")
	return cmd
}
