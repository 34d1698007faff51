package main

import (
	"github.com/spf13/cobra"

	"github.com/bykiy/reclaim/internal/backups"
)

func backupCommands(r *reclaimInstance) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "dump the reclaim database with pg_dump",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "drive",
		Short: "dump into the configured backup directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return backups.BackupDB()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "s3",
		Short: "zip today's dumps and upload them to S3",
		RunE: func(cmd *cobra.Command, args []string) error {
			return backups.ZipUploadToS3()
		},
	})

	return cmd
}
