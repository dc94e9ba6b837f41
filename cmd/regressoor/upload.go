package main

import (
	"context"
	"fmt"

	"github.com/ethpandaops/regressoor/pkg/upload"
	"github.com/spf13/cobra"
)

var uploadReportFiles []string

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Upload baselines to remote storage",
	Long: `Upload all saved baseline records (and optionally generated reports)
to the configured S3-compatible bucket so other runners share the history.`,
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringSliceVar(&uploadReportFiles, "report", nil,
		"Also upload this report file (can be repeated)")
}

func runUpload(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Upload == nil || cfg.Upload.S3 == nil {
		return fmt.Errorf("upload.s3 configuration is required")
	}

	uploader, err := upload.NewS3Uploader(log, cfg.Upload.S3)
	if err != nil {
		return fmt.Errorf("creating uploader: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := uploader.Preflight(ctx); err != nil {
		return fmt.Errorf("storage preflight failed: %w", err)
	}

	if err := uploader.UploadBaselines(ctx, cfg.Baseline.Dir); err != nil {
		return fmt.Errorf("uploading baselines: %w", err)
	}

	for _, file := range uploadReportFiles {
		if err := uploader.UploadReport(ctx, file); err != nil {
			return fmt.Errorf("uploading report: %w", err)
		}
	}

	return nil
}
