package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ethpandaops/smbench/pkg/export"
	"github.com/ethpandaops/smbench/pkg/fsutil"
	"github.com/ethpandaops/smbench/pkg/upload"
)

var (
	exportOutput      string
	exportOwner       string
	exportConcurrency int
	exportPublish     bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the viewer as a static site",
	Long: `Render index.html, compare.html and run/<id>.html for every stored run,
together with data/ copies of the JSON documents and the static assets.
With --publish the site is uploaded to the configured publish.s3 bucket.`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportOutput, "output", "",
		"Output directory of the static site")
	exportCmd.Flags().StringVar(&exportOwner, "owner", "",
		"Owner of the written files as UID:GID")
	exportCmd.Flags().IntVar(&exportConcurrency, "concurrency", 4,
		"Number of run pages rendered in parallel")
	exportCmd.Flags().BoolVar(&exportPublish, "publish", false,
		"Upload the site to the publish.s3 bucket after exporting")

	if err := exportCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	owner, err := fsutil.ParseOwner(exportOwner)
	if err != nil {
		return fmt.Errorf("parsing --owner: %w", err)
	}

	if exportPublish && !cfg.Publish.S3.Enabled {
		return fmt.Errorf("--publish requires publish.s3 to be enabled")
	}

	source, resolver, err := openSource(cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var uploader upload.Uploader

	if exportPublish {
		uploader, err = upload.NewS3Uploader(log, &cfg.Publish.S3)
		if err != nil {
			return fmt.Errorf("creating uploader: %w", err)
		}

		// Fail before rendering when the bucket is not writable.
		if err := uploader.Preflight(ctx); err != nil {
			return fmt.Errorf("upload preflight: %w", err)
		}
	}

	exp := export.NewExporter(log, source, resolver, export.Options{
		OutputDir:   exportOutput,
		Title:       cfg.Site.Title,
		LogosDir:    cfg.Server.LogosDir,
		Owner:       owner,
		Concurrency: exportConcurrency,
	})

	res, err := exp.Export(ctx)
	if err != nil {
		return fmt.Errorf("exporting site: %w", err)
	}

	log.WithFields(logrus.Fields{
		"pages":        res.Pages,
		"placeholders": res.Placeholders,
		"documents":    res.Documents,
		"logos":        res.Logos,
	}).Info("Export finished")

	if uploader == nil {
		return nil
	}

	n, err := uploader.Upload(ctx, exportOutput)
	if err != nil {
		return fmt.Errorf("publishing site: %w", err)
	}

	log.WithFields(logrus.Fields{
		"files":  n,
		"bucket": cfg.Publish.S3.Bucket,
	}).Info("Site published")

	return nil
}
