// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	s3v2 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ocheatmap/internal/aws"
	"github.com/staranto/ocheatmap/internal/config"
	"github.com/staranto/ocheatmap/internal/heatmap"
	mylog "github.com/staranto/ocheatmap/internal/log"
	"github.com/staranto/ocheatmap/internal/output"
	"github.com/staranto/ocheatmap/internal/publish"
	"github.com/staranto/ocheatmap/internal/version"
)

// RunAction generates the heat map site from the feed and optionally
// publishes and summarises it.
func RunAction(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("version") {
		fmt.Fprintln(cmd.Root().Writer, version.Version)
		return nil
	}

	mylog.SetVerbose(cmd.Bool("verbose"))

	m := GetMeta(cmd)
	log.WithFields(log.Fields{
		"config": m.Config.Source,
		"cwd":    m.StartingDir,
	}).Debug("starting run")

	opts, err := BuildOptions(ctx, cmd)
	if err != nil {
		return err
	}

	summary, err := heatmap.New(opts).Run(ctx)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"active": summary.Active,
		"cells":  summary.Cells,
	}).Info("done")

	w := cmd.Root().Writer
	if w == nil {
		w = os.Stdout
	}
	return output.WriteSummary(w, summary, cmd.String("summary"))
}

// BuildOptions maps the parsed flags onto heatmap.Options. The S3 publisher
// is only configured when --bucket is set.
func BuildOptions(ctx context.Context, cmd *cli.Command) (heatmap.Options, error) {
	ua, _ := config.GetString("feed.user_agent", version.UserAgent())

	opts := heatmap.Options{
		URL:          cmd.String("url"),
		OutputDir:    cmd.String("outputdir"),
		DataDir:      cmd.String("datadir"),
		TemplatePath: cmd.String("template"),
		KeepTemp:     cmd.Bool("keep-temp"),
		GeoJSON:      cmd.Bool("geojson"),
		Refetch:      !cmd.Bool("reuse"),
		Timeout:      cmd.Duration("timeout"),
		MaxAge:       cmd.Duration("max-age"),
		UserAgent:    ua,
	}

	if bucket := cmd.String("bucket"); bucket != "" {
		pub, err := newPublisher(ctx, cmd, bucket)
		if err != nil {
			return heatmap.Options{}, err
		}
		opts.Publisher = pub
	}

	return opts, nil
}

func newPublisher(ctx context.Context, cmd *cli.Command, bucket string) (*publish.S3Publisher, error) {
	cfg, err := aws.LoadAWSConfig(ctx,
		aws.WithProfile(cmd.String("profile")),
		aws.WithRegion(cmd.String("region")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3opts []func(*s3v2.Options)
	if ep := cmd.String("endpoint"); ep != "" {
		s3opts = append(s3opts, aws.WithBaseEndpoint(ep))
	}

	return &publish.S3Publisher{
		Client: aws.NewS3(cfg, s3opts...),
		Bucket: bucket,
		Prefix: cmd.String("prefix"),
	}, nil
}
