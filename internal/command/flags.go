// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"time"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ocheatmap/internal/config"
	"github.com/staranto/ocheatmap/internal/feed"
	"github.com/staranto/ocheatmap/internal/heatmap"
)

// NewFlags returns the flags of the root command. Every flag can be set from
// an OCHEATMAP_* env var or from the key of the same name in cfg.
func NewFlags(cfg config.Type) []cli.Flag {
	src := func(key string, envs ...string) cli.ValueSourceChain {
		chain := make([]cli.ValueSource, 0, len(envs)+1)
		for _, e := range envs {
			chain = append(chain, cli.EnvVar(e))
		}
		chain = append(chain, yaml.YAML(key, altsrc.StringSourcer(cfg.Source)))
		return cli.NewValueSourceChain(chain...)
	}

	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "log progress at info level",
			Sources:     src("verbose", "OCHEATMAP_VERBOSE"),
			HideDefault: true,
		},
		&cli.BoolFlag{
			Name:        "version",
			Usage:       "ocheatmap version info",
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "outputdir",
			Aliases: []string{"o"},
			Usage:   "directory receiving index.html and data.js",
			Sources: src("outputdir", "OCHEATMAP_OUTPUTDIR"),
			Value:   "out",
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, NotEmptyValidator)
			},
		},
		&cli.StringFlag{
			Name:    "datadir",
			Aliases: []string{"d"},
			Usage:   "persistent download directory. A temp dir is used when empty",
			Sources: src("datadir", "OCHEATMAP_DATADIR"),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.BoolFlag{
			Name:        "keep-temp",
			Usage:       "do not remove the temp download directory",
			Sources:     src("keep-temp", "OCHEATMAP_KEEP_TEMP"),
			HideDefault: true,
		},
		&cli.BoolWithInverseFlag{
			Name:    "reuse",
			Usage:   "reuse documents already present in the download directory",
			Sources: src("reuse", "OCHEATMAP_REUSE"),
			Value:   true,
		},
		&cli.StringFlag{
			Name:    "url",
			Usage:   "feed endpoint",
			Sources: src("url", "OCHEATMAP_URL"),
			Value:   feed.DefaultURL,
			Validator: func(value string) error {
				return FlagValidators(value, URLValidator)
			},
		},
		&cli.StringFlag{
			Name:    "template",
			Usage:   "index.html template",
			Sources: src("template", "OCHEATMAP_TEMPLATE"),
			Value:   heatmap.DefaultTemplate,
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator, NotEmptyValidator)
			},
		},
		&cli.DurationFlag{
			Name:    "timeout",
			Usage:   "per request timeout, 0 disables it",
			Sources: src("timeout", "OCHEATMAP_TIMEOUT"),
			Value:   feed.DefaultTimeout,
			Validator: func(value time.Duration) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.DurationFlag{
			Name:    "max-age",
			Usage:   "purge downloads older than this from --datadir, 0 disables it",
			Sources: src("max-age", "OCHEATMAP_MAX_AGE"),
			Validator: func(value time.Duration) error {
				return FlagValidators(value, NonNegativeValidator)
			},
		},
		&cli.BoolFlag{
			Name:        "geojson",
			Usage:       "also write the cells as data.geojson",
			Sources:     src("geojson", "OCHEATMAP_GEOJSON"),
			HideDefault: true,
		},
		&cli.StringFlag{
			Name:    "summary",
			Usage:   "run summary format (none, text, json, yaml)",
			Sources: src("summary", "OCHEATMAP_SUMMARY"),
			Value:   "none",
			Validator: func(value string) error {
				return FlagValidators(value, SummaryValidator)
			},
		},
		&cli.StringFlag{
			Name:    "bucket",
			Usage:   "S3 bucket to publish index.html and data.js to",
			Sources: src("bucket", "OCHEATMAP_BUCKET"),
			Validator: func(value string) error {
				return FlagValidators(value, JammedFlagValidator)
			},
		},
		&cli.StringFlag{
			Name:    "prefix",
			Usage:   "key prefix inside --bucket",
			Sources: src("prefix", "OCHEATMAP_PREFIX"),
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "AWS region of --bucket",
			Sources: src("region", "OCHEATMAP_REGION", "AWS_REGION"),
		},
		&cli.StringFlag{
			Name:    "profile",
			Usage:   "AWS shared config profile",
			Sources: src("profile", "OCHEATMAP_PROFILE", "AWS_PROFILE"),
		},
		&cli.StringFlag{
			Name:    "endpoint",
			Usage:   "S3 compatible endpoint, e.g. a local MinIO",
			Sources: src("endpoint", "OCHEATMAP_ENDPOINT"),
			Validator: func(value string) error {
				return FlagValidators(value, URLValidator)
			},
		},
	}
}
