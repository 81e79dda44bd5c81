// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT
package command

import (
	"context"
	"os"
	"sort"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/staranto/ocheatmap/internal/config"
	"github.com/staranto/ocheatmap/internal/meta"
)

// InitApp builds the root command. A missing config file is not an error;
// flags then fall back to env vars and defaults.
func InitApp(ctx context.Context, args []string) (*cli.Command, error) {
	sd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load()
	if err != nil {
		log.Debugf("no config file: %v", err)
	}

	m := meta.Meta{
		Args:        args,
		Config:      cfg,
		Context:     ctx,
		StartingDir: sd,
	}

	app := &cli.Command{
		Name:  "ocheatmap",
		Usage: "Opencaching heat map generator",
		UsageText: `ocheatmap [options]

Downloads the Opencaching XML feed, counts active caches per 0.01 degree
cell and writes index.html and data.js for a static heat map page.`,
		Metadata: map[string]any{
			"meta": m,
		},
		Flags:  NewFlags(cfg),
		Action: RunAction,
	}

	// Make sure flags are sorted for the --help text.
	sort.Slice(app.Flags, func(i, j int) bool {
		return app.Flags[i].Names()[0] < app.Flags[j].Names()[0]
	})

	return app, nil
}

// GetMeta returns the meta.Meta stored in the command's Metadata. If missing
// or of an unexpected type, it returns the zero value.
func GetMeta(cmd *cli.Command) meta.Meta {
	if cmd == nil || cmd.Metadata == nil {
		return meta.Meta{}
	}
	if m, ok := cmd.Metadata["meta"].(meta.Meta); ok {
		return m
	}
	return meta.Meta{}
}
