// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDoc = "# ocheatmap - Opencaching heat map generator\n\n" +
	"## Short description\n\n" +
	"Builds a static heat map\nof active caches.\n\n" +
	"## Quick examples\n\n" +
	"```sh\n" +
	"# Build into ./out\n" +
	"ocheatmap -v\n\n" +
	"# Keep downloads between runs\n" +
	"ocheatmap   --datadir  ~/.cache/ocheatmap\n" +
	"ocheatmap --summary text\n" +
	"```\n"

func TestExtractTitleAndShortDesc(t *testing.T) {
	title, short := extractTitleAndShortDesc(sampleDoc)
	assert.Equal(t, "ocheatmap - Opencaching heat map generator", title)
	assert.Equal(t, "Builds a static heat map of active caches.", short)

	_, short = extractTitleAndShortDesc("# Title only\n")
	assert.Equal(t, "Title only.", short)
}

func TestExtractQuickExamples(t *testing.T) {
	exs := extractQuickExamples(sampleDoc)
	assert.Equal(t, []example{
		{Desc: "Build into ./out", Cmd: "ocheatmap -v"},
		{Desc: "Keep downloads between runs", Cmd: "ocheatmap --datadir ~/.cache/ocheatmap"},
		{Desc: "Example", Cmd: "ocheatmap --summary text"},
	}, exs)

	assert.Nil(t, extractQuickExamples("# nothing here\n"))
}

func TestBuildTLDR(t *testing.T) {
	got := buildTLDR("", "", nil)
	assert.Equal(t, "# ocheatmap\n\n> ocheatmap\n> More information: https://github.com/staranto/ocheatmap.\n\n- Show help:\n\n`ocheatmap --help`\n", got)

	got = buildTLDR("t", "Builds maps.", []example{{Desc: "Run", Cmd: "ocheatmap"}})
	assert.Contains(t, got, "> Builds maps.\n")
	assert.Contains(t, got, "- Run:\n\n`ocheatmap`\n")
}

func TestWriteFileIfChanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.1")

	require.NoError(t, writeFileIfChanged(path, []byte("a\n"), true))
	info, err := os.Stat(path)
	require.NoError(t, err)

	// Same content modulo surrounding whitespace is not rewritten.
	require.NoError(t, writeFileIfChanged(path, []byte("a"), true))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n", string(got))

	after, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), after.ModTime())
}
