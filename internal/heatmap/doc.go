// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package heatmap drives one generation run: negotiate a feed session, walk
// every chunk into the grid, render the page and optionally publish it.
package heatmap
