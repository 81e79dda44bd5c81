// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package grid buckets coordinates into 0.01 degree cells and keeps the
// per-cell counts used to shade the heat map.
package grid
