// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package render writes the static heat map artifacts: the data.js array of
// [lat, lon, density] triples and the index.html page filled from a template.
package render
