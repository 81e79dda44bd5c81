// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package command defines the ocheatmap CLI. It wires flags, their env and
// config file sources, validators and the run action.
package command
