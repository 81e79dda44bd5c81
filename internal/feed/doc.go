// Copyright © 2026 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: MIT

// Package feed talks to the Opencaching XML interface. It downloads the
// session index and the numbered, gzip-compressed record chunks into a
// working directory and streams active cache coordinates to a Sink.
package feed
