// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package log

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
)

// EnvLevel names the environment variable holding the initial log level.
const EnvLevel = "OCHEATMAP_LOG"

// InitLogger sets up Apex with a custom handler writing to stderr and a log
// level from the OCHEATMAP_LOG env variable.
func InitLogger() {
	level := strings.ToLower(os.Getenv(EnvLevel))
	if level == "" {
		level = "error"
	}
	log.SetHandler(NewHandler(os.Stderr))

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.ErrorLevel
	}
	log.SetLevel(lvl)
}

// SetVerbose raises the level to info. It never lowers a more chatty level
// requested through OCHEATMAP_LOG.
func SetVerbose(v bool) {
	if !v {
		return
	}
	if l, ok := log.Log.(*log.Logger); ok && l.Level <= log.InfoLevel {
		return
	}
	log.SetLevel(log.InfoLevel)
}

// CustomHandler formats log messages and writes them to W.
type CustomHandler struct {
	mu sync.Mutex
	W  io.Writer
}

// NewHandler returns a CustomHandler writing to w.
func NewHandler(w io.Writer) *CustomHandler {
	return &CustomHandler{W: w}
}

// HandleLog implements the log.Handler interface
func (h *CustomHandler) HandleLog(e *log.Entry) error {
	timestamp := e.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	level := strings.ToUpper(e.Level.String())

	var b strings.Builder
	fmt.Fprintf(&b, "%s %.1s %s", timestamp.Format("2006-01-02 15:04:05"), level, e.Message)

	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, " %s=%v", name, e.Fields[name])
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.W, b.String())
	return err
}
