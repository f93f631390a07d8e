// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// NewCommandLogger returns the logger a strata command hands to its
// resolver. Records go to stderr so stdout stays clean for object
// bytes: text on a terminal, JSON lines otherwise. Every record carries
// the command name and, when one was given, the chain file.
func NewCommandLogger(level slog.Level, command, chainPath string) *slog.Logger {
	return newCommandLogger(os.Stderr, term.IsTerminal(int(os.Stderr.Fd())), level, command, chainPath)
}

func newCommandLogger(w io.Writer, text bool, level slog.Level, command, chainPath string) *slog.Logger {
	options := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if text {
		handler = slog.NewTextHandler(w, options)
	} else {
		handler = slog.NewJSONHandler(w, options)
	}
	logger := slog.New(handler).With("command", command)
	if chainPath != "" {
		logger = logger.With("chain", chainPath)
	}
	return logger
}
