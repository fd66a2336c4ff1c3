// Copyright 2026 The go-vyauma Authors
// This file is part of the go-vyauma library.
//
// The go-vyauma library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-vyauma library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-vyauma library. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTerminalHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithHandler(NewTerminalHandler(&buf, slog.LevelInfo, false))

	logger.Info("loaded bytecode bundle", "constants", 3, "caps", 1)

	line := buf.String()
	if !strings.HasPrefix(line, "INFO ") {
		t.Errorf("line %q does not start with INFO", line)
	}
	if !strings.Contains(line, "loaded bytecode bundle") {
		t.Errorf("line %q missing message", line)
	}
	if !strings.Contains(line, "constants=3") || !strings.Contains(line, "caps=1") {
		t.Errorf("line %q missing key/value context", line)
	}
}

func TestTerminalHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithHandler(NewTerminalHandler(&buf, slog.LevelWarn, false))

	logger.Info("below threshold")
	if buf.Len() != 0 {
		t.Errorf("info line emitted despite warn threshold: %q", buf.String())
	}

	logger.Warn("at threshold")
	if !strings.Contains(buf.String(), "at threshold") {
		t.Errorf("warn line missing: %q", buf.String())
	}
}

func TestModuleLoggerAddsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithHandler(NewTerminalHandler(&buf, slog.LevelDebug, false)).Module("loader")

	logger.Debug("pass complete")
	if !strings.Contains(buf.String(), "module=loader") {
		t.Errorf("line %q missing module context", buf.String())
	}
}
