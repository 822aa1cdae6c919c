// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel_SetByName(t *testing.T) {
	prev := Level.lvl.Level()
	defer Level.Set(prev)

	tests := map[string]slog.Level{
		"error":   slog.LevelError,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"off":     levelOff,
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			Level.Set(slog.LevelWarn)
			Level.SetByName(name)
			assert.Equal(t, want, Level.lvl.Level())
		})
	}
}

func TestLogger_With(t *testing.T) {
	prev := Level.lvl.Level()
	defer Level.Set(prev)
	Level.Set(slog.LevelDebug)

	var buf bytes.Buffer
	l := NewWithWriter(&buf).With(slog.String("check", "bgp-status"))

	l.Debugf("connecting to %s", "192.0.2.1")

	out := buf.String()
	assert.Contains(t, out, "level=debug")
	assert.Contains(t, out, "check=bgp-status")
	assert.Contains(t, out, `msg="connecting to 192.0.2.1"`)
}

func TestLogger_LevelFilters(t *testing.T) {
	prev := Level.lvl.Level()
	defer Level.Set(prev)
	Level.Set(slog.LevelWarn)

	var buf bytes.Buffer
	l := NewWithWriter(&buf)

	l.Debug("dropped")
	assert.Empty(t, buf.String())

	l.Warningf("host key of %s is not verified", "192.0.2.1:22")
	assert.Contains(t, buf.String(), "level=warn")

	Level.SetByName("unknown")
	assert.Equal(t, slog.LevelWarn, Level.lvl.Level())
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Debugf("nothing %d", 1) })
}
