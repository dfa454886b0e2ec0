// Copyright 2024 The Gwchain Authors
// This file is part of Gwchain.
//
// Gwchain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gwchain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Gwchain. If not, see <http://www.gnu.org/licenses/>.

package log

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLvl(t *testing.T) {
	cases := map[string]Lvl{
		"debug": LvlDebug, "trace": LvlDebug,
		"": LvlInfo, "info": LvlInfo,
		"warn": LvlWarn, "warning": LvlWarn,
		"error": LvlError, "crit": LvlError,
	}
	for in, want := range cases {
		got, err := ParseLvl(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
	_, err := ParseLvl("bogus")
	require.Error(t, err)
}

func TestStreamHandlerTerminalFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(NewStreamHandler(&buf, TerminalFormat))
	l.Info("hello", "a", 1, "b", "two")

	out := buf.String()
	require.True(t, strings.Contains(out, "INFO"))
	require.True(t, strings.Contains(out, "hello"))
	require.True(t, strings.Contains(out, "a=1"))
	require.True(t, strings.Contains(out, "b=two"))
}

func TestStreamHandlerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(NewStreamHandler(&buf, JSONFormat))
	l.Warn("uh oh", "code", 42)

	out := buf.String()
	require.True(t, strings.Contains(out, `"msg":"uh oh"`))
	require.True(t, strings.Contains(out, `"lvl":"WARN"`))
	require.True(t, strings.Contains(out, `"code":42`))
}

func TestLoggerNewAttachesPermanentContext(t *testing.T) {
	var buf bytes.Buffer
	root := New(NewStreamHandler(&buf, TerminalFormat))
	child := root.New("component", "chain")
	child.Info("tip advanced", "number", 7)

	out := buf.String()
	require.True(t, strings.Contains(out, "component=chain"))
	require.True(t, strings.Contains(out, "number=7"))
}

func TestLvlFilterHandlerDropsBelowMinimum(t *testing.T) {
	var buf bytes.Buffer
	h := LvlFilterHandler(LvlWarn, NewStreamHandler(&buf, TerminalFormat))
	l := New(h)
	l.Debug("ignored")
	l.Info("ignored too")
	l.Warn("kept")

	out := buf.String()
	require.False(t, strings.Contains(out, "ignored"))
	require.True(t, strings.Contains(out, "kept"))
}

func TestDiscardHandlerAndNopDoNotPanic(t *testing.T) {
	l := New(DiscardHandler())
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")

	n := Nop()
	n.Error("discarded")
}

func TestZapHandlerDispatchesThroughCore(t *testing.T) {
	var buf zaptestBuffer
	cfg := zapcore.EncoderConfig{
		MessageKey:   "msg",
		LevelKey:     "level",
		EncodeLevel:  zapcore.LowercaseLevelEncoder,
		EncodeTime:   zapcore.ISO8601TimeEncoder,
		EncodeCaller: zapcore.ShortCallerEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), &buf, zapcore.DebugLevel)
	l := New(NewZapHandler(core))
	l.Error("boom", "reason", "bad checkpoint")

	out := buf.String()
	require.True(t, strings.Contains(out, `"msg":"boom"`))
	require.True(t, strings.Contains(out, `"reason":"bad checkpoint"`))
}

// zaptestBuffer is a minimal zapcore.WriteSyncer over a bytes.Buffer.
type zaptestBuffer struct{ bytes.Buffer }

func (b *zaptestBuffer) Sync() error { return nil }
