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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StreamHandler writes each Record to w using format, serializing
// concurrent writers with mu the way erigon-lib/log/v3's StreamHandler
// guards its underlying io.Writer.
type StreamHandler struct {
	mu     sync.Mutex
	w      io.Writer
	format func(r *Record) []byte
}

func NewStreamHandler(w io.Writer, format func(r *Record) []byte) *StreamHandler {
	return &StreamHandler{w: w, format: format}
}

func (h *StreamHandler) Log(r *Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(h.format(r))
	return err
}

// TerminalFormat renders a Record as a single human-readable line:
// "LVL[timestamp] msg key=value key=value ...".
func TerminalFormat(r *Record) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%-5s[%s] %s", r.Lvl, r.Time.Format("2006-01-02T15:04:05.000"), r.Msg)
	for i := 0; i+1 < len(r.Ctx); i += 2 {
		fmt.Fprintf(&b, " %v=%v", r.Ctx[i], r.Ctx[i+1])
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

// JSONFormat renders a Record as a single JSON object line, matching
// erigon-lib/log/v3's JSONHandler output shape (lvl/t/msg plus the
// flattened ctx pairs).
func JSONFormat(r *Record) []byte {
	m := make(map[string]any, len(r.Ctx)/2+3)
	m["lvl"] = r.Lvl.String()
	m["t"] = r.Time.Format("2006-01-02T15:04:05.000Z07:00")
	m["msg"] = r.Msg
	for i := 0; i+1 < len(r.Ctx); i += 2 {
		key, ok := r.Ctx[i].(string)
		if !ok {
			key = fmt.Sprint(r.Ctx[i])
		}
		m[key] = r.Ctx[i+1]
	}
	b, err := json.Marshal(m)
	if err != nil {
		b = []byte(fmt.Sprintf(`{"lvl":"ERROR","msg":%q}`, "log: marshal record: "+err.Error()))
	}
	return append(b, '\n')
}

// ZapHandler dispatches Records through a zap core instead of this
// package's own Stream/Terminal/JSON formatters, demonstrating the
// teacher's pattern of a pluggable logging backend behind a stable
// front-end interface (erigon itself swaps log15 sinks the same way).
// It exists as an alternate handler, not the package default: every
// other constructor in this package (New/NewStreamHandler) is handler-
// agnostic and does not require zap at all.
type ZapHandler struct {
	core zapcore.Core
}

func NewZapHandler(core zapcore.Core) *ZapHandler {
	return &ZapHandler{core: core}
}

func (h *ZapHandler) Log(r *Record) error {
	fields := make([]zapcore.Field, 0, len(r.Ctx)/2)
	for i := 0; i+1 < len(r.Ctx); i += 2 {
		key, ok := r.Ctx[i].(string)
		if !ok {
			key = fmt.Sprint(r.Ctx[i])
		}
		fields = append(fields, zap.Any(key, r.Ctx[i+1]))
	}
	ce := h.core.Check(zapcore.Entry{
		Level:   zapLevel(r.Lvl),
		Time:    r.Time,
		Message: r.Msg,
	}, nil)
	if ce == nil {
		return nil
	}
	ce.Write(fields...)
	return nil
}

func zapLevel(l Lvl) zapcore.Level {
	switch l {
	case LvlDebug:
		return zapcore.DebugLevel
	case LvlWarn:
		return zapcore.WarnLevel
	case LvlError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
