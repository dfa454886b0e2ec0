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

// Package log is the structured-logging backend every other package
// reaches only through its own local Logger interface (chain.Logger,
// txpool.Logger, ...). It follows erigon-lib/log/v3 (itself a
// log15-style logger): a Record carrying a level/message/context, a
// pluggable Handler the Record is dispatched to, and a Logger that
// attaches permanent context with New(ctx...) the way a component
// scopes its own logs without threading key/value pairs through every
// call site.
package log

import (
	"fmt"
	"strings"
	"time"
)

// Lvl mirrors erigon-lib/log/v3's Lvl enum (Trace..Crit), narrowed to
// the four severities this rewrite's call sites use.
type Lvl int8

const (
	LvlDebug Lvl = iota
	LvlInfo
	LvlWarn
	LvlError
)

func (l Lvl) String() string {
	switch l {
	case LvlDebug:
		return "DEBUG"
	case LvlWarn:
		return "WARN"
	case LvlError:
		return "ERROR"
	default:
		return "INFO"
	}
}

// ParseLvl parses a --log.level flag value, matching erigon-lib's
// accepted spellings (case-insensitive, "warning" as a Warn alias).
func ParseLvl(s string) (Lvl, error) {
	switch strings.ToLower(s) {
	case "debug", "dbug", "trace":
		return LvlDebug, nil
	case "info", "":
		return LvlInfo, nil
	case "warn", "warning":
		return LvlWarn, nil
	case "error", "eror", "crit":
		return LvlError, nil
	default:
		return LvlInfo, fmt.Errorf("log: unknown level %q", s)
	}
}

// Record is a single log event, the unit a Handler consumes.
type Record struct {
	Time time.Time
	Lvl  Lvl
	Msg  string
	Ctx  []any // static context (from Logger.New) followed by call-site ctx
}

// Handler processes a Record, e.g. by formatting and writing it
// somewhere. Grounded on erigon-lib/log/v3's Handler interface, which
// lets a Logger's output format/destination be swapped independently
// of the Debug/Info/Warn/Error call sites that produce Records.
type Handler interface {
	Log(r *Record) error
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(r *Record) error

func (f HandlerFunc) Log(r *Record) error { return f(r) }

// DiscardHandler returns a Handler that drops every Record.
func DiscardHandler() Handler {
	return HandlerFunc(func(*Record) error { return nil })
}

// LvlFilterHandler wraps h so Records below minLvl never reach it,
// grounded on erigon-lib/log/v3's own LvlFilterHandler.
func LvlFilterHandler(minLvl Lvl, h Handler) Handler {
	return HandlerFunc(func(r *Record) error {
		if r.Lvl < minLvl {
			return nil
		}
		return h.Log(r)
	})
}

// Logger is the structural shape every package-local Logger interface
// (chain.Logger, txpool.Logger) narrows to: a message plus an
// even-length ctx slice of alternating string keys and arbitrary
// values, one method per severity, plus New to derive a child scoped
// with permanent context.
type Logger interface {
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	New(ctx ...any) Logger
}

type logger struct {
	handler Handler
	ctx     []any
}

var _ Logger = (*logger)(nil)

// New builds a root Logger dispatching every Record to handler.
func New(handler Handler) Logger {
	if handler == nil {
		handler = DiscardHandler()
	}
	return &logger{handler: handler}
}

// Nop returns a Logger that discards every record.
func Nop() Logger { return &logger{handler: DiscardHandler()} }

func (l *logger) write(lvl Lvl, msg string, ctx []any) {
	full := ctx
	if len(l.ctx) > 0 {
		full = make([]any, 0, len(l.ctx)+len(ctx))
		full = append(full, l.ctx...)
		full = append(full, ctx...)
	}
	_ = l.handler.Log(&Record{Time: now(), Lvl: lvl, Msg: msg, Ctx: full})
}

func (l *logger) Debug(msg string, ctx ...any) { l.write(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.write(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.write(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.write(LvlError, msg, ctx) }

func (l *logger) New(ctx ...any) Logger {
	child := make([]any, 0, len(l.ctx)+len(ctx))
	child = append(child, l.ctx...)
	child = append(child, ctx...)
	return &logger{handler: l.handler, ctx: child}
}

// now is a var so tests can pin it; production code never overrides it.
var now = time.Now
