// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// HandlerType selects the output format.
type HandlerType string

const (
	// JSONHandler writes one JSON object per record.
	JSONHandler HandlerType = "json"
	// TextHandler writes key=value records.
	TextHandler HandlerType = "text"
	// ConsoleHandler writes compact, optionally colored records.
	ConsoleHandler HandlerType = "console"
)

// Level is a log level.
type Level = slog.Level

// Log levels.
const (
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
)

// ErrInvalidHandler is returned for an unknown handler type.
var ErrInvalidHandler = errors.New("logging: invalid handler type")

// ErrNilOutput is returned when the output writer is nil.
var ErrNilOutput = errors.New("logging: output writer is nil")

// Logger owns a configured [slog.Logger] and its level.
type Logger struct {
	handlerType    HandlerType
	output         io.Writer
	level          slog.LevelVar
	serviceName    string
	serviceVersion string
	environment    string
	addSource      bool
	color          *bool
	registerGlobal bool

	slogger *slog.Logger
}

// Option configures a [Logger].
type Option func(*Logger)

// New builds a Logger.
func New(opts ...Option) (*Logger, error) {
	l := &Logger{handlerType: JSONHandler, output: os.Stdout}
	l.level.Set(LevelInfo)
	for _, opt := range opts {
		opt(l)
	}

	if l.output == nil {
		return nil, ErrNilOutput
	}

	handlerOpts := &slog.HandlerOptions{Level: &l.level, AddSource: l.addSource}

	var h slog.Handler
	switch l.handlerType {
	case JSONHandler:
		h = slog.NewJSONHandler(l.output, handlerOpts)
	case TextHandler:
		h = slog.NewTextHandler(l.output, handlerOpts)
	case ConsoleHandler:
		color := isTerminal(l.output)
		if l.color != nil {
			color = *l.color
		}
		h = newConsoleHandler(l.output, handlerOpts, color)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidHandler, l.handlerType)
	}

	h = newTraceHandler(h)

	var attrs []slog.Attr
	if l.serviceName != "" {
		attrs = append(attrs, slog.String("service", l.serviceName))
	}
	if l.serviceVersion != "" {
		attrs = append(attrs, slog.String("version", l.serviceVersion))
	}
	if l.environment != "" {
		attrs = append(attrs, slog.String("env", l.environment))
	}
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}

	l.slogger = slog.New(h)
	if l.registerGlobal {
		slog.SetDefault(l.slogger)
	}

	return l, nil
}

// MustNew is like [New] but panics on error.
func MustNew(opts ...Option) *Logger {
	l, err := New(opts...)
	if err != nil {
		panic(err)
	}

	return l
}

// Logger returns the configured [slog.Logger].
func (l *Logger) Logger() *slog.Logger { return l.slogger }

// Level returns the current minimum level.
func (l *Logger) Level() Level { return l.level.Level() }

// SetLevel changes the minimum level of every logger derived from l.
func (l *Logger) SetLevel(level Level) { l.level.Set(level) }

// ParseLevel parses "debug", "info", "warn" or "error", case-insensitively.
func ParseLevel(s string) (Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return LevelInfo, fmt.Errorf("logging: %w", err)
	}

	return level, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
