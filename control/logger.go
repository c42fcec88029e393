// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Minimal injectable logging, matching the small-interface/stdlib-backed
// shape used for DebugProbes.

package control

import (
	"fmt"
	"log"
	"os"
)

// Logger is the minimal logging surface used to report receive-side
// anomalies. Callers inject their own implementation; StdLogger is the
// default.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// StdLogger backs Logger with the standard library's log.Logger.
type StdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a StdLogger writing to os.Stderr with a
// "rpmsg: " prefix, timestamped per the standard library default flags.
func NewStdLogger() *StdLogger {
	return &StdLogger{l: log.New(os.Stderr, "rpmsg: ", log.LstdFlags)}
}

func (s *StdLogger) Debugf(format string, args ...any) { s.l.Output(2, "DEBUG "+fmt.Sprintf(format, args...)) }
func (s *StdLogger) Infof(format string, args ...any)  { s.l.Output(2, "INFO  "+fmt.Sprintf(format, args...)) }
func (s *StdLogger) Warnf(format string, args ...any)  { s.l.Output(2, "WARN  "+fmt.Sprintf(format, args...)) }
func (s *StdLogger) Errorf(format string, args ...any) { s.l.Output(2, "ERROR "+fmt.Sprintf(format, args...)) }

// NopLogger discards everything; useful in tests that don't want log noise.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any) {}
func (NopLogger) Infof(string, ...any)  {}
func (NopLogger) Warnf(string, ...any)  {}
func (NopLogger) Errorf(string, ...any) {}

var _ Logger = (*StdLogger)(nil)
var _ Logger = NopLogger{}
