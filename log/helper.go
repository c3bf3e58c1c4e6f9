// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package log

import "fmt"

// Helper wraps a Logger with convenience methods for each level, both
// as a single message and as a printf-style formatter.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger in a Helper. A nil logger yields a Helper that
// discards everything.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

func (h *Helper) log(level Level, msg string) {
	if h == nil || h.logger == nil {
		return
	}
	_ = h.logger.Log(level, "msg", msg)
}

// Debug logs at debug level.
func (h *Helper) Debug(msg string) { h.log(LevelDebug, msg) }

// Debugf logs a formatted message at debug level.
func (h *Helper) Debugf(format string, args ...interface{}) {
	h.log(LevelDebug, fmt.Sprintf(format, args...))
}

// Info logs at info level.
func (h *Helper) Info(msg string) { h.log(LevelInfo, msg) }

// Infof logs a formatted message at info level.
func (h *Helper) Infof(format string, args ...interface{}) {
	h.log(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn logs at warn level.
func (h *Helper) Warn(msg string) { h.log(LevelWarn, msg) }

// Warnf logs a formatted message at warn level.
func (h *Helper) Warnf(format string, args ...interface{}) {
	h.log(LevelWarn, fmt.Sprintf(format, args...))
}

// Error logs at error level.
func (h *Helper) Error(msg string) { h.log(LevelError, msg) }

// Errorf logs a formatted message at error level.
func (h *Helper) Errorf(format string, args ...interface{}) {
	h.log(LevelError, fmt.Sprintf(format, args...))
}

// Fatal logs at fatal level.
func (h *Helper) Fatal(msg string) { h.log(LevelFatal, msg) }

// Fatalf logs a formatted message at fatal level.
func (h *Helper) Fatalf(format string, args ...interface{}) {
	h.log(LevelFatal, fmt.Sprintf(format, args...))
}
