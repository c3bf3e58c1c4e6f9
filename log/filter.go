// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package log

// Filter wraps a Logger and drops records below a configured level.
type Filter struct {
	logger Logger
	level  Level
}

// FilterOption configures a Filter.
type FilterOption func(*Filter)

// FilterLevel sets the minimum level a record must have to pass through.
func FilterLevel(level Level) FilterOption {
	return func(f *Filter) {
		f.level = level
	}
}

// NewFilter returns a Logger that forwards to logger only records whose
// level is at or above the configured minimum.
func NewFilter(logger Logger, opts ...FilterOption) Logger {
	f := &Filter{logger: logger, level: LevelDebug}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Log implements Logger.
func (f *Filter) Log(level Level, keyvals ...interface{}) error {
	if level < f.level {
		return nil
	}
	return f.logger.Log(level, keyvals...)
}
