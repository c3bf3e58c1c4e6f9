// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestFilterDropsBelowLevel(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		min   Level
		want  bool
	}{
		{"debug below error min", LevelDebug, LevelError, false},
		{"error at error min", LevelError, LevelError, true},
		{"warn below error min", LevelWarn, LevelError, false},
		{"fatal above error min", LevelFatal, LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewFilter(NewStdLogger(&buf), FilterLevel(tt.min))
			_ = logger.Log(tt.level, "msg", "hello")
			got := buf.Len() > 0
			if got != tt.want {
				t.Errorf("got wrote=%v, want %v", got, tt.want)
			}
		})
	}
}

func TestHelperFormatsMessage(t *testing.T) {
	var buf bytes.Buffer
	h := NewHelper(NewFilter(NewStdLogger(&buf), FilterLevel(LevelDebug)))
	h.Errorf("failed: %d", 42)
	if !strings.Contains(buf.String(), "failed: 42") {
		t.Errorf("expected formatted message in output, got %q", buf.String())
	}
}

func TestNilHelperDoesNotPanic(t *testing.T) {
	var h *Helper
	h.Errorf("never written")
}
