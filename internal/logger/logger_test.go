package logger

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	for _, json := range []bool{false, true} {
		for _, debug := range []bool{false, true} {
			logger, err := New(json, debug)
			if err != nil {
				t.Fatalf("New(%v, %v): %v", json, debug, err)
			}
			if debug != logger.Core().Enabled(-1) {
				t.Errorf("New(%v, %v): debug level enabled = %v", json, debug, !debug)
			}
		}
	}
}

func TestTruncateForLog(t *testing.T) {
	if got := TruncateForLog("short", 10); got != "short" {
		t.Errorf("short input changed: %q", got)
	}

	got := TruncateForLog(strings.Repeat("x", 30), 10)
	if got != strings.Repeat("x", 10)+"..." {
		t.Errorf("truncated = %q", got)
	}

	if got := TruncateForLog("anything", 0); got != "" {
		t.Errorf("zero limit = %q, want empty", got)
	}
}
