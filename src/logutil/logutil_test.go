package logutil

import (
	"strings"
	"testing"
)

func TestRedactKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", "(unset)"},
		{"short", "********"},
		{"sk-1234567890abcd", "sk-1...abcd"},
	}
	for _, tt := range tests {
		if got := RedactKey(tt.in); got != tt.want {
			t.Errorf("RedactKey(%q) = %q, expected %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeForLog(t *testing.T) {
	got := SanitizeForLog("line1\nline2\tend\x07")
	if got != "line1\\nline2\\tend?" {
		t.Errorf("unexpected sanitized text %q", got)
	}

	long := strings.Repeat("字", 150)
	got = SanitizeForLog(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("expected truncation marker, got %q", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != 100 {
		t.Errorf("expected 100 runes before marker, got %d", n)
	}
}
