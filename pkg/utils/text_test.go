package utils

import "testing"

func TestTruncateShort(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("expected unchanged string, got %q", got)
	}
}

func TestTruncateLong(t *testing.T) {
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("expected truncated string, got %q", got)
	}
}

func TestTruncateDevanagari(t *testing.T) {
	// 9 runes; byte-based slicing would split mid-character
	got := Truncate("उपयोगकर्ता", 4)
	if got != "उपयो..." {
		t.Errorf("expected rune-safe cut, got %q", got)
	}
}

func TestTruncateZeroMax(t *testing.T) {
	if got := Truncate("hello", 0); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
