package tutor

import (
	"strings"
	"testing"
)

func TestWelcomeMessageContainsName(t *testing.T) {
	msg := WelcomeMessage("Asha")
	if !strings.Contains(msg, "Asha") {
		t.Errorf("welcome must interpolate the name: %q", msg)
	}
	if !strings.Contains(msg, "Kritika") {
		t.Errorf("welcome must introduce the persona: %q", msg)
	}
}

func TestWelcomeMessagePlaceholder(t *testing.T) {
	msg := WelcomeMessage("")
	if !strings.Contains(msg, PlaceholderName) {
		t.Errorf("welcome must fall back to the placeholder name: %q", msg)
	}
}

func TestBuildPromptEmbedsBothFields(t *testing.T) {
	p := BuildPrompt("Asha", "How are you?")
	if p != "उपयोगकर्ता का नाम: Asha\nउपयोगकर्ता का संदेश: How are you?" {
		t.Errorf("unexpected prompt: %q", p)
	}
}

func TestBuildPromptPlaceholder(t *testing.T) {
	p := BuildPrompt("", "hello")
	if !strings.Contains(p, PlaceholderName) {
		t.Errorf("prompt must fall back to the placeholder name: %q", p)
	}
}

func TestFallbacksAreDistinct(t *testing.T) {
	if EmptyReplyFallback == ErrorFallback {
		t.Error("the two fallback strings must be distinguishable")
	}
}
