package session

import (
	"context"
	"testing"

	"github.com/kritika-bot/kritika/pkg/gemini"
)

type fakeChat struct {
	id int
}

func (f *fakeChat) Send(ctx context.Context, prompt string) (*gemini.Reply, error) {
	return &gemini.Reply{Text: "ok"}, nil
}

func newCountingFactory() (Factory, *int) {
	count := 0
	return func() Chat {
		count++
		return &fakeChat{id: count}
	}, &count
}

func TestGetOrCreateCreatesOnce(t *testing.T) {
	factory, count := newCountingFactory()
	r := NewRegistry(factory)

	first := r.GetOrCreate("42")
	second := r.GetOrCreate("42")

	if first != second {
		t.Error("expected the same session on repeated lookups")
	}
	if *count != 1 {
		t.Errorf("expected exactly one session created, got %d", *count)
	}
}

func TestGetOrCreateSeparatesChats(t *testing.T) {
	factory, _ := newCountingFactory()
	r := NewRegistry(factory)

	if r.GetOrCreate("42") == r.GetOrCreate("7") {
		t.Error("distinct chat ids must get distinct sessions")
	}
	if r.Len() != 2 {
		t.Errorf("expected 2 live sessions, got %d", r.Len())
	}
}

func TestResetReplacesExistingSession(t *testing.T) {
	factory, _ := newCountingFactory()
	r := NewRegistry(factory)

	before := r.GetOrCreate("42")
	after := r.Reset("42")

	if before == after {
		t.Error("reset must produce a fresh session")
	}
	if got := r.GetOrCreate("42"); got != after {
		t.Error("registry must hold the reset session")
	}
}

func TestResetTwiceKeepsOnlyLast(t *testing.T) {
	factory, count := newCountingFactory()
	r := NewRegistry(factory)

	first := r.Reset("42")
	second := r.Reset("42")

	if first == second {
		t.Error("consecutive resets must yield distinct sessions")
	}
	if r.Len() != 1 {
		t.Errorf("expected a single registry entry, got %d", r.Len())
	}
	if got, _ := r.Peek("42"); got != second {
		t.Error("registry must hold only the second session")
	}
	if *count != 2 {
		t.Errorf("expected two sessions created in sequence, got %d", *count)
	}
}

func TestPeekDoesNotCreate(t *testing.T) {
	factory, count := newCountingFactory()
	r := NewRegistry(factory)

	if _, ok := r.Peek("42"); ok {
		t.Error("peek found a session that was never created")
	}
	if *count != 0 {
		t.Errorf("peek must not create sessions, created %d", *count)
	}
}

func TestChatIDsSorted(t *testing.T) {
	factory, _ := newCountingFactory()
	r := NewRegistry(factory)

	r.GetOrCreate("7")
	r.GetOrCreate("42")
	r.GetOrCreate("100")

	ids := r.ChatIDs()
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	if ids[0] != "100" || ids[1] != "42" || ids[2] != "7" {
		t.Errorf("expected lexicographic order, got %v", ids)
	}
}
