package tutor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kritika-bot/kritika/pkg/bus"
	"github.com/kritika-bot/kritika/pkg/gemini"
	"github.com/kritika-bot/kritika/pkg/session"
)

// fakeChat records prompts and returns a canned reply or error.
type fakeChat struct {
	prompts []string
	reply   *gemini.Reply
	err     error
}

func (f *fakeChat) Send(ctx context.Context, prompt string) (*gemini.Reply, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return nil, f.err
	}
	return f.reply, nil
}

type fixture struct {
	bus      *bus.MessageBus
	registry *session.Registry
	loop     *Loop
	chats    []*fakeChat
}

func newFixture(reply *gemini.Reply, err error) *fixture {
	f := &fixture{bus: bus.NewMessageBus()}
	f.registry = session.NewRegistry(func() session.Chat {
		c := &fakeChat{reply: reply, err: err}
		f.chats = append(f.chats, c)
		return c
	})
	f.loop = NewLoop(f.bus, f.registry)
	return f
}

func (f *fixture) drainOutbound(t *testing.T) []bus.OutboundMessage {
	t.Helper()
	var out []bus.OutboundMessage
	for {
		msg, ok := f.bus.TryConsumeOutbound()
		if !ok {
			return out
		}
		out = append(out, msg)
	}
}

func startEvent(chatID, name string) bus.InboundMessage {
	return bus.InboundMessage{Channel: "telegram", Kind: bus.EventStart, ChatID: chatID, SenderName: name}
}

func textEvent(chatID, name, text string) bus.InboundMessage {
	return bus.InboundMessage{Channel: "telegram", Kind: bus.EventMessage, ChatID: chatID, SenderName: name, Content: text}
}

func TestStartEventResetsSessionAndWelcomes(t *testing.T) {
	f := newFixture(&gemini.Reply{Text: "hi"}, nil)

	f.loop.handleEvent(context.Background(), startEvent("42", "Asha"))

	if _, ok := f.registry.Peek("42"); !ok {
		t.Error("start event must create a session for the chat")
	}
	out := f.drainOutbound(t)
	if len(out) != 1 {
		t.Fatalf("expected exactly one outbound message, got %d", len(out))
	}
	if !strings.Contains(out[0].Content, "Asha") {
		t.Errorf("welcome message must contain the display name: %q", out[0].Content)
	}
	if out[0].ChatID != "42" || out[0].Channel != "telegram" {
		t.Errorf("welcome addressed wrong conversation: %+v", out[0])
	}
}

func TestStartEventDistinctFromPriorSession(t *testing.T) {
	f := newFixture(&gemini.Reply{Text: "hi"}, nil)

	f.loop.handleEvent(context.Background(), textEvent("42", "Asha", "hello"))
	before, _ := f.registry.Peek("42")

	f.loop.handleEvent(context.Background(), startEvent("42", "Asha"))
	after, _ := f.registry.Peek("42")

	if before == after {
		t.Error("start event must replace the existing session")
	}
}

func TestStartTwiceYieldsTwoSessionsInSequence(t *testing.T) {
	f := newFixture(&gemini.Reply{Text: "hi"}, nil)
	ctx := context.Background()

	f.loop.handleEvent(ctx, startEvent("42", "Asha"))
	first, _ := f.registry.Peek("42")
	f.loop.handleEvent(ctx, startEvent("42", "Asha"))
	second, _ := f.registry.Peek("42")

	if first == second {
		t.Error("consecutive starts must produce distinct sessions")
	}
	if f.registry.Len() != 1 {
		t.Errorf("registry must hold only the latest session, has %d", f.registry.Len())
	}
}

func TestMessageEventRelaysReply(t *testing.T) {
	f := newFixture(&gemini.Reply{Text: "I am well"}, nil)

	f.loop.handleEvent(context.Background(), textEvent("42", "Asha", "How are you?"))

	out := f.drainOutbound(t)
	if len(out) != 1 {
		t.Fatalf("expected exactly one outbound message, got %d", len(out))
	}
	if out[0].Content != "I am well" {
		t.Errorf("reply must be relayed verbatim, got %q", out[0].Content)
	}
}

func TestMessageEventLazilyCreatesSession(t *testing.T) {
	f := newFixture(&gemini.Reply{Text: "reply"}, nil)

	f.loop.handleEvent(context.Background(), textEvent("42", "Asha", "hello"))

	if len(f.chats) != 1 {
		t.Errorf("expected exactly one session created, got %d", len(f.chats))
	}
	if _, ok := f.registry.Peek("42"); !ok {
		t.Error("first message must create a session without a start event")
	}
	if len(f.drainOutbound(t)) != 1 {
		t.Error("expected exactly one outbound message")
	}
}

func TestMessageEventPromptEmbedsNameAndText(t *testing.T) {
	f := newFixture(&gemini.Reply{Text: "reply"}, nil)

	f.loop.handleEvent(context.Background(), textEvent("42", "Asha", "How are you?"))

	if len(f.chats) != 1 || len(f.chats[0].prompts) != 1 {
		t.Fatalf("expected one prompt sent, got %+v", f.chats)
	}
	prompt := f.chats[0].prompts[0]
	if !strings.Contains(prompt, "Asha") || !strings.Contains(prompt, "How are you?") {
		t.Errorf("prompt must embed name and raw text: %q", prompt)
	}
}

func TestMessageEventPlaceholderName(t *testing.T) {
	f := newFixture(&gemini.Reply{Text: "reply"}, nil)

	f.loop.handleEvent(context.Background(), textEvent("42", "", "hello"))

	if !strings.Contains(f.chats[0].prompts[0], PlaceholderName) {
		t.Errorf("prompt must fall back to the placeholder name: %q", f.chats[0].prompts[0])
	}
}

func TestEmptyTextSilentlyIgnored(t *testing.T) {
	f := newFixture(&gemini.Reply{Text: "reply"}, nil)
	ctx := context.Background()

	f.loop.handleEvent(ctx, textEvent("42", "Asha", ""))
	f.loop.handleEvent(ctx, textEvent("42", "Asha", "   "))

	if len(f.drainOutbound(t)) != 0 {
		t.Error("empty text must emit zero outbound messages")
	}
	if f.registry.Len() != 0 {
		t.Error("empty text must leave the registry unchanged")
	}
}

func TestModelErrorSendsFallback(t *testing.T) {
	f := newFixture(nil, errors.New("network unreachable"))

	f.loop.handleEvent(context.Background(), textEvent("7", "Asha", "hello"))

	out := f.drainOutbound(t)
	if len(out) != 1 {
		t.Fatalf("expected exactly one outbound fallback, got %d", len(out))
	}
	if out[0].Content != ErrorFallback {
		t.Errorf("expected the error fallback string, got %q", out[0].Content)
	}
	if _, ok := f.registry.Peek("7"); !ok {
		t.Error("a session must exist for the chat even after a failed call")
	}
}

func TestEmptyReplySendsFallback(t *testing.T) {
	f := newFixture(&gemini.Reply{BlockReason: "SAFETY"}, nil)

	f.loop.handleEvent(context.Background(), textEvent("42", "Asha", "hello"))

	out := f.drainOutbound(t)
	if len(out) != 1 {
		t.Fatalf("expected exactly one outbound fallback, got %d", len(out))
	}
	if out[0].Content != EmptyReplyFallback {
		t.Errorf("expected the empty-reply fallback string, got %q", out[0].Content)
	}
}

func TestLoopSurvivesFailures(t *testing.T) {
	f := newFixture(nil, errors.New("boom"))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		f.loop.Run(ctx)
		close(done)
	}()

	f.bus.PublishInbound(textEvent("7", "Asha", "first"))
	f.bus.PublishInbound(textEvent("8", "Ravi", "second"))

	for i := 0; i < 2; i++ {
		msg, ok := f.bus.ConsumeOutbound(ctx)
		if !ok {
			t.Fatal("loop stopped before handling all events")
		}
		if msg.Content != ErrorFallback {
			t.Errorf("expected fallback, got %q", msg.Content)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on context cancellation")
	}
}

func TestReplyPartsPrecedence(t *testing.T) {
	f := newFixture(&gemini.Reply{
		Parts: []gemini.Part{{Text: ""}, {Text: "from parts"}},
	}, nil)

	f.loop.handleEvent(context.Background(), textEvent("42", "Asha", "hello"))

	out := f.drainOutbound(t)
	if len(out) != 1 || out[0].Content != "from parts" {
		t.Errorf("expected parts extraction to produce the reply, got %+v", out)
	}
}
