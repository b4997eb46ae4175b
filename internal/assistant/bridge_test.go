package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/log"
	"github.com/ainotes-dev/ainotes/internal/model"
)

type fakeAsker struct {
	answer    *model.Answer
	err       error
	questions []string
}

func (f *fakeAsker) Ask(_ context.Context, q string) (*model.Answer, error) {
	f.questions = append(f.questions, q)
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func newTestBridge(t *testing.T, asker *fakeAsker) (*Bridge, *log.Logger) {
	t.Helper()
	logger, err := log.NewLogger(t.TempDir())
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	return NewBridge(asker, logger), logger
}

func roles(msgs []Message) []Role {
	out := make([]Role, len(msgs))
	for i, m := range msgs {
		out[i] = m.Role
	}
	return out
}

func TestAsk_Success(t *testing.T) {
	conf := 0.9
	asker := &fakeAsker{answer: &model.Answer{
		Answer:        "Tuesday",
		QueryType:     "temporal",
		Confidence:    &conf,
		RelevantNotes: []model.Note{{ID: "n1"}},
	}}
	b, logger := newTestBridge(t, asker)

	got, err := b.Ask(context.Background(), "  When is the dentist? ")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if got.QueryType != "temporal" || len(got.RelevantNotes) != 1 {
		t.Errorf("answer = %+v", got)
	}
	if asker.questions[0] != "When is the dentist?" {
		t.Errorf("question sent = %q", asker.questions[0])
	}

	msgs := b.Transcript()
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Fatalf("transcript roles = %v", roles(msgs))
	}
	if msgs[1].Content != "Tuesday" || msgs[1].Answer == nil {
		t.Errorf("assistant message = %+v", msgs[1])
	}
	if msgs[0].ID == msgs[1].ID {
		t.Error("message ids are not unique")
	}

	events, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 1 || events[0].Event != log.EventQuestionAsked || events[0].QueryType != "temporal" {
		t.Errorf("events = %+v", events)
	}
}

func TestAsk_EmptyAnswerUsesFallback(t *testing.T) {
	b, _ := newTestBridge(t, &fakeAsker{answer: &model.Answer{Answer: "  "}})

	if _, err := b.Ask(context.Background(), "anything?"); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	msgs := b.Transcript()
	if msgs[len(msgs)-1].Content != FallbackText {
		t.Errorf("last message = %q, want fallback", msgs[len(msgs)-1].Content)
	}
}

func TestAsk_FailureAppendsSystemMessage(t *testing.T) {
	b, logger := newTestBridge(t, &fakeAsker{err: apperr.FromStatus("POST /notes/ask", 401, "expired")})

	_, err := b.Ask(context.Background(), "what did I write?")
	if !errors.Is(err, apperr.ErrAuth) {
		t.Fatalf("Ask() error = %v, want auth", err)
	}

	msgs := b.Transcript()
	if len(msgs) != 2 || msgs[0].Role != RoleUser || msgs[1].Role != RoleSystem {
		t.Fatalf("transcript roles = %v, want [user system]", roles(msgs))
	}
	if msgs[1].Content != FailureText {
		t.Errorf("system message = %q", msgs[1].Content)
	}

	events, err := logger.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(events) != 1 || events[0].Event != log.EventQuestionFailed {
		t.Errorf("events = %+v", events)
	}
}

func TestAsk_BlankQuestion(t *testing.T) {
	asker := &fakeAsker{answer: &model.Answer{Answer: "x"}}
	b, _ := newTestBridge(t, asker)

	if _, err := b.Ask(context.Background(), " \t\n"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("Ask() error = %v, want validation", err)
	}
	if len(b.Transcript()) != 0 {
		t.Error("blank question changed the transcript")
	}
	if len(asker.questions) != 0 {
		t.Error("blank question was sent")
	}
}

func TestGreetAndReset(t *testing.T) {
	b, _ := newTestBridge(t, &fakeAsker{answer: &model.Answer{Answer: "ok"}})

	if !b.Greet() {
		t.Fatal("Greet on empty transcript returned false")
	}
	if b.Greet() {
		t.Error("second Greet should not add another greeting")
	}
	msgs := b.Transcript()
	if len(msgs) != 1 || msgs[0].Role != RoleAssistant || msgs[0].Content != Greeting {
		t.Errorf("transcript = %+v", msgs)
	}

	msgs[0].Content = "mutated"
	if b.Transcript()[0].Content != Greeting {
		t.Error("Transcript() did not return a copy")
	}

	b.Reset()
	if len(b.Transcript()) != 0 {
		t.Error("Reset left messages behind")
	}
}
