// Package assistant keeps the in-memory Q&A transcript and forwards
// questions to the server's ask endpoint.
package assistant

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ainotes-dev/ainotes/internal/apperr"
	"github.com/ainotes-dev/ainotes/internal/log"
	"github.com/ainotes-dev/ainotes/internal/model"
)

// Role of a transcript message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Fixed assistant texts.
const (
	Greeting     = "Hi! Ask me anything about your notes."
	FallbackText = "Sorry, no answer came back."
	FailureText  = "Could not send the question. Please sign in and try again."
)

// Message is one transcript entry. Answer is set on assistant replies.
type Message struct {
	ID      string
	Role    Role
	Content string
	Time    time.Time
	Answer  *model.Answer
}

// Asker sends a question to the server.
type Asker interface {
	Ask(ctx context.Context, question string) (*model.Answer, error)
}

// Bridge owns the transcript. It is never persisted.
type Bridge struct {
	asker  Asker
	logger *log.Logger

	mu         sync.Mutex
	transcript []Message
}

// NewBridge returns a Bridge with an empty transcript.
func NewBridge(asker Asker, logger *log.Logger) *Bridge {
	return &Bridge{asker: asker, logger: logger}
}

// Ask sends question. The user message is recorded first; it is followed by
// the assistant's reply or, on failure, by a system message. A blank
// question is rejected without touching the transcript.
func (b *Bridge) Ask(ctx context.Context, question string) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, apperr.Validation("ask", "question is empty")
	}

	b.append(RoleUser, question, nil)

	start := time.Now()
	answer, err := b.asker.Ask(ctx, question)
	if err != nil {
		b.append(RoleSystem, FailureText, nil)
		_ = b.logger.Append(log.LogEvent{Event: log.EventQuestionFailed, Error: err.Error()})
		return nil, err
	}

	text := answer.Answer
	if strings.TrimSpace(text) == "" {
		text = FallbackText
	}
	b.append(RoleAssistant, text, answer)

	_ = b.logger.Append(log.LogEvent{
		Event:      log.EventQuestionAsked,
		QueryType:  answer.QueryType,
		Count:      len(answer.RelevantNotes),
		DurationMs: time.Since(start).Milliseconds(),
	})
	return answer, nil
}

// Greet adds the greeting if the transcript is empty. It reports whether it did.
func (b *Bridge) Greet() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.transcript) > 0 {
		return false
	}
	b.transcript = append(b.transcript, newMessage(RoleAssistant, Greeting, nil))
	return true
}

// Transcript returns a copy of the messages in order.
func (b *Bridge) Transcript() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.transcript))
	copy(out, b.transcript)
	return out
}

// Reset clears the transcript.
func (b *Bridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transcript = nil
}

func (b *Bridge) append(role Role, content string, answer *model.Answer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transcript = append(b.transcript, newMessage(role, content, answer))
}

func newMessage(role Role, content string, answer *model.Answer) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		Time:    time.Now(),
		Answer:  answer,
	}
}
