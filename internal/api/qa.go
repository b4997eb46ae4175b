package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/ainotes-dev/ainotes/internal/model"
)

// Ask sends one question. The server answers from the user's notes.
func (c *Client) Ask(ctx context.Context, question string) (*model.Answer, error) {
	req, err := jsonRequest(http.MethodPost, "/notes/ask", map[string]string{"question": question})
	if err != nil {
		return nil, err
	}

	var answer model.Answer
	if err := c.Do(ctx, req, &answer); err != nil {
		return nil, err
	}
	return &answer, nil
}

// ChatHistory lists the questions the server has recorded for the user.
func (c *Client) ChatHistory(ctx context.Context) ([]model.QAHistory, error) {
	var history []model.QAHistory
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: "/notes/chat-history"}, &history); err != nil {
		return nil, err
	}
	return history, nil
}

// ChatHistoryEntry fetches one recorded question.
func (c *Client) ChatHistoryEntry(ctx context.Context, id string) (*model.QAHistory, error) {
	var entry model.QAHistory
	if err := c.Do(ctx, Request{Method: http.MethodGet, Path: historyPath(id)}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteChatHistoryEntry removes one recorded question.
func (c *Client) DeleteChatHistoryEntry(ctx context.Context, id string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: historyPath(id)}, nil)
}

func historyPath(id string) string {
	return "/notes/chat-history/" + url.PathEscape(id)
}
