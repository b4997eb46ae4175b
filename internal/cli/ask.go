package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ainotes-dev/ainotes/internal/assistant"
	"github.com/ainotes-dev/ainotes/internal/model"
)

func newAskCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about your notes",
		Example: `  ainotes ask "what did I plan for the weekend?"
  ainotes ask which receipts are from June`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				answer, err := e.assistant.Ask(ctx, question)
				if err != nil {
					return err
				}
				printAnswer(cmd.OutOrStdout(), answer)
				return nil
			})
		},
	}
}

func printAnswer(out io.Writer, answer *model.Answer) {
	text := answer.Answer
	if strings.TrimSpace(text) == "" {
		text = assistant.FallbackText
	}
	fmt.Fprintln(out, text)

	if len(answer.RelevantNotes) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Related notes:")
	for _, n := range answer.RelevantNotes {
		fmt.Fprintf(out, "  %s  %s\n", n.ID, n.TitleOr("Untitled"))
	}
}

func newHistoryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse questions recorded by the server",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List past questions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				entries, err := e.client.ChatHistory(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(entries) == 0 {
					fmt.Fprintln(out, "No questions asked yet.")
					return nil
				}
				for _, h := range entries {
					fmt.Fprintf(out, "%s  %s  %s\n", h.ID, h.CreatedAt.Local().Format("2006-01-02 15:04"), h.Question)
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Print one question and its answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				h, err := e.client.ChatHistoryEntry(ctx, args[0])
				if err != nil {
					return err
				}
				printHistory(cmd.OutOrStdout(), *h)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Forget one recorded question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				if err := e.client.DeleteChatHistoryEntry(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted question %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

func printHistory(out io.Writer, h model.QAHistory) {
	fmt.Fprintf(out, "Asked:    %s\n", h.CreatedAt.Local().Format(time.RFC1123))
	fmt.Fprintf(out, "Question: %s\n", h.Question)
	// The server stores the response as a free-form object.
	if answer, ok := h.Response["answer"].(string); ok && answer != "" {
		fmt.Fprintf(out, "Answer:   %s\n", answer)
	}
}
