// notes.go implements the "ainotes notes" command group.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ainotes-dev/ainotes/internal/model"
	"github.com/ainotes-dev/ainotes/internal/notes"
)

func newNotesCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "notes",
		Short: "List and edit notes",
	}
	cmd.AddCommand(
		newNotesListCmd(opts),
		newNotesShowCmd(opts),
		newNotesCreateCmd(opts),
		newNotesUploadCmd(opts),
		newNotesUpdateCmd(opts),
		newNotesDeleteCmd(opts),
	)
	return cmd
}

func newNotesListCmd(opts *options) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notes grouped by age",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				all, err := e.notes.List(ctx)
				if err != nil {
					return err
				}
				printGroups(cmd.OutOrStdout(), notes.Filter(all, search), time.Now(), search)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&search, "search", "s", "", "Only show notes whose title or content contains this text")
	return cmd
}

func printGroups(out io.Writer, list []model.Note, now time.Time, search string) {
	if len(list) == 0 {
		if search != "" {
			fmt.Fprintf(out, "No notes match %q.\n", search)
		} else {
			fmt.Fprintln(out, "No notes yet. Create one with: ainotes notes create")
		}
		return
	}

	first := true
	for _, g := range notes.GroupByRecency(list, now) {
		if len(g.Notes) == 0 {
			continue
		}
		if !first {
			fmt.Fprintln(out)
		}
		first = false

		fmt.Fprintf(out, "%s (%d)\n", g.Bucket.Label(), len(g.Notes))
		for _, n := range g.Notes {
			fmt.Fprintf(out, "  %s  %-5s  %s\n", n.ID, notes.KindOf(n), summary(n))
		}
	}
}

func summary(n model.Note) string {
	text := n.TitleOr("Untitled")
	if preview := strings.Join(strings.Fields(notes.Preview(n)), " "); preview != "" {
		text += " · " + preview
	}
	return text
}

func newNotesShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print one note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				n, err := e.notes.Get(ctx, args[0])
				if err != nil {
					return err
				}
				printNote(cmd.OutOrStdout(), *n)
				return nil
			})
		},
	}
}

func printNote(out io.Writer, n model.Note) {
	fmt.Fprintf(out, "%s\n", n.TitleOr("Untitled"))
	fmt.Fprintf(out, "ID:      %s\n", n.ID)
	fmt.Fprintf(out, "Kind:    %s\n", notes.KindOf(n))
	fmt.Fprintf(out, "Created: %s\n", n.CreatedAt.Local().Format(time.RFC1123))
	if !n.UpdatedAt.Equal(n.CreatedAt) {
		fmt.Fprintf(out, "Updated: %s\n", n.UpdatedAt.Local().Format(time.RFC1123))
	}

	for _, f := range n.Files {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "File:    %s\n", deref(f.Filename, f.StorageKey))
		if f.MimeType != nil {
			fmt.Fprintf(out, "Type:    %s\n", *f.MimeType)
		}
		if f.URL != nil {
			fmt.Fprintf(out, "URL:     %s\n", *f.URL)
		}
		if md := f.ImageMetadata; md != nil {
			if md.Width != nil && md.Height != nil {
				fmt.Fprintf(out, "Size:    %dx%d\n", *md.Width, *md.Height)
			}
			if md.CameraMake != nil || md.CameraModel != nil {
				fmt.Fprintf(out, "Camera:  %s\n", strings.TrimSpace(deref(md.CameraMake, "")+" "+deref(md.CameraModel, "")))
			}
			if md.DatetimeOriginal != nil {
				fmt.Fprintf(out, "Taken:   %s\n", md.DatetimeOriginal.Local().Format(time.RFC1123))
			}
			if md.GPSLatitude != nil && md.GPSLongitude != nil {
				fmt.Fprintf(out, "GPS:     %.5f, %.5f\n", *md.GPSLatitude, *md.GPSLongitude)
			}
		}
	}

	if text := n.Text(); text != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, text)
	}
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}

// readContent resolves "-" to the whole of stdin.
func readContent(cmd *cobra.Command, content string) (string, error) {
	if content != "-" {
		return content, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("reading content from stdin: %w", err)
	}
	return string(data), nil
}

func newNotesCreateCmd(opts *options) *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a text note",
		Long: `Create a text note. At least one of --title and --content is required.
Pass --content - to read the body from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readContent(cmd, content)
			if err != nil {
				return err
			}
			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				n, err := e.notes.Create(ctx, title, body)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created note %s\n", n.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Note title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Note body, or - for stdin")
	return cmd
}

func newNotesUploadCmd(opts *options) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "upload <image file>",
		Short: "Create an image note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading image: %w", err)
			}
			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				n, err := e.notes.UploadImage(ctx, notes.Upload{Filename: args[0], Data: data, Title: title})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Uploaded image note %s\n", n.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Note title")
	return cmd
}

func newNotesUpdateCmd(opts *options) *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a note's title or content",
		Long: `Replace the title and/or content of a note. Fields whose flag is not
given keep their current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			titleSet := cmd.Flags().Changed("title")
			contentSet := cmd.Flags().Changed("content")
			if !titleSet && !contentSet {
				return fmt.Errorf("nothing to update; pass --title and/or --content")
			}
			body, err := readContent(cmd, content)
			if err != nil {
				return err
			}

			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				current, err := e.notes.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if !titleSet {
					title = current.TitleOr("")
				}
				if !contentSet {
					body = current.Text()
				}
				n, err := e.notes.Update(ctx, current.ID, title, body)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated note %s\n", n.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "New body, or - for stdin")
	return cmd
}

func newNotesDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, opts, func(ctx context.Context, e *env) error {
				if err := e.notes.Delete(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted note %s\n", args[0])
				return nil
			})
		},
	}
}
