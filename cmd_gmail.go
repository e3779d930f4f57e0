package main

import (
	"context"
	"fmt"

	"github.com/bassamadnan/tmail/gmail"
	"github.com/bassamadnan/tmail/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "get <message-id>",
		Short:   "Fetch one message and print its resolved body",
		Args:    cobra.ExactArgs(1),
		Example: `tmail get 18e0c1f2a3b4c5d6`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			detail, err := c.GetMessage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return render(cmd, "the prompt "+args[0], detail)
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var (
		maxResults int64
		limit      int
		resource   string
	)
	cmd := &cobra.Command{
		Use:     "search <query>",
		Short:   "Search messages or threads and print their bodies",
		Args:    cobra.ExactArgs(1),
		Example: `tmail search "from:alice is:unread" --max 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := gmail.SearchRequest{Query: args[0], MaxResults: maxResults, BodyLimit: limit}
			var run func(context.Context, *gmail.Client) (any, error)
			switch resource {
			case "messages":
				run = func(ctx context.Context, c *gmail.Client) (any, error) { return c.Search(ctx, req) }
			case "threads":
				run = func(ctx context.Context, c *gmail.Client) (any, error) { return c.SearchThreads(ctx, req) }
			default:
				return fmt.Errorf("unknown resource %q, want messages or threads", resource)
			}

			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			res, err := run(cmd.Context(), c)
			if err != nil {
				return err
			}
			return render(cmd, "the query "+args[0], res)
		},
	}
	cmd.Flags().Int64Var(&maxResults, "max", 0, "maximum results (0 uses max_results)")
	cmd.Flags().IntVar(&limit, "limit", 0, "body length per result (0 uses search_body_limit)")
	cmd.Flags().StringVar(&resource, "resource", "messages", "what to search: messages or threads")
	return cmd
}

func newBrowseCmd(a *app) *cobra.Command {
	var maxResults int64
	cmd := &cobra.Command{
		Use:   "browse <query>",
		Short: "Browse search results in the terminal UI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.client(cmd.Context())
			if err != nil {
				return err
			}
			req := gmail.SearchRequest{Query: args[0], MaxResults: maxResults, BodyLimit: a.settings.GetBodyLimit}
			load := func(ctx context.Context) (*gmail.SearchResult, error) {
				return c.Search(ctx, req)
			}

			a.logger.Info("starting browser", "query", args[0])
			p := tea.NewProgram(tui.NewModel(cmd.Context(), args[0], load, a.logger), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			if _, err := p.Run(); err != nil {
				return fmt.Errorf("error running terminal UI: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&maxResults, "max", 0, "maximum results (0 uses max_results)")
	return cmd
}
