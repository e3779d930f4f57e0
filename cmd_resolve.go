package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bassamadnan/tmail/body"
	"github.com/bassamadnan/tmail/gmail"
	"github.com/spf13/cobra"
	gmailapi "google.golang.org/api/gmail/v1"
)

// resolvedFile is what resolve prints for one input file.
type resolvedFile struct {
	File    string          `json:"file"`
	Subject string          `json:"subject,omitempty"`
	From    string          `json:"from,omitempty"`
	Body    string          `json:"body"`
	Kind    body.SourceKind `json:"sourceKind"`
}

func newResolveCmd(a *app) *cobra.Command {
	var (
		limit int
		full  bool
	)
	cmd := &cobra.Command{
		Use:   "resolve <file>",
		Short: "Resolve the body of a saved message without contacting Gmail",
		Long: `Resolve reads either a Gmail API message saved as JSON (full or raw
format) or an RFC 822 message such as an .eml file.`,
		Args:    cobra.ExactArgs(1),
		Example: `tmail resolve message.json --full`,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			payload, headers, err := parseMessageFile(args[0], data)
			if err != nil {
				return err
			}

			resolver := body.Resolver{ReduceAggregateHTML: a.settings.ReduceAggregateHTML}
			resolved := resolver.Resolve(payload)
			text := resolved.TextContent
			if !full {
				if limit <= 0 {
					limit = a.settings.GetBodyLimit
				}
				text = body.Bound(text, limit)
			}
			a.logger.Debug("resolved file", "file", args[0], "kind", resolved.SourceKind)

			return render(cmd, "the file "+filepath.Base(args[0]), resolvedFile{
				File:    args[0],
				Subject: headers.Value(gmail.HeaderSubject),
				From:    headers.Value(gmail.HeaderFrom),
				Body:    text,
				Kind:    resolved.SourceKind,
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "body length (0 uses get_body_limit)")
	cmd.Flags().BoolVar(&full, "full", false, "print the whole body")
	return cmd
}

// parseMessageFile treats JSON input as an API message and anything else as
// RFC 822.
func parseMessageFile(name string, data []byte) (body.Payload, gmail.Headers, error) {
	trimmed := bytes.TrimSpace(data)
	if strings.EqualFold(filepath.Ext(name), ".eml") || !bytes.HasPrefix(trimmed, []byte("{")) {
		return gmail.FromRFC822(bytes.NewReader(data))
	}

	var msg gmailapi.Message
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return body.Payload{}, nil, fmt.Errorf("parsing message JSON %s: %w", name, err)
	}
	if msg.Raw != "" {
		return gmail.FromRaw(msg.Raw)
	}
	return gmail.FromAPIPart(msg.Payload), gmail.HeadersFromAPI(msg.Payload), nil
}
