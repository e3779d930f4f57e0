package gmail

import (
	"context"
	"fmt"

	"github.com/bassamadnan/tmail/body"
	"golang.org/x/sync/errgroup"
	gmailapi "google.golang.org/api/gmail/v1"
)

// SearchRequest describes one listing. Zero values fall back to settings.
type SearchRequest struct {
	Query      string
	MaxResults int64
	BodyLimit  int
}

// Resolve runs the body pipeline over an API message without bounding.
func (c *Client) Resolve(msg *gmailapi.Message) body.ResolvedBody {
	if msg == nil {
		return body.ResolvedBody{SourceKind: body.Empty}
	}
	resolved := c.resolver.Resolve(FromAPIPart(msg.Payload))
	if resolved.SourceKind == body.Empty {
		c.log.Debug("no body content", "id", msg.Id)
	}
	return resolved
}

// GetMessage fetches one message in full format and resolves its body,
// bounded at the configured get limit.
func (c *Client) GetMessage(ctx context.Context, id string) (*MessageDetail, error) {
	msg, err := c.srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, &FetchError{Resource: "message", ID: id, Err: err}
	}

	headers := HeadersFromAPI(msg.Payload)
	resolved := c.Resolve(msg)
	detail := &MessageDetail{
		ID:        msg.Id,
		ThreadID:  msg.ThreadId,
		Subject:   headers.Value(HeaderSubject),
		From:      headers.Value(HeaderFrom),
		To:        headers.Value(HeaderTo),
		Date:      headers.Value(HeaderDate),
		MessageID: headers.Value(HeaderMessageID),
		Body:      body.Bound(resolved.TextContent, c.settings.GetBodyLimit),
		Kind:      resolved.SourceKind,
	}
	if t, ok := parseDate(detail.Date); ok {
		detail.Sent = t
	} else if detail.Date != "" {
		c.log.Warn("could not parse date", "id", id, "date", detail.Date)
	}
	c.log.Debug("message resolved", "id", id, "kind", resolved.SourceKind)
	return detail, nil
}

// Search lists messages matching the query and fetches each of them
// concurrently. A message that fails to fetch is reported in Failures and
// does not affect the others; only a failing list call fails the search.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	req = c.withDefaults(req)

	list, err := c.srv.Users.Messages.List(user).Q(req.Query).MaxResults(req.MaxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing messages for %q: %w", req.Query, err)
	}
	result := &SearchResult{Query: req.Query, Messages: []MessageSummary{}}
	if len(list.Messages) == 0 {
		c.log.Info("no messages found", "query", req.Query)
		return result, nil
	}

	refs := list.Messages
	summaries := make([]*MessageSummary, len(refs))
	texts := make([]string, len(refs))
	failures := make([]*FetchError, len(refs))

	var g errgroup.Group
	g.SetLimit(c.settings.FetchConcurrency)
	for i, ref := range refs {
		if ref == nil {
			continue
		}
		g.Go(func() error {
			msg, err := c.srv.Users.Messages.Get(user, ref.Id).Format("full").Context(ctx).Do()
			if err != nil {
				failures[i] = &FetchError{Resource: "message", ID: ref.Id, Err: err}
				return nil
			}
			summaries[i], texts[i] = c.summarize(ref, msg, req.BodyLimit)
			return nil
		})
	}
	_ = g.Wait()

	filters := c.currentFilters()
	for i := range refs {
		if failures[i] != nil {
			c.log.Error("message fetch failed", "id", failures[i].ID, "err", failures[i].Err)
			result.Failures = append(result.Failures, failureFrom(failures[i]))
			continue
		}
		s := summaries[i]
		if s == nil {
			continue
		}
		if rule, ok := filters.Match(s.Sender, s.Subject, texts[i]); ok {
			c.log.Info("filtered message", "id", s.ID, "rule", rule)
			result.Filtered++
			continue
		}
		result.Messages = append(result.Messages, *s)
	}
	c.log.Info("search complete", "query", req.Query, "messages", len(result.Messages),
		"failures", len(result.Failures), "filtered", result.Filtered)
	return result, nil
}

// summarize returns the listing entry and the unbounded body text, which
// body filters match against.
func (c *Client) summarize(ref, msg *gmailapi.Message, limit int) (*MessageSummary, string) {
	headers := HeadersFromAPI(msg.Payload)
	resolved := c.Resolve(msg)

	s := &MessageSummary{
		ID:           ref.Id,
		ThreadID:     ref.ThreadId,
		Snippet:      ref.Snippet,
		Body:         body.Bound(resolved.TextContent, limit),
		Subject:      headers.Value(HeaderSubject),
		Sender:       headers.Value(HeaderFrom),
		Kind:         resolved.SourceKind,
		InternalDate: msg.InternalDate,
	}
	// messages.list only returns ids; fill the rest from the full message.
	if s.ThreadID == "" {
		s.ThreadID = msg.ThreadId
	}
	if s.Snippet == "" {
		s.Snippet = msg.Snippet
	}
	return s, resolved.TextContent
}

// SearchThreads lists threads matching the query and summarizes each by its
// first message. Failures are isolated per thread as in Search.
func (c *Client) SearchThreads(ctx context.Context, req SearchRequest) (*ThreadSearchResult, error) {
	req = c.withDefaults(req)

	list, err := c.srv.Users.Threads.List(user).Q(req.Query).MaxResults(req.MaxResults).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("listing threads for %q: %w", req.Query, err)
	}
	result := &ThreadSearchResult{Query: req.Query, Threads: []ThreadSummary{}}
	if len(list.Threads) == 0 {
		c.log.Info("no threads found", "query", req.Query)
		return result, nil
	}

	refs := list.Threads
	summaries := make([]*ThreadSummary, len(refs))
	texts := make([]string, len(refs))
	failures := make([]*FetchError, len(refs))

	var g errgroup.Group
	g.SetLimit(c.settings.FetchConcurrency)
	for i, ref := range refs {
		if ref == nil {
			continue
		}
		g.Go(func() error {
			thread, err := c.srv.Users.Threads.Get(user, ref.Id).Format("full").Context(ctx).Do()
			if err != nil {
				failures[i] = &FetchError{Resource: "thread", ID: ref.Id, Err: err}
				return nil
			}
			summaries[i], texts[i] = c.summarizeThread(ref, thread, req.BodyLimit)
			return nil
		})
	}
	_ = g.Wait()

	filters := c.currentFilters()
	for i := range refs {
		if failures[i] != nil {
			c.log.Error("thread fetch failed", "id", failures[i].ID, "err", failures[i].Err)
			result.Failures = append(result.Failures, failureFrom(failures[i]))
			continue
		}
		s := summaries[i]
		if s == nil {
			continue
		}
		if rule, ok := filters.Match(s.Sender, s.Subject, texts[i]); ok {
			c.log.Info("filtered thread", "id", s.ID, "rule", rule)
			result.Filtered++
			continue
		}
		result.Threads = append(result.Threads, *s)
	}
	return result, nil
}

func (c *Client) summarizeThread(ref, thread *gmailapi.Thread, limit int) (*ThreadSummary, string) {
	s := &ThreadSummary{
		ID:           ref.Id,
		Snippet:      ref.Snippet,
		Kind:         body.Empty,
		MessageCount: len(thread.Messages),
	}
	if s.Snippet == "" {
		s.Snippet = thread.Snippet
	}
	if len(thread.Messages) == 0 || thread.Messages[0] == nil {
		return s, ""
	}

	first := thread.Messages[0]
	headers := HeadersFromAPI(first.Payload)
	resolved := c.Resolve(first)
	s.Subject = headers.Value(HeaderSubject)
	s.Sender = headers.Value(HeaderFrom)
	s.Body = body.Bound(resolved.TextContent, limit)
	s.Kind = resolved.SourceKind
	return s, resolved.TextContent
}

func (c *Client) withDefaults(req SearchRequest) SearchRequest {
	if req.MaxResults <= 0 {
		req.MaxResults = c.settings.MaxResults
	}
	if req.BodyLimit <= 0 {
		req.BodyLimit = c.settings.SearchBodyLimit
	}
	return req
}

func (c *Client) currentFilters() filterMatcher {
	if c.filters == nil {
		return noFilters{}
	}
	return c.filters.GetFilters()
}

type filterMatcher interface {
	Match(from, subject, text string) (string, bool)
}

type noFilters struct{}

func (noFilters) Match(string, string, string) (string, bool) { return "", false }
