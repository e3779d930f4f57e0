package gmail

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/bassamadnan/tmail/body"
	"github.com/bassamadnan/tmail/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// fakeGmail serves the subset of the Gmail REST API the client uses.
type fakeGmail struct {
	messages   map[string]*gmailapi.Message
	listed     []string
	threads    map[string]*gmailapi.Thread
	threadList []string
	listStatus int

	mu        sync.Mutex
	lastQuery string
	lastMax   string
}

func (f *fakeGmail) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		if f.listStatus != 0 {
			writeAPIError(w, f.listStatus)
			return
		}
		f.recordQuery(r)
		resp := &gmailapi.ListMessagesResponse{}
		for _, id := range f.listed {
			resp.Messages = append(resp.Messages, &gmailapi.Message{Id: id, ThreadId: "t-" + id})
		}
		writeJSON(w, resp)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		msg, ok := f.messages[r.PathValue("id")]
		if !ok {
			writeAPIError(w, http.StatusNotFound)
			return
		}
		writeJSON(w, msg)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/threads", func(w http.ResponseWriter, r *http.Request) {
		f.recordQuery(r)
		resp := &gmailapi.ListThreadsResponse{}
		for _, id := range f.threadList {
			resp.Threads = append(resp.Threads, &gmailapi.Thread{Id: id, Snippet: "thread " + id})
		}
		writeJSON(w, resp)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/threads/{id}", func(w http.ResponseWriter, r *http.Request) {
		thread, ok := f.threads[r.PathValue("id")]
		if !ok {
			writeAPIError(w, http.StatusNotFound)
			return
		}
		writeJSON(w, thread)
	})
	return mux
}

func (f *fakeGmail) recordQuery(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = r.URL.Query().Get("q")
	f.lastMax = r.URL.Query().Get("maxResults")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": http.StatusText(code)},
	})
}

func newTestClient(t *testing.T, f *fakeGmail, settings config.Settings, filters *config.Manager) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	svc, err := gmailapi.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return NewClientWithService(svc, settings, filters, nil)
}

func apiHeaders(kv ...string) []*gmailapi.MessagePartHeader {
	var out []*gmailapi.MessagePartHeader
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, &gmailapi.MessagePartHeader{Name: kv[i], Value: kv[i+1]})
	}
	return out
}

func plainMessage(id, subject, from, text string) *gmailapi.Message {
	return &gmailapi.Message{
		Id:           id,
		ThreadId:     "t-" + id,
		Snippet:      "snippet " + id,
		InternalDate: 1709649000000,
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Headers:  apiHeaders("Subject", subject, "From", from),
			Body:     &gmailapi.MessagePartBody{Data: b64(text), Size: int64(len(text))},
		},
	}
}

func htmlPartsMessage(id, subject, from, markup string) *gmailapi.Message {
	return &gmailapi.Message{
		Id:       id,
		ThreadId: "t-" + id,
		Snippet:  "snippet " + id,
		Payload: &gmailapi.MessagePart{
			MimeType: "multipart/mixed",
			Headers:  apiHeaders("Subject", subject, "From", from),
			Body:     &gmailapi.MessagePartBody{},
			Parts: []*gmailapi.MessagePart{
				{MimeType: "text/html", Body: &gmailapi.MessagePartBody{Data: b64(markup)}},
			},
		},
	}
}

func TestSearchIsolatesFailures(t *testing.T) {
	f := &fakeGmail{
		messages: map[string]*gmailapi.Message{
			"m1": plainMessage("m1", "Hello", "alice@example.com", "hello world, this body is longer than the fifty character search limit"),
			"m2": htmlPartsMessage("m2", "Promo", "shop@example.com", "<p>Hi</p>"),
		},
		listed: []string{"m1", "missing", "m2"},
	}
	c := newTestClient(t, f, config.DefaultSettings(), nil)

	res, err := c.Search(context.Background(), SearchRequest{Query: "is:unread"})
	require.NoError(t, err)

	require.Len(t, res.Messages, 2)
	assert.Equal(t, "m1", res.Messages[0].ID)
	assert.Equal(t, "t-m1", res.Messages[0].ThreadID)
	assert.Equal(t, "snippet m1", res.Messages[0].Snippet)
	assert.Equal(t, "Hello", res.Messages[0].Subject)
	assert.Equal(t, "alice@example.com", res.Messages[0].Sender)
	assert.Equal(t, body.DirectPlainBody, res.Messages[0].Kind)
	assert.Equal(t, body.Bound("hello world, this body is longer than the fifty character search limit", 50), res.Messages[0].Body)
	assert.True(t, strings.HasSuffix(res.Messages[0].Body, body.Marker))

	assert.Equal(t, "m2", res.Messages[1].ID)
	assert.Equal(t, body.PartsHTMLAggregate, res.Messages[1].Kind)
	assert.Equal(t, "<p>Hi</p>", res.Messages[1].Body)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "missing", res.Failures[0].ID)
	var fetchErr *FetchError
	require.True(t, errors.As(res.Failures[0].Err, &fetchErr))
	assert.Equal(t, "message", fetchErr.Resource)
	var apiErr *googleapi.Error
	require.True(t, errors.As(res.Failures[0].Err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Code)
}

func TestSearchPassesQueryAndLimits(t *testing.T) {
	f := &fakeGmail{}
	settings := config.DefaultSettings()
	c := newTestClient(t, f, settings, nil)

	res, err := c.Search(context.Background(), SearchRequest{Query: "from:bob", MaxResults: 3})
	require.NoError(t, err)
	assert.Empty(t, res.Messages)
	assert.NotNil(t, res.Messages)
	assert.Equal(t, "from:bob", f.lastQuery)
	assert.Equal(t, "3", f.lastMax)

	_, err = c.Search(context.Background(), SearchRequest{Query: "x"})
	require.NoError(t, err)
	assert.Equal(t, "10", f.lastMax)
}

func TestSearchListFailure(t *testing.T) {
	f := &fakeGmail{listStatus: http.StatusForbidden}
	c := newTestClient(t, f, config.DefaultSettings(), nil)

	_, err := c.Search(context.Background(), SearchRequest{Query: "anything"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listing messages")
}

func TestSearchAppliesFiltersToFullBody(t *testing.T) {
	filters, err := config.NewManager(filepath.Join(t.TempDir(), "filters.json"))
	require.NoError(t, err)
	require.NoError(t, filters.AddIgnoreKeywordInBody("unsubscribe"))
	require.NoError(t, filters.AddIgnoreSender("spam@"))

	long := strings.Repeat("news ", 20) + "click here to unsubscribe"
	f := &fakeGmail{
		messages: map[string]*gmailapi.Message{
			"keep":   plainMessage("keep", "Lunch", "bob@example.com", "noon?"),
			"body":   plainMessage("body", "Weekly", "news@example.com", long),
			"sender": plainMessage("sender", "Win", "spam@example.com", "prize"),
		},
		listed: []string{"keep", "body", "sender"},
	}
	c := newTestClient(t, f, config.DefaultSettings(), filters)

	res, err := c.Search(context.Background(), SearchRequest{Query: "in:inbox"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "keep", res.Messages[0].ID)
	assert.Equal(t, 2, res.Filtered)
}

func TestSearchBodyLimitOverride(t *testing.T) {
	f := &fakeGmail{
		messages: map[string]*gmailapi.Message{"m1": plainMessage("m1", "s", "a@example.com", "abcdefghij")},
		listed:   []string{"m1"},
	}
	c := newTestClient(t, f, config.DefaultSettings(), nil)

	res, err := c.Search(context.Background(), SearchRequest{Query: "q", BodyLimit: 4})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "abcd...", res.Messages[0].Body)
}

func TestSearchReduceAggregateHTMLSetting(t *testing.T) {
	f := &fakeGmail{
		messages: map[string]*gmailapi.Message{"m1": htmlPartsMessage("m1", "s", "a@example.com", "<p>Hi <b>there</b></p>")},
		listed:   []string{"m1"},
	}
	settings := config.DefaultSettings()
	settings.ReduceAggregateHTML = true
	c := newTestClient(t, f, settings, nil)

	res, err := c.Search(context.Background(), SearchRequest{Query: "q"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 1)
	assert.Equal(t, "Hi there", res.Messages[0].Body)
}

func TestGetMessage(t *testing.T) {
	text := strings.Repeat("0123456789", 12)
	msg := plainMessage("m1", "Status", "carol@example.com", text)
	msg.Payload.Headers = append(msg.Payload.Headers, apiHeaders(
		"To", "dave@example.com",
		"Date", "Tue, 5 Mar 2024 09:30:00 -0500 (EST)",
		"Message-ID", "<m1@example.com>",
	)...)
	f := &fakeGmail{messages: map[string]*gmailapi.Message{"m1": msg}}
	c := newTestClient(t, f, config.DefaultSettings(), nil)

	detail, err := c.GetMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", detail.ID)
	assert.Equal(t, "t-m1", detail.ThreadID)
	assert.Equal(t, "Status", detail.Subject)
	assert.Equal(t, "carol@example.com", detail.From)
	assert.Equal(t, "dave@example.com", detail.To)
	assert.Equal(t, "<m1@example.com>", detail.MessageID)
	assert.Equal(t, text[:100]+"...", detail.Body)
	assert.Equal(t, body.DirectPlainBody, detail.Kind)
	assert.False(t, detail.Sent.IsZero())

	out, err := RenderResult("the prompt m1", detail)
	require.NoError(t, err)
	assert.Contains(t, out, `"sent":"2024-03-05T09:30:00-05:00"`)
}

func TestGetMessageOmitsUnparseableDate(t *testing.T) {
	msg := plainMessage("m1", "Status", "carol@example.com", "hi")
	msg.Payload.Headers = append(msg.Payload.Headers, apiHeaders("Date", "sometime last week")...)
	c := newTestClient(t, &fakeGmail{messages: map[string]*gmailapi.Message{"m1": msg}}, config.DefaultSettings(), nil)

	detail, err := c.GetMessage(context.Background(), "m1")
	require.NoError(t, err)
	assert.True(t, detail.Sent.IsZero())

	out, err := RenderResult("the prompt m1", detail)
	require.NoError(t, err)
	assert.Contains(t, out, `"date":"sometime last week"`)
	assert.NotContains(t, out, `"sent"`)
}

func TestGetMessageNotFound(t *testing.T) {
	c := newTestClient(t, &fakeGmail{}, config.DefaultSettings(), nil)

	_, err := c.GetMessage(context.Background(), "nope")
	var fetchErr *FetchError
	require.True(t, errors.As(err, &fetchErr))
	assert.Equal(t, "nope", fetchErr.ID)
}

func TestSearchThreads(t *testing.T) {
	f := &fakeGmail{
		threads: map[string]*gmailapi.Thread{
			"th1": {Id: "th1", Messages: []*gmailapi.Message{
				htmlPartsMessage("a", "Plans", "erin@example.com", "<p>first</p>"),
				plainMessage("b", "Re: Plans", "frank@example.com", "second"),
			}},
			"th2": {Id: "th2"},
		},
		threadList: []string{"th1", "gone", "th2"},
	}
	c := newTestClient(t, f, config.DefaultSettings(), nil)

	res, err := c.SearchThreads(context.Background(), SearchRequest{Query: "subject:plans"})
	require.NoError(t, err)
	require.Len(t, res.Threads, 2)

	first := res.Threads[0]
	assert.Equal(t, "th1", first.ID)
	assert.Equal(t, "thread th1", first.Snippet)
	assert.Equal(t, "Plans", first.Subject)
	assert.Equal(t, "erin@example.com", first.Sender)
	assert.Equal(t, "<p>first</p>", first.Body)
	assert.Equal(t, body.PartsHTMLAggregate, first.Kind)
	assert.Equal(t, 2, first.MessageCount)

	assert.Equal(t, "th2", res.Threads[1].ID)
	assert.Equal(t, body.Empty, res.Threads[1].Kind)

	require.Len(t, res.Failures, 1)
	assert.Equal(t, "gone", res.Failures[0].ID)
	assert.Equal(t, "subject:plans", f.lastQuery)
}
