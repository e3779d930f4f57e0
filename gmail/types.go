package gmail

import (
	"fmt"
	"time"

	"github.com/bassamadnan/tmail/body"
)

// MessageDetail is a single message as returned by GetMessage.
type MessageDetail struct {
	ID        string          `json:"id"`
	ThreadID  string          `json:"threadId"`
	Subject   string          `json:"subject,omitempty"`
	From      string          `json:"from,omitempty"`
	To        string          `json:"to,omitempty"`
	Date      string          `json:"date,omitempty"`
	MessageID string          `json:"messageId,omitempty"` // the Message-ID header, not the API id
	Body      string          `json:"body"`
	Kind      body.SourceKind `json:"sourceKind"`
	Sent      time.Time       `json:"sent,omitzero"` // parsed Date header, zero when unparseable
}

// MessageSummary is one entry of a message search listing.
type MessageSummary struct {
	ID           string          `json:"id"`
	ThreadID     string          `json:"threadId"`
	Snippet      string          `json:"snippet"`
	Body         string          `json:"body"`
	Subject      string          `json:"subject,omitempty"`
	Sender       string          `json:"sender,omitempty"`
	Kind         body.SourceKind `json:"sourceKind"`
	InternalDate int64           `json:"-"` // epoch ms, shown as the listing date
}

// ThreadSummary is one entry of a thread search listing, built from the
// first message of the thread.
type ThreadSummary struct {
	ID           string          `json:"id"`
	Snippet      string          `json:"snippet"`
	Body         string          `json:"body"`
	Subject      string          `json:"subject,omitempty"`
	Sender       string          `json:"sender,omitempty"`
	Kind         body.SourceKind `json:"sourceKind"`
	MessageCount int             `json:"messageCount"`
}

// Failure records one item of a batch that could not be fetched.
type Failure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// SearchResult is the outcome of a message search. Items that failed to
// fetch are listed in Failures; the rest are in Messages, in list order.
type SearchResult struct {
	Query    string           `json:"query"`
	Messages []MessageSummary `json:"messages"`
	Failures []Failure        `json:"failures,omitempty"`
	Filtered int              `json:"filtered,omitempty"`
}

// ThreadSearchResult is the thread counterpart of SearchResult.
type ThreadSearchResult struct {
	Query    string          `json:"query"`
	Threads  []ThreadSummary `json:"threads"`
	Failures []Failure       `json:"failures,omitempty"`
	Filtered int             `json:"filtered,omitempty"`
}

// FetchError is returned when a message or thread could not be retrieved.
type FetchError struct {
	Resource string
	ID       string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s %s: %v", e.Resource, e.ID, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func failureFrom(err *FetchError) Failure {
	return Failure{ID: err.ID, Error: err.Error(), Err: err}
}
