// Package body turns the part tree of a fetched mail message into a bounded
// plain-text body. Everything here is a pure function over in-memory values
// and is safe to call from many goroutines at once.
package body

import "fmt"

// Part is one node of a message's MIME part tree.
type Part struct {
	ContentType string
	InlineData  string // URL-safe base64; empty when the node carries no data
	Children    []Part
}

// InlinePayload is a body attached directly to the top-level payload.
type InlinePayload struct {
	Data string
}

// Payload is the top-level message payload as handed over by an ingress
// adapter. At most one of DirectBody and Parts is consulted; DirectBody wins.
type Payload struct {
	DirectBody *InlinePayload
	MimeType   string
	Parts      []Part
}

// SourceKind records which path of the resolver produced a body.
type SourceKind int

const (
	Empty SourceKind = iota
	DirectPlainBody
	DirectHTMLBody
	PartsPlainAggregate
	PartsHTMLAggregate
)

var sourceKindNames = map[SourceKind]string{
	Empty:               "empty",
	DirectPlainBody:     "directPlainBody",
	DirectHTMLBody:      "directHtmlBody",
	PartsPlainAggregate: "partsPlainAggregate",
	PartsHTMLAggregate:  "partsHtmlAggregate",
}

func (k SourceKind) String() string {
	if name, ok := sourceKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText makes the kind show up by name in JSON output.
func (k SourceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText accepts the names written by MarshalText.
func (k *SourceKind) UnmarshalText(text []byte) error {
	for kind, name := range sourceKindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown source kind %q", text)
}

// ResolvedBody is the output of the resolver.
type ResolvedBody struct {
	TextContent string     `json:"textContent"`
	SourceKind  SourceKind `json:"sourceKind"`
}

// Bodies holds the text aggregated per leaf type by the walker.
type Bodies struct {
	PlainText string
	HTMLText  string
}
