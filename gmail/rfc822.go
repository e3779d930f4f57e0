package gmail

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bassamadnan/tmail/body"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

// Header names go-message canonicalizes differently from the API.
var rfc822HeaderNames = map[string]string{
	"Message-Id": HeaderMessageID,
}

// FromRFC822 parses a raw message (an .eml file, or the decoded "raw" format
// of the API) into the same payload shape the API adapter produces. Leaf
// bodies are transfer-decoded and converted to UTF-8, then re-encoded as
// URL-safe base64 so they take the same path through the resolver.
func FromRFC822(r io.Reader) (body.Payload, Headers, error) {
	e, err := message.Read(r)
	if err != nil && !recoverable(err) {
		return body.Payload{}, nil, fmt.Errorf("reading message: %w", err)
	}

	headers := rfc822Headers(e.Header)

	root, err := entityToPart(e, 0)
	if err != nil {
		return body.Payload{}, headers, err
	}

	payload := body.Payload{MimeType: root.ContentType}
	switch {
	case root.Children != nil:
		payload.Parts = root.Children
	case root.InlineData != "":
		payload.DirectBody = &body.InlinePayload{Data: root.InlineData}
	}
	return payload, headers, nil
}

// FromRaw decodes the API's "raw" format and parses it as RFC 822.
func FromRaw(raw string) (body.Payload, Headers, error) {
	return FromRFC822(bytes.NewReader(body.DecodeBytes(raw)))
}

func recoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func rfc822Headers(h message.Header) Headers {
	var out Headers
	fields := h.Fields()
	for fields.Next() {
		name := fields.Key()
		if mapped, ok := rfc822HeaderNames[name]; ok {
			name = mapped
		}
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		out = append(out, Header{Name: name, Value: value})
	}
	return out
}

func entityToPart(e *message.Entity, depth int) (body.Part, error) {
	mediaType, _, err := e.Header.ContentType()
	if err != nil || mediaType == "" {
		mediaType = "text/plain"
	}
	part := body.Part{ContentType: mediaType}

	if mr := e.MultipartReader(); mr != nil {
		part.Children = []body.Part{}
		if depth >= body.MaxDepth {
			return part, nil
		}
		for {
			child, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil && !recoverable(err) {
				return part, fmt.Errorf("reading %s part: %w", mediaType, err)
			}
			if child == nil {
				continue
			}
			converted, err := entityToPart(child, depth+1)
			if err != nil {
				return part, err
			}
			part.Children = append(part.Children, converted)
		}
		return part, nil
	}

	if !strings.HasPrefix(mediaType, "text/") {
		return part, nil
	}
	data, err := io.ReadAll(e.Body)
	if err != nil {
		return part, fmt.Errorf("reading %s body: %w", mediaType, err)
	}
	if len(data) > 0 {
		part.InlineData = base64.RawURLEncoding.EncodeToString(data)
	}
	return part, nil
}
