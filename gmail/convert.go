package gmail

import (
	"github.com/bassamadnan/tmail/body"
	gmailapi "google.golang.org/api/gmail/v1"
)

// FromAPIPart validates the top-level payload of an API message and converts
// it into the resolver's input. The API attaches a body object to every part,
// multipart containers included, so a direct body only counts when it carries
// data.
func FromAPIPart(p *gmailapi.MessagePart) body.Payload {
	if p == nil {
		return body.Payload{}
	}

	payload := body.Payload{MimeType: p.MimeType}
	if p.Body != nil && p.Body.Data != "" {
		payload.DirectBody = &body.InlinePayload{Data: p.Body.Data}
		return payload
	}
	if p.Parts != nil {
		payload.Parts = convertParts(p.Parts, 1)
	}
	return payload
}

func convertParts(parts []*gmailapi.MessagePart, depth int) []body.Part {
	out := make([]body.Part, 0, len(parts))
	if depth > body.MaxDepth {
		return out
	}
	for _, p := range parts {
		if p == nil {
			continue
		}
		part := body.Part{ContentType: p.MimeType}
		if p.Body != nil {
			part.InlineData = p.Body.Data
		}
		if len(p.Parts) > 0 {
			part.Children = convertParts(p.Parts, depth+1)
		}
		out = append(out, part)
	}
	return out
}
