package body

// Resolver picks the text source for a payload.
//
// HTML collected from a parts tree is returned as raw markup unless
// ReduceAggregateHTML is set; HTML attached directly to the payload is
// always reduced.
type Resolver struct {
	ReduceAggregateHTML bool
}

// Resolve applies the default Resolver.
func Resolve(p Payload) ResolvedBody {
	return Resolver{}.Resolve(p)
}

// Resolve checks the direct body first, then the parts tree. A payload with
// neither, or whose parts hold no text leaves, resolves to Empty.
func (r Resolver) Resolve(p Payload) ResolvedBody {
	if p.DirectBody != nil {
		text := Decode(p.DirectBody.Data)
		if mediaType(p.MimeType) == mimeTextHTML {
			return ResolvedBody{TextContent: ReduceHTML(text), SourceKind: DirectHTMLBody}
		}
		return ResolvedBody{TextContent: text, SourceKind: DirectPlainBody}
	}

	if p.Parts != nil {
		bodies := CollectParts(p.Parts)
		switch {
		case bodies.PlainText != "":
			return ResolvedBody{TextContent: bodies.PlainText, SourceKind: PartsPlainAggregate}
		case bodies.HTMLText != "":
			text := bodies.HTMLText
			if r.ReduceAggregateHTML {
				text = ReduceHTML(text)
			}
			return ResolvedBody{TextContent: text, SourceKind: PartsHTMLAggregate}
		}
	}

	return ResolvedBody{SourceKind: Empty}
}
