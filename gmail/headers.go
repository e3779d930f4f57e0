package gmail

import (
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
)

const (
	HeaderSubject   = "Subject"
	HeaderFrom      = "From"
	HeaderTo        = "To"
	HeaderDate      = "Date"
	HeaderMessageID = "Message-ID"
)

// Header is one name/value pair in wire order.
type Header struct {
	Name  string
	Value string
}

// Headers is a flat header list looked up by exact name.
type Headers []Header

// Get returns the value of the first header named exactly name.
func (h Headers) Get(name string) (string, bool) {
	for _, hdr := range h {
		if hdr.Name == name {
			return hdr.Value, true
		}
	}
	return "", false
}

// Value is Get without the presence flag.
func (h Headers) Value(name string) string {
	v, _ := h.Get(name)
	return v
}

// HeadersFromAPI copies the headers of a payload, skipping nil entries.
func HeadersFromAPI(p *gmailapi.MessagePart) Headers {
	if p == nil {
		return nil
	}
	out := make(Headers, 0, len(p.Headers))
	for _, h := range p.Headers {
		if h == nil {
			continue
		}
		out = append(out, Header{Name: h.Name, Value: h.Value})
	}
	return out
}

var dateLayouts = []string{
	time.RFC1123Z,
	"Mon, 2 Jan 2006 15:04:05 -0700 (MST)",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"2 Jan 2006 15:04:05 -0700",
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// parseDate tries the layouts seen in the wild for the Date header, then
// again with a trailing "(Zone)" comment removed.
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, ok := parseWithLayouts(value); ok {
		return t, true
	}

	noComment := value
	if open := strings.LastIndex(noComment, " ("); open != -1 {
		if closeIdx := strings.LastIndex(noComment, ")"); closeIdx > open {
			noComment = noComment[:open] + noComment[closeIdx+1:]
		}
	}
	return parseWithLayouts(strings.TrimSpace(noComment))
}

func parseWithLayouts(value string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
