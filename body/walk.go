package body

import (
	"strings"
)

// MaxDepth bounds the walk. Nodes nested deeper than this contribute nothing.
const MaxDepth = 64

const (
	mimeTextPlain = "text/plain"
	mimeTextHTML  = "text/html"
)

// CollectBodies walks root depth-first, pre-order, and concatenates the
// decoded text/plain and text/html leaves in the order they are met. A node's
// own inline data is taken before its children are visited.
func CollectBodies(root *Part) Bodies {
	if root == nil {
		return Bodies{}
	}
	var w walker
	w.visit(root, 0)
	return w.result()
}

// CollectParts walks a top-level parts list as the children of one container.
func CollectParts(parts []Part) Bodies {
	return CollectBodies(&Part{Children: parts})
}

type walker struct {
	plain strings.Builder
	html  strings.Builder
}

func (w *walker) visit(p *Part, depth int) {
	if depth > MaxDepth {
		return
	}

	if p.InlineData != "" {
		switch mediaType(p.ContentType) {
		case mimeTextPlain:
			w.plain.WriteString(Decode(p.InlineData))
		case mimeTextHTML:
			w.html.WriteString(Decode(p.InlineData))
		}
	}

	for i := range p.Children {
		w.visit(&p.Children[i], depth+1)
	}
}

func (w *walker) result() Bodies {
	return Bodies{PlainText: w.plain.String(), HTMLText: w.html.String()}
}

// mediaType strips parameters and case from a declared content type.
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}
