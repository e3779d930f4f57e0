package body

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var newlineRun = regexp.MustCompile(`\n+`)

// ReduceHTML renders an HTML document as a single line of plain text: the
// text content of <body> with every whitespace run collapsed to one space.
// Broken markup yields whatever text the parser could recover.
func ReduceHTML(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return NormalizeWhitespace(tokenText(src))
	}

	root := findBody(doc)
	if root == nil {
		root = doc
	}

	var sb strings.Builder
	writeText(&sb, root)
	return NormalizeWhitespace(sb.String())
}

// NormalizeWhitespace collapses newline runs to one newline, then every
// whitespace run (newlines included) to one space, then trims the ends.
func NormalizeWhitespace(s string) string {
	s = newlineRun.ReplaceAllString(s, "\n")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.Body {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func writeText(sb *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		return
	case html.CommentNode:
		return
	case html.ElementNode:
		if skipElement(n.DataAtom) {
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(sb, c)
	}

	// Block boundaries keep adjacent paragraphs from running together.
	if n.Type == html.ElementNode && blockElement(n.DataAtom) {
		sb.WriteByte('\n')
	}
}

func skipElement(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head, atom.Title:
		return true
	}
	return false
}

func blockElement(a atom.Atom) bool {
	switch a {
	case atom.P, atom.Div, atom.Br, atom.Li, atom.Tr, atom.Td, atom.Th,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
		atom.Blockquote, atom.Pre, atom.Table, atom.Ul, atom.Ol, atom.Hr:
		return true
	}
	return false
}

// tokenText is the fallback when the tree builder gives up: plain text
// tokens in document order, skipping script and style content.
func tokenText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var sb strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return sb.String()
		case html.StartTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); a == atom.Script || a == atom.Style {
				skip++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if a := atom.Lookup(name); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				sb.Write(z.Text())
			}
		}
	}
}
