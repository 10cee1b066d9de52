// Package richtext handles the HTML bodies of answers.
package richtext

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var md = goldmark.New()

// MarkdownToHTML renders a markdown answer to the HTML stored with answers.
func MarkdownToHTML(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// Clean removes empty paragraphs and collapses runs of <br> line breaks in an
// answer body. changed is false when nothing was removed, in which case the
// input is returned untouched.
func Clean(body string) (out string, changed bool, err error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(body), ctx)
	if err != nil {
		return body, false, fmt.Errorf("parsing answer: %w", err)
	}

	root := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	for _, n := range nodes {
		root.AppendChild(n)
	}

	if clean(root) == 0 {
		return body, false, nil
	}

	var buf bytes.Buffer
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return body, false, fmt.Errorf("rendering answer: %w", err)
		}
	}
	return buf.String(), true, nil
}

// clean edits n's subtree in place and returns how many nodes it removed.
func clean(n *html.Node) int {
	removed := 0
	var lastBreak bool
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling

		switch {
		case isBreak(c):
			if lastBreak {
				n.RemoveChild(c)
				removed++
			}
			lastBreak = true
		case c.Type == html.TextNode && strings.TrimSpace(c.Data) == "":
			// whitespace between breaks does not end a run
		case c.Type == html.ElementNode && c.DataAtom == atom.P && !hasContent(c):
			n.RemoveChild(c)
			removed++
		default:
			removed += clean(c)
			lastBreak = false
		}
		c = next
	}
	return removed
}

func isBreak(n *html.Node) bool {
	return n.Type == html.ElementNode && n.DataAtom == atom.Br
}

// hasContent reports whether a node shows anything besides whitespace and
// line breaks.
func hasContent(n *html.Node) bool {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data) != ""
	case html.ElementNode:
		switch n.DataAtom {
		case atom.Br:
			return false
		case atom.Img, atom.Iframe, atom.Video, atom.Audio, atom.Object, atom.Embed, atom.Hr, atom.Table:
			return true
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasContent(c) {
			return true
		}
	}
	return false
}
