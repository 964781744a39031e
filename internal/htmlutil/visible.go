package htmlutil

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/happyhackingspace/konu/internal/textutil"
)

// hiddenElems never contribute article text.
var hiddenElems = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Nav:      true,
	atom.Header:   true,
	atom.Footer:   true,
	atom.Aside:    true,
	atom.Figure:   true,
	atom.Form:     true,
	atom.Button:   true,
	atom.Svg:      true,
	atom.Iframe:   true,
}

// VisibleText returns the text a reader sees inside root: text nodes outside
// scripts, navigation and page chrome, joined by single spaces.
func VisibleText(root *goquery.Selection) string {
	var parts []string

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, textutil.CollapseSpaces(t))
			}
			return
		case html.ElementNode:
			if hiddenElems[n.DataAtom] {
				return
			}
			if _, ok := attr(n, "hidden"); ok {
				return
			}
			if v, _ := attr(n, "aria-hidden"); v == "true" {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}

	for _, n := range root.Nodes {
		visit(n)
	}
	return strings.Join(parts, " ")
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
