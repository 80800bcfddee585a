package model

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const imagePlaceholder = "<image could not be pasted>"

// PlainText renders the object as text for targets that do not accept
// rich content.
func PlainText(o *Object) string {
	return ContentText(o.Content)
}

func ContentText(c Content) string {
	switch t := c.(type) {
	case *TextContent:
		return StripHTML(strings.ReplaceAll(t.Text, "<br>", "\n"))
	case *TitleContent:
		return StripHTML(strings.ReplaceAll(t.Text, "<br>", "\n"))
	case *ImageContent:
		return imagePlaceholder
	case *ArrowContent:
		return ""
	case *ContainerContent:
		var b strings.Builder
		for _, child := range t.Objects {
			b.WriteString(PlainText(child))
		}
		return b.String()
	case *FolderContent:
		return t.Icon + " " + t.Name
	default:
		panic(unreachableKind(c))
	}
}

// StripHTML returns the text content of an HTML fragment.
func StripHTML(s string) string {
	nodes, err := html.ParseFragment(strings.NewReader(s), bodyContext())
	if err != nil {
		return s
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return b.String()
}

func bodyContext() *html.Node {
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}
