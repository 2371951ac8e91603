// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package engine

import (
	"bytes"
	"html"
	"io"
	"sort"
	"strings"
)

// Node is one element of the rendered visual tree. A Node with an empty Tag
// is a text node. Attributes and style properties are written in sorted key
// order so equal trees always serialize to identical HTML.
type Node struct {
	Tag      string
	Attrs    map[string]string
	Style    map[string]string
	Text     string
	Children []*Node
}

// voidTags never have children or a closing tag.
var voidTags = map[string]bool{
	"img": true,
	"br":  true,
}

// el builds an element node.
func el(tag string, attrs map[string]string, style map[string]string, children ...*Node) *Node {
	return &Node{Tag: tag, Attrs: attrs, Style: style, Children: children}
}

// text builds a text node.
func text(s string) *Node {
	return &Node{Text: s}
}

// Attr returns an attribute value, or "" when absent.
func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// Find returns the first node in depth-first order for which match is true.
func (n *Node) Find(match func(*Node) bool) *Node {
	if n == nil {
		return nil
	}
	if match(n) {
		return n
	}
	for _, c := range n.Children {
		if found := c.Find(match); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every node in depth-first order for which match is true.
func (n *Node) FindAll(match func(*Node) bool) []*Node {
	var out []*Node
	n.walk(func(c *Node) {
		if match(c) {
			out = append(out, c)
		}
	})
	return out
}

func (n *Node) walk(fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		c.walk(fn)
	}
}

// ByAttr matches nodes whose attribute key equals value.
func ByAttr(key, value string) func(*Node) bool {
	return func(n *Node) bool {
		return n.Tag != "" && n.Attr(key) == value
	}
}

// TextContent concatenates every text node below n.
func (n *Node) TextContent() string {
	var b strings.Builder
	n.walk(func(c *Node) {
		if c.Tag == "" {
			b.WriteString(c.Text)
		}
	})
	return b.String()
}

// StyleString serializes the style map as a CSS declaration list.
func (n *Node) StyleString() string {
	if n == nil || len(n.Style) == 0 {
		return ""
	}
	keys := sortedKeys(n.Style)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+n.Style[k])
	}
	return strings.Join(parts, "; ")
}

// WriteHTML serializes the tree. Text and attribute values are escaped.
func (n *Node) WriteHTML(w io.Writer) error {
	if n == nil {
		return nil
	}
	if n.Tag == "" {
		_, err := io.WriteString(w, html.EscapeString(n.Text))
		return err
	}

	var b strings.Builder
	b.WriteString("<")
	b.WriteString(n.Tag)
	for _, k := range sortedKeys(n.Attrs) {
		b.WriteString(" ")
		b.WriteString(k)
		b.WriteString(`="`)
		b.WriteString(html.EscapeString(n.Attrs[k]))
		b.WriteString(`"`)
	}
	if style := n.StyleString(); style != "" {
		b.WriteString(` style="`)
		b.WriteString(html.EscapeString(style))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if voidTags[n.Tag] {
		return nil
	}

	for _, c := range n.Children {
		if err := c.WriteHTML(w); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</"+n.Tag+">")
	return err
}

// HTML returns the serialized tree, or "" for a nil tree.
func (n *Node) HTML() string {
	var buf bytes.Buffer
	// Writes to a bytes.Buffer cannot fail.
	_ = n.WriteHTML(&buf)
	return buf.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
