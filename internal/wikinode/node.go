// Package wikinode is the node type of the downstream parse tree, ported
// from original_source/wikimunge/wikinode.py. The full grammar (tables,
// nested lists, HTML tag balancing) is an external collaborator per spec §1;
// this is a minimal conforming implementation so the module produces a real
// tree, not just a string, end to end.
package wikinode

import (
	"strings"

	"github.com/CauldronDevelopmentLLC/wikimunge/internal/nodekind"
)

// Node is one node of the parse tree. Children are either *Node or string
// (raw text runs).
type Node struct {
	Kind     nodekind.Kind
	Args     []string
	Attrs    map[string]string
	Children []interface{}
	Line     int
}

// New creates an empty node of the given kind at the given source line.
func New(kind nodekind.Kind, line int) *Node {
	return &Node{Kind: kind, Line: line}
}

func quoteAttr(s string) string {
	s = strings.ReplaceAll(s, "'", "&apos;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

func attrString(k, v string) string {
	if v == "" {
		return k
	}
	return k + `="` + quoteAttr(v) + `"`
}

func attrsString(attrs map[string]string) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(attrs))
	for k, v := range attrs {
		parts = append(parts, attrString(k, v))
	}
	return strings.Join(parts, " ")
}

// ToText renders a child (string or *Node) back to wikitext-ish text.
func ToText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		var b strings.Builder
		for _, c := range t {
			b.WriteString(ToText(c))
		}
		return b.String()
	case *Node:
		return t.String()
	default:
		return ""
	}
}

func childrenText(children []interface{}) string {
	var b strings.Builder
	for _, c := range children {
		b.WriteString(ToText(c))
	}
	return b.String()
}

func indentedList(children []interface{}) string {
	lines := make([]string, 0, len(children))
	for _, c := range children {
		s := strings.TrimRight(ToText(c), "\n")
		s = strings.ReplaceAll(s, "\n", "\n  ")
		lines = append(lines, s)
	}
	return "  " + strings.Join(lines, "\n  ")
}

// String renders the node (and its subtree) back into an approximation of
// wikitext, mirroring WikiNode.__str__ in the original implementation.
func (n *Node) String() string {
	if marker, ok := nodekind.HeadingLevel[n.Kind]; ok {
		title := strings.Join(n.Args, "")
		return "\n" + marker + " " + title + " " + marker + "\n" + childrenText(n.Children)
	}

	switch n.Kind {
	case nodekind.HLine:
		return "<hr/>"
	case nodekind.List:
		return "<ol>\n" + indentedList(n.Children) + "\n</ol>"
	case nodekind.ListItem:
		return "<li>" + childrenText(n.Children) + "</li>"
	case nodekind.Pre:
		return "<pre>" + childrenText(n.Children) + "</pre>"
	case nodekind.Preformatted:
		return childrenText(n.Children)
	case nodekind.Link:
		return "[[" + strings.Join(n.Args, "|") + "]]"
	case nodekind.Template:
		return "{{" + strings.Join(n.Args, "|") + "}}"
	case nodekind.TemplateArg:
		return "{{{" + strings.Join(n.Args, "|") + "}}}"
	case nodekind.ParserFn:
		if len(n.Args) == 0 {
			return "{{}}"
		}
		return "{{" + n.Args[0] + ":" + strings.Join(n.Args[1:], "|") + "}}"
	case nodekind.URL:
		if len(n.Args) == 0 {
			return "<a href=\"\"></a>"
		}
		return `<a href="` + n.Args[0] + `">` + n.Args[len(n.Args)-1] + `</a>`
	case nodekind.Table:
		return "<table " + attrsString(n.Attrs) + ">\n" + indentedList(n.Children) + "\n</table>"
	case nodekind.TableCaption:
		return "<caption " + attrsString(n.Attrs) + ">" + childrenText(n.Children) + "</caption>"
	case nodekind.TableRow:
		return "<tr " + attrsString(n.Attrs) + ">\n" + indentedList(n.Children) + "\n</tr>"
	case nodekind.TableHeaderCell:
		return "<th " + attrsString(n.Attrs) + ">" + childrenText(n.Children) + "</th>"
	case nodekind.TableCell:
		return "<td " + attrsString(n.Attrs) + ">" + childrenText(n.Children) + "</td>"
	case nodekind.HTML:
		tag := ""
		if len(n.Args) > 0 {
			tag = n.Args[0]
		}
		var b strings.Builder
		b.WriteString("<" + tag)
		if len(n.Attrs) > 0 {
			b.WriteString(" ")
			b.WriteString(attrsString(n.Attrs))
		}
		if len(n.Children) > 0 {
			b.WriteString(">")
			b.WriteString(childrenText(n.Children))
			b.WriteString("</" + tag + ">")
		} else {
			b.WriteString("/>")
		}
		return b.String()
	case nodekind.Root:
		return childrenText(n.Children)
	case nodekind.Bold:
		return "<b>" + childrenText(n.Children) + "</b>"
	case nodekind.Italic:
		return "<i>" + childrenText(n.Children) + "</i>"
	case nodekind.MagicWord:
		if len(n.Args) > 0 {
			return n.Args[0]
		}
		return ""
	default:
		return ""
	}
}
