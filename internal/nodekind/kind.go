// Package nodekind enumerates the node types of the downstream parse tree
// (spec §1 calls the downstream parser an external collaborator; this
// vocabulary is ported from original_source/wikimunge/nodekind.py so the
// module has a concrete, runnable parse-tree shape to hand text to).
package nodekind

// Kind is a node type in the parse tree produced from expanded wiki text.
type Kind int

const (
	// Root is the root of the parsed document. Args are [pageTitle].
	Root Kind = iota
	// Level2..Level6 are subtitle headings. Args are the heading title;
	// children are what the section contains.
	Level2
	Level3
	Level4
	Level5
	Level6
	// Italic content, rendered in children.
	Italic
	// Bold content, rendered in children.
	Bold
	// HLine is a horizontal rule. No args or children.
	HLine
	// List starts a (possibly nested) list. Args is the marker prefix
	// ("*", "#", ";", ...) shared by all its LIST_ITEM children.
	List
	// ListItem is one item of the enclosing List. Args is the item's own
	// marker token.
	ListItem
	// Preformatted is inline preformatted text (leading-space convention).
	Preformatted
	// Pre is a <pre>...</pre> block; markup inside is not interpreted.
	Pre
	// Link is an internal wiki link [[ ... ]]. Args are the pipe-split
	// pieces as they appeared.
	Link
	// Template is a transclusion {{name|args...}} that survived expansion
	// (e.g. because a template filter declined it).
	Template
	// TemplateArg is an unresolved template-argument reference
	// {{{name|default}}}.
	TemplateArg
	// ParserFn is a parser-function invocation. Args[0] is the function
	// name, the rest are its parameters.
	ParserFn
	// URL is an external link/bare URL. Args[0] is the target,
	// Args[len-1] the display text.
	URL
	// Table and friends: a {| ... |} wiki table.
	Table
	TableCaption
	TableRow
	TableHeaderCell
	TableCell
	// MagicWord is a bare magic word such as {{PAGENAME}}.
	MagicWord
	// HTML is a generic (non-special) HTML tag. Args is the tag name.
	HTML
)

var names = map[Kind]string{
	Root: "ROOT", Level2: "LEVEL2", Level3: "LEVEL3", Level4: "LEVEL4",
	Level5: "LEVEL5", Level6: "LEVEL6", Italic: "ITALIC", Bold: "BOLD",
	HLine: "HLINE", List: "LIST", ListItem: "LIST_ITEM",
	Preformatted: "PREFORMATTED", Pre: "PRE", Link: "LINK",
	Template: "TEMPLATE", TemplateArg: "TEMPLATE_ARG", ParserFn: "PARSER_FN",
	URL: "URL", Table: "TABLE", TableCaption: "TABLE_CAPTION",
	TableRow: "TABLE_ROW", TableHeaderCell: "TABLE_HEADER_CELL",
	TableCell: "TABLE_CELL", MagicWord: "MAGIC_WORD", HTML: "HTML",
}

// HeadingLevel maps a heading Kind to its "==" style wiki marker, the
// zero value reporting "not a heading".
var HeadingLevel = map[Kind]string{
	Level2: "==", Level3: "===", Level4: "====", Level5: "=====", Level6: "======",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UNKNOWN"
}
