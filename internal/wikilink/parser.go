package wikilink

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Kind is the node kind of a vault link AST node.
var Kind = ast.NewNodeKind("VaultLink")

// Node is an inline AST node carrying a parsed wikilink or embed reference.
type Node struct {
	ast.BaseInline
	Ref *Reference
	// Resolved is the canonical vault path filled in by the resolve
	// transformer, or "" when the target matched nothing.
	Resolved string
}

// Kind implements ast.Node.
func (n *Node) Kind() ast.NodeKind { return Kind }

// Dump implements ast.Node.
func (n *Node) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Kind":   n.Ref.Kind,
		"Target": n.Ref.TargetPath,
	}, nil)
}

type inlineParser struct{}

// NewInlineParser returns a goldmark inline parser recognizing [[...]] and
// ![[...]] spans.
func NewInlineParser() parser.InlineParser {
	return &inlineParser{}
}

func (p *inlineParser) Trigger() []byte {
	return []byte{'!', '['}
}

func (p *inlineParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()

	open := 2
	if bytes.HasPrefix(line, []byte("![[")) {
		open = 3
	} else if !bytes.HasPrefix(line, []byte("[[")) {
		return nil
	}

	end := bytes.Index(line[open:], []byte("]]"))
	if end < 0 {
		return nil
	}
	span := line[:open+end+2]

	ref := Parse(string(span))
	if ref == nil {
		return nil
	}

	block.Advance(len(span))
	return &Node{Ref: ref}
}

// Extension registers the inline parser on a goldmark instance. Rendering of
// the nodes is owned by the markdown pipeline, which resolves targets against
// the file index.
type Extension struct{}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(md goldmark.Markdown) {
	md.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(NewInlineParser(), 102),
		),
	)
}
