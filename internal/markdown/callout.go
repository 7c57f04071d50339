package markdown

import (
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

var calloutMarkerRe = regexp.MustCompile(`^\[!([A-Za-z][\w-]*)\]\s*(.*)$`)

// calloutTransformer rewrites blockquotes whose first paragraph opens with a
// [!type] marker into titled Callout blocks. Blockquotes without the marker
// stay ordinary blockquotes.
type calloutTransformer struct{}

func (t *calloutTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	var quotes []*ast.Blockquote
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if bq, ok := n.(*ast.Blockquote); ok {
				quotes = append(quotes, bq)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, bq := range quotes {
		rewriteCallout(bq, source)
	}
}

func rewriteCallout(bq *ast.Blockquote, source []byte) {
	parent := bq.Parent()
	if parent == nil {
		return
	}
	para, ok := bq.FirstChild().(*ast.Paragraph)
	if !ok {
		return
	}

	// The marker and title occupy the first line of the paragraph, which
	// goldmark may split over several adjacent text nodes (the bracket
	// makes the link parser backtrack). Collect that line before matching.
	firstLine, lineNodes := leadingLineText(para, source)
	m := calloutMarkerRe.FindStringSubmatch(firstLine)
	if m == nil {
		return
	}

	calloutType := strings.ToLower(m[1])
	title := strings.TrimSpace(m[2])
	if title == "" {
		title = capitalize(calloutType)
	}

	callout := &Callout{CalloutType: calloutType, Title: title}

	// Drop the marker/title line; whatever remains of the paragraph is body.
	for _, n := range lineNodes {
		para.RemoveChild(para, n)
	}
	for child := bq.FirstChild(); child != nil; {
		next := child.NextSibling()
		bq.RemoveChild(bq, child)
		if child == para && para.ChildCount() == 0 {
			child = next
			continue
		}
		callout.AppendChild(callout, child)
		child = next
	}

	parent.ReplaceChild(parent, bq, callout)
}

// leadingLineText concatenates the leading run of plain text nodes of a
// paragraph up to (and including) the first line break, returning the text
// and the nodes it came from. A non-text node ends the run: markers broken
// up by inline markup are not recognized.
func leadingLineText(para *ast.Paragraph, source []byte) (string, []ast.Node) {
	var sb strings.Builder
	var nodes []ast.Node
	for child := para.FirstChild(); child != nil; child = child.NextSibling() {
		tn, ok := child.(*ast.Text)
		if !ok {
			break
		}
		sb.Write(tn.Segment.Value(source))
		nodes = append(nodes, tn)
		if tn.SoftLineBreak() || tn.HardLineBreak() {
			break
		}
	}
	return sb.String(), nodes
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
