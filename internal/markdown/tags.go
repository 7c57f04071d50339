package markdown

import (
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// tagRe matches a #tag that starts at the beginning of a text span or after a
// whitespace/punctuation boundary (ASCII or full-width space, colon, comma).
// Tag characters are word characters, hyphen, slash, and CJK.
var tagRe = regexp.MustCompile(`(^|[\s:,：，、])(#[\w/\-\p{Han}\p{Hiragana}\p{Katakana}\p{Hangul}]+)`)

// tagTransformer rewrites #tag occurrences inside plain text nodes into
// TagSpan nodes. Text without a match is left untouched.
type tagTransformer struct{}

func (t *tagTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	source := reader.Source()

	var texts []*ast.Text
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindCodeSpan, ast.KindCodeBlock, ast.KindFencedCodeBlock,
			ast.KindLink, ast.KindAutoLink, ast.KindImage:
			return ast.WalkSkipChildren, nil
		}
		if tn, ok := n.(*ast.Text); ok {
			texts = append(texts, tn)
		}
		return ast.WalkContinue, nil
	})

	for _, tn := range texts {
		splitTags(tn, source)
	}
}

// splitTags replaces one text node with an alternating sequence of preserved
// text and TagSpan nodes. Nodes are spliced in front of the original, which
// is then removed; a zero-match node is never touched.
func splitTags(tn *ast.Text, source []byte) {
	parent := tn.Parent()
	if parent == nil {
		return
	}
	content := string(tn.Segment.Value(source))

	matches := tagRe.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		return
	}

	softBreak := tn.SoftLineBreak()
	hardBreak := tn.HardLineBreak()

	pos := 0
	var repl []ast.Node
	for _, m := range matches {
		// m[4]:m[5] is the tag itself; the boundary character (if any)
		// stays with the preceding text.
		if m[4] > pos {
			repl = append(repl, ast.NewString([]byte(content[pos:m[4]])))
		}
		repl = append(repl, &TagSpan{Tag: content[m[4]:m[5]]})
		pos = m[5]
	}
	if pos < len(content) {
		repl = append(repl, ast.NewString([]byte(content[pos:])))
	}

	// Line-break flags move to a trailing text stub so paragraph line
	// structure survives the splice.
	if softBreak || hardBreak {
		stub := ast.NewTextSegment(text.NewSegment(tn.Segment.Stop, tn.Segment.Stop))
		stub.SetSoftLineBreak(softBreak)
		stub.SetHardLineBreak(hardBreak)
		repl = append(repl, stub)
	}

	for _, n := range repl {
		parent.InsertBefore(parent, tn, n)
	}
	parent.RemoveChild(parent, tn)
}
