package markdown

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"
)

var footprintsCountKey = parser.NewContextKey()

// footprintsTransformer replaces `footprints` fenced code blocks with
// Footprints placeholder nodes carrying the parsed aggregation configuration.
// Unparsable or invalid YAML fails closed: the code block stays in place and
// no node is produced.
type footprintsTransformer struct{}

func (t *footprintsTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var fences []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if fb, ok := n.(*ast.FencedCodeBlock); ok && string(fb.Language(source)) == "footprints" {
				fences = append(fences, fb)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, fb := range fences {
		parent := fb.Parent()
		if parent == nil {
			continue
		}
		var cfg FootprintsConfig
		if err := yaml.Unmarshal(fenceContent(fb, source), &cfg); err != nil {
			continue
		}
		if err := cfg.Validate(); err != nil {
			continue
		}
		fp := &Footprints{
			ID:     nextID(pc, footprintsCountKey, "footprints"),
			Config: cfg,
		}
		parent.ReplaceChild(parent, fb, fp)
	}
}
