// Package markdown implements the vault-flavored markdown transform
// pipeline: a goldmark parse with first-pass AST transforms (wikilinks, tags,
// callouts, track maps, footprints), HTML compilation with placeholder
// containers, and a render-stage second pass that extracts final component
// descriptors.
package markdown

import (
	"bytes"
	"log/slog"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/nordvang/varden/internal/wikilink"
)

// Document is the output of one full pipeline run.
type Document struct {
	Path        string                 `json:"path"`
	Title       string                 `json:"title"`
	HTML        string                 `json:"html"`
	Components  []Component            `json:"components"`
	Tags        []string               `json:"tags"`
	Links       []string               `json:"links"`
	Frontmatter map[string]interface{} `json:"frontmatter,omitempty"`
}

// Extraction is the metadata harvested from a parsed document, used to feed
// the corpus index.
type Extraction struct {
	Title       string
	Body        string
	Tags        []string
	Links       []string
	Frontmatter map[string]interface{}
}

// Pipeline owns a configured goldmark instance. It is safe for concurrent
// use: per-run state (id counters, document path) lives in the parser
// context of each call.
type Pipeline struct {
	md     goldmark.Markdown
	logger *slog.Logger
}

// New builds the pipeline. provider supplies the file index used to resolve
// wikilink targets; it may return nil, in which case links render as broken.
func New(provider ResolverProvider, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			&wikilink.Extension{},
			highlighting.NewHighlighting(
				highlighting.WithStyle("github"),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&calloutTransformer{}, 100),
				util.Prioritized(&trackMapTransformer{}, 150),
				util.Prioritized(&footprintsTransformer{}, 160),
				util.Prioritized(&tagTransformer{}, 200),
				util.Prioritized(&resolveTransformer{provider: provider}, 300),
			),
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(
				util.Prioritized(&nodeRenderer{}, 100),
			),
		),
	)
	return &Pipeline{md: md, logger: logger}
}

// Render runs both passes over one document: frontmatter split, goldmark
// parse + first-pass transforms, HTML compilation, then the render-stage
// rewriter. docPath is the vault-relative path of the document, used for
// relative link resolution.
func (p *Pipeline) Render(docPath string, source []byte) (*Document, error) {
	fm, body := SplitFrontmatter(source)

	pc := parser.NewContext()
	pc.Set(docPathKey, docPath)

	var buf bytes.Buffer
	if err := p.md.Convert(body, &buf, parser.WithContext(pc)); err != nil {
		return nil, err
	}

	htmlOut, components := Rewrite(buf.String(), p.logger)
	ex := p.extract(docPath, fm, body)

	return &Document{
		Path:        docPath,
		Title:       ex.Title,
		HTML:        htmlOut,
		Components:  components,
		Tags:        ex.Tags,
		Links:       ex.Links,
		Frontmatter: fm,
	}, nil
}

// Extract parses a document for indexing only: title, tags, outgoing links,
// frontmatter. No HTML is produced. docPath anchors relative wikilinks, so
// links index against the same targets they render against.
func (p *Pipeline) Extract(docPath string, source []byte) *Extraction {
	fm, body := SplitFrontmatter(source)
	return p.extract(docPath, fm, body)
}

func (p *Pipeline) extract(docPath string, fm map[string]interface{}, body []byte) *Extraction {
	pc := parser.NewContext()
	pc.Set(docPathKey, docPath)
	doc := p.md.Parser().Parse(text.NewReader(body), parser.WithContext(pc))

	ex := &Extraction{
		Title:       frontmatterTitle(fm),
		Body:        string(body),
		Frontmatter: fm,
	}

	seenTags := make(map[string]struct{})
	for _, t := range frontmatterTags(fm) {
		if _, dup := seenTags[t]; !dup {
			seenTags[t] = struct{}{}
			ex.Tags = append(ex.Tags, t)
		}
	}

	seenLinks := make(map[string]struct{})
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *TagSpan:
			tag := strings.TrimPrefix(v.Tag, "#")
			if _, dup := seenTags[tag]; !dup {
				seenTags[tag] = struct{}{}
				ex.Tags = append(ex.Tags, tag)
			}
		case *wikilink.Node:
			target := v.Resolved
			if target == "" {
				target = v.Ref.TargetPath
			}
			if _, dup := seenLinks[target]; !dup {
				seenLinks[target] = struct{}{}
				ex.Links = append(ex.Links, target)
			}
		case *ast.Heading:
			if ex.Title == "" && v.Level == 1 {
				ex.Title = string(headingText(v, body))
			}
		}
		return ast.WalkContinue, nil
	})

	return ex
}

// headingText collects the plain text of a heading.
func headingText(h *ast.Heading, source []byte) []byte {
	var out []byte
	for c := h.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			out = append(out, t.Segment.Value(source)...)
		}
	}
	return bytes.TrimSpace(out)
}
