package markdown

import (
	"encoding/json"
	"path"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/nordvang/varden/internal/vaultindex"
	"github.com/nordvang/varden/internal/wikilink"
)

// Component container markers. The payload attribute is the transport
// boundary between the render pass and the render-stage rewriter.
const (
	componentAttr = "data-varden-component"
	payloadAttr   = "data-varden-payload"

	ComponentTrackMap   = "track-map"
	ComponentFootprints = "footprints"
)

// docPathKey carries the vault path of the document being rendered through
// the parser context, so the resolve transformer can handle ./ and ../
// targets.
var docPathKey = parser.NewContextKey()

// ResolverProvider returns the current file index. It is called once per
// parse, so renders always see the latest vault state.
type ResolverProvider func() *vaultindex.Index

// resolveTransformer fills in Resolved on every wikilink node.
type resolveTransformer struct {
	provider ResolverProvider
}

func (t *resolveTransformer) Transform(doc *ast.Document, _ text.Reader, pc parser.Context) {
	if t.provider == nil {
		return
	}
	idx := t.provider()
	if idx == nil {
		return
	}

	currentDir := ""
	if p, ok := pc.Get(docPathKey).(string); ok {
		currentDir = path.Dir(p)
		if currentDir == "." {
			currentDir = ""
		}
	}

	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if ln, ok := n.(*wikilink.Node); ok {
				ln.Resolved = idx.Resolve(ln.Ref.TargetPath, currentDir)
			}
		}
		return ast.WalkContinue, nil
	})
}

// nodeRenderer renders the custom node kinds into placeholder HTML.
type nodeRenderer struct{}

// RegisterFuncs implements renderer.NodeRenderer.
func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindTagSpan, r.renderTagSpan)
	reg.Register(KindCallout, r.renderCallout)
	reg.Register(KindTrackMap, r.renderTrackMap)
	reg.Register(KindFootprints, r.renderFootprints)
	reg.Register(wikilink.Kind, r.renderVaultLink)
}

func (r *nodeRenderer) renderTagSpan(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*TagSpan)
	_, _ = w.WriteString(`<span class="tag">`)
	_, _ = w.Write(util.EscapeHTML([]byte(n.Tag)))
	_, _ = w.WriteString(`</span>`)
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderCallout(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Callout)
	if entering {
		_, _ = w.WriteString(`<div class="callout callout-`)
		_, _ = w.Write(util.EscapeHTML([]byte(n.CalloutType)))
		_, _ = w.WriteString(`"><div class="callout-title">`)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Title)))
		_, _ = w.WriteString("</div>\n<div class=\"callout-content\">\n")
	} else {
		_, _ = w.WriteString("</div></div>\n")
	}
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderTrackMap(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*TrackMap)
	writeComponentDiv(w, ComponentTrackMap, n.ID, n.Track)
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderFootprints(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*Footprints)
	writeComponentDiv(w, ComponentFootprints, n.ID, n.Config)
	return ast.WalkSkipChildren, nil
}

// writeComponentDiv emits an inert placeholder container with the serialized
// payload attached. The rewriter turns it into a final component descriptor.
func writeComponentDiv(w util.BufWriter, kind, id string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload types marshal cleanly; an error here means a broken
		// config value, so emit the container without a payload and let
		// the rewriter leave it inert.
		data = nil
	}
	_, _ = w.WriteString(`<div class="`)
	_, _ = w.WriteString(kind)
	_, _ = w.WriteString(` loading" id="`)
	_, _ = w.Write(util.EscapeHTML([]byte(id)))
	_, _ = w.WriteString(`" `)
	_, _ = w.WriteString(componentAttr)
	_, _ = w.WriteString(`="`)
	_, _ = w.WriteString(kind)
	_, _ = w.WriteString(`"`)
	if data != nil {
		_, _ = w.WriteString(` `)
		_, _ = w.WriteString(payloadAttr)
		_, _ = w.WriteString(`="`)
		_, _ = w.Write(util.EscapeHTML(data))
		_, _ = w.WriteString(`"`)
	}
	_, _ = w.WriteString("></div>\n")
}

func (r *nodeRenderer) renderVaultLink(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*wikilink.Node)
	label := util.EscapeHTML([]byte(n.Ref.Label()))

	switch n.Ref.Kind {
	case wikilink.KindImage:
		src := n.Resolved
		if src == "" {
			src = n.Ref.TargetPath
		}
		_, _ = w.WriteString(`<img class="embed-image" src="/`)
		_, _ = w.Write(util.URLEscape([]byte(src), false))
		_, _ = w.WriteString(`" alt="`)
		_, _ = w.Write(label)
		_, _ = w.WriteString(`">`)
	case wikilink.KindEmbed:
		_, _ = w.WriteString(`<span class="embed" data-embed="`)
		_, _ = w.Write(util.EscapeHTML([]byte(n.Resolved)))
		_, _ = w.WriteString(`">`)
		_, _ = w.Write(label)
		_, _ = w.WriteString(`</span>`)
	default:
		if n.Resolved == "" {
			_, _ = w.WriteString(`<span class="wikilink broken">`)
			_, _ = w.Write(label)
			_, _ = w.WriteString(`</span>`)
			break
		}
		_, _ = w.WriteString(`<a class="wikilink" href="/notes/`)
		_, _ = w.Write(util.URLEscape([]byte(n.Resolved), false))
		_, _ = w.WriteString(`">`)
		_, _ = w.Write(label)
		_, _ = w.WriteString(`</a>`)
	}
	return ast.WalkContinue, nil
}
