package markdown

import (
	"fmt"
	"path"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/nordvang/varden/internal/wikilink"
)

var trackMapCountKey = parser.NewContextKey()

// leafletBody is the YAML shape of a `leaflet` fenced code block. The gpx key
// holds either a single wikilink string or a list of wikilink/bare-path
// strings.
type leafletBody struct {
	Gpx any `yaml:"gpx"`
}

// trackMapTransformer recognizes GPX/KML file references and `leaflet` fenced
// code blocks and replaces them with TrackMap placeholder nodes. Malformed
// leaflet YAML fails closed: the code block is left untouched.
type trackMapTransformer struct{}

func (t *trackMapTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var links []*wikilink.Node
	var fences []*ast.FencedCodeBlock
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := n.(type) {
		case *wikilink.Node:
			links = append(links, v)
		case *ast.FencedCodeBlock:
			if string(v.Language(source)) == "leaflet" {
				fences = append(fences, v)
			}
		}
		return ast.WalkContinue, nil
	})

	for _, ln := range links {
		if format := trackFormat(ln.Ref.TargetPath); format != "" {
			liftTrackLink(ln, format, pc)
		}
	}
	for _, fb := range fences {
		rewriteLeafletFence(fb, source, pc)
	}
}

// trackFormat returns gpx/kml for track file paths and "" otherwise.
func trackFormat(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".gpx":
		return TrackFormatGPX
	case ".kml":
		return TrackFormatKML
	}
	return ""
}

// liftTrackLink replaces an inline track reference with a block-level
// TrackMap. A reference that is the sole content of its paragraph replaces
// the paragraph; otherwise the map block is inserted after the enclosing
// block and the inline reference removed.
func liftTrackLink(ln *wikilink.Node, format string, pc parser.Context) {
	block := ln.Parent()
	if block == nil {
		return
	}
	for block.Parent() != nil && block.Kind() != ast.KindParagraph {
		block = block.Parent()
	}
	container := block.Parent()
	if container == nil {
		return
	}

	tm := &TrackMap{
		ID: nextID(pc, trackMapCountKey, "track-map"),
		Track: TrackDescriptor{
			Type:     TrackTypeSingle,
			Format:   format,
			Source:   "file",
			FilePath: ln.Ref.TargetPath,
		},
	}

	if block.Kind() == ast.KindParagraph && block.ChildCount() == 1 && block.FirstChild() == ln {
		container.ReplaceChild(container, block, tm)
		return
	}
	container.InsertAfter(container, block, tm)
	if p := ln.Parent(); p != nil {
		p.RemoveChild(p, ln)
	}
}

// rewriteLeafletFence parses the fence body as YAML and, on success, replaces
// the fence with a leaflet TrackMap aggregating one track entry per listed
// file, in input order.
func rewriteLeafletFence(fb *ast.FencedCodeBlock, source []byte, pc parser.Context) {
	parent := fb.Parent()
	if parent == nil {
		return
	}

	var body leafletBody
	if err := yaml.Unmarshal(fenceContent(fb, source), &body); err != nil {
		return
	}

	var items []string
	switch v := body.Gpx.(type) {
	case string:
		items = []string{v}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				items = append(items, s)
			}
		}
	default:
		return
	}
	if len(items) == 0 {
		return
	}

	tm := &TrackMap{
		ID: nextID(pc, trackMapCountKey, "track-map"),
		Track: TrackDescriptor{
			Type:   TrackTypeLeaflet,
			Format: TrackFormatLeaflet,
			Source: "file",
		},
	}
	for _, item := range items {
		filePath := strings.TrimSpace(item)
		if ref := wikilink.Parse(filePath); ref != nil {
			filePath = ref.TargetPath
		}
		format := trackFormat(filePath)
		if format == "" {
			format = TrackFormatGPX
		}
		tm.Track.Tracks = append(tm.Track.Tracks, TrackDescriptor{
			Type:     TrackTypeSingle,
			Format:   format,
			Source:   "file",
			FilePath: filePath,
		})
	}

	parent.ReplaceChild(parent, fb, tm)
}

// fenceContent concatenates the source lines of a fenced code block.
func fenceContent(fb *ast.FencedCodeBlock, source []byte) []byte {
	var out []byte
	lines := fb.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(source)...)
	}
	return out
}

// nextID allocates the next sequential id for a placeholder kind. The counter
// lives in the parser context, so every document-processing run starts at 1
// and concurrent runs never share state.
func nextID(pc parser.Context, key parser.ContextKey, prefix string) string {
	n := 1
	if v := pc.Get(key); v != nil {
		n = v.(int) + 1
	}
	pc.Set(key, n)
	return fmt.Sprintf("%s-%d", prefix, n)
}
