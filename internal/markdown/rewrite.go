package markdown

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Component is the final descriptor the UI layer hydrates into an interactive
// widget. FilePaths/Format are set for track maps, Footprints for footprints.
type Component struct {
	ID         string            `json:"id"`
	Kind       string            `json:"kind"`
	FilePaths  []string          `json:"filePaths,omitempty"`
	Format     string            `json:"format,omitempty"`
	Leaflet    *TrackDescriptor  `json:"leaflet,omitempty"`
	Footprints *FootprintsConfig `json:"footprints,omitempty"`
}

// Rewrite is the second transform pass. It walks the rendered HTML tree,
// locates placeholder containers left by the first pass, deserializes their
// payloads into final component descriptors, and strips the transport
// attribute from the output. A missing or unparsable payload leaves the
// container as an inert loading placeholder; the traversal never fails on
// one bad node.
func Rewrite(rendered string, logger *slog.Logger) (string, []Component) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(rendered), body)
	if err != nil {
		// The input comes from our own renderer; if it is somehow
		// unparsable, hand it back untouched.
		if logger != nil {
			logger.Warn("rewrite: parse rendered html failed", slog.String("error", err.Error()))
		}
		return rendered, nil
	}

	var components []Component
	for _, n := range nodes {
		walkContainers(n, logger, &components)
	}

	var sb strings.Builder
	for _, n := range nodes {
		if err := html.Render(&sb, n); err != nil {
			if logger != nil {
				logger.Warn("rewrite: render failed", slog.String("error", err.Error()))
			}
			return rendered, components
		}
	}
	return sb.String(), components
}

func walkContainers(n *html.Node, logger *slog.Logger, components *[]Component) {
	if n.Type == html.ElementNode {
		if kind, ok := attrValue(n, componentAttr); ok {
			rewriteContainer(n, kind, logger, components)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkContainers(c, logger, components)
	}
}

func rewriteContainer(n *html.Node, kind string, logger *slog.Logger, components *[]Component) {
	id, _ := attrValue(n, "id")
	payload, ok := attrValue(n, payloadAttr)
	if !ok || payload == "" {
		if logger != nil {
			logger.Warn("rewrite: container without payload", slog.String("kind", kind), slog.String("id", id))
		}
		return
	}

	component, err := decodeComponent(kind, id, payload)
	if err != nil {
		if logger != nil {
			logger.Warn("rewrite: payload decode failed",
				slog.String("kind", kind),
				slog.String("id", id),
				slog.String("error", err.Error()))
		}
		return
	}

	removeAttr(n, payloadAttr)
	if class, ok := attrValue(n, "class"); ok {
		setAttr(n, "class", strings.TrimSpace(strings.ReplaceAll(class, "loading", "")))
	}
	*components = append(*components, component)
}

func decodeComponent(kind, id, payload string) (Component, error) {
	switch kind {
	case ComponentTrackMap:
		var track TrackDescriptor
		if err := json.Unmarshal([]byte(payload), &track); err != nil {
			return Component{}, err
		}
		return trackComponent(id, track)
	case ComponentFootprints:
		var cfg FootprintsConfig
		if err := json.Unmarshal([]byte(payload), &cfg); err != nil {
			return Component{}, err
		}
		return Component{ID: id, Kind: ComponentFootprints, Footprints: &cfg}, nil
	}
	return Component{}, fmt.Errorf("unknown component kind %q", kind)
}

// trackComponent flattens a track descriptor into the final component: a
// single-track descriptor carries exactly one file path, a leaflet descriptor
// carries its entries' paths in order (entries without a path are dropped)
// plus the original configuration.
func trackComponent(id string, track TrackDescriptor) (Component, error) {
	c := Component{ID: id, Kind: ComponentTrackMap, Format: track.Format}
	switch track.Type {
	case TrackTypeSingle:
		if track.FilePath == "" {
			return Component{}, fmt.Errorf("single-track descriptor without filePath")
		}
		c.FilePaths = []string{track.FilePath}
	case TrackTypeLeaflet:
		for _, t := range track.Tracks {
			if t.FilePath == "" {
				continue
			}
			c.FilePaths = append(c.FilePaths, t.FilePath)
		}
		leaflet := track
		c.Leaflet = &leaflet
	default:
		return Component{}, fmt.Errorf("unknown track type %q", track.Type)
	}
	return c, nil
}

func attrValue(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
