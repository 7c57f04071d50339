package markdown

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/yuin/goldmark/ast"
)

// Custom node kinds produced by the first-pass transforms.
var (
	KindTagSpan    = ast.NewNodeKind("TagSpan")
	KindCallout    = ast.NewNodeKind("Callout")
	KindTrackMap   = ast.NewNodeKind("TrackMap")
	KindFootprints = ast.NewNodeKind("Footprints")
)

// TagSpan is an inline node for a #tag occurrence.
type TagSpan struct {
	ast.BaseInline
	Tag string // includes the leading '#'
}

// Kind implements ast.Node.
func (n *TagSpan) Kind() ast.NodeKind { return KindTagSpan }

// Dump implements ast.Node.
func (n *TagSpan) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Tag": n.Tag}, nil)
}

// Callout is a titled admonition block rewritten from a marker blockquote.
type Callout struct {
	ast.BaseBlock
	CalloutType string
	Title       string
}

// Kind implements ast.Node.
func (n *Callout) Kind() ast.NodeKind { return KindCallout }

// Dump implements ast.Node.
func (n *Callout) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Type":  n.CalloutType,
		"Title": n.Title,
	}, nil)
}

// Track descriptor types and formats.
const (
	TrackTypeSingle  = "single-track"
	TrackTypeLeaflet = "leaflet"

	TrackFormatGPX     = "gpx"
	TrackFormatKML     = "kml"
	TrackFormatLeaflet = "leaflet"
)

// TrackDescriptor describes a GPX/KML route reference, either one file or a
// leaflet aggregation of several.
type TrackDescriptor struct {
	Type     string            `json:"type"`
	Format   string            `json:"format"`
	Source   string            `json:"source"`
	FilePath string            `json:"filePath,omitempty"`
	Tracks   []TrackDescriptor `json:"tracks,omitempty"`
}

// TrackMap is a block placeholder carrying a track descriptor. The descriptor
// is serialized into the rendered output and recovered by the render-stage
// rewriter.
type TrackMap struct {
	ast.BaseBlock
	ID    string
	Track TrackDescriptor
}

// Kind implements ast.Node.
func (n *TrackMap) Kind() ast.NodeKind { return KindTrackMap }

// Dump implements ast.Node.
func (n *TrackMap) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"ID":   n.ID,
		"Type": n.Track.Type,
	}, nil)
}

// ClusteringConfig controls footprints point clustering.
type ClusteringConfig struct {
	Enabled     bool    `yaml:"enabled" json:"enabled"`
	MaxDistance float64 `yaml:"maxDistance" json:"maxDistance,omitempty"`
	MinPoints   int     `yaml:"minPoints" json:"minPoints,omitempty"`
}

// TimeFilterConfig bounds footprints aggregation in time.
type TimeFilterConfig struct {
	Start string `yaml:"start" json:"start,omitempty"`
	End   string `yaml:"end" json:"end,omitempty"`
}

// FootprintsConfig is the aggregation configuration parsed from the YAML body
// of a `footprints` fenced code block.
type FootprintsConfig struct {
	UserInputs      []string          `yaml:"userInputs" json:"userInputs,omitempty"`
	AttachmentsPath string            `yaml:"attachmentsPath" json:"attachmentsPath,omitempty"`
	IncludeTracks   *bool             `yaml:"includeTracks" json:"includeTracks,omitempty"`
	IncludePhotos   *bool             `yaml:"includePhotos" json:"includePhotos,omitempty"`
	LocationType    string            `yaml:"locationType" json:"locationType,omitempty"`
	Clustering      *ClusteringConfig `yaml:"clustering" json:"clustering,omitempty"`
	TimeFilter      *TimeFilterConfig `yaml:"timeFilter" json:"timeFilter,omitempty"`
	Style           map[string]any    `yaml:"style" json:"style,omitempty"`
}

// Validate rejects configurations that parsed as YAML but carry values the
// viewer cannot act on. Invalid configs fail closed like malformed YAML.
func (c *FootprintsConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LocationType, validation.In("", "centerPoint", "bounds")),
	); err != nil {
		return err
	}
	if c.Clustering != nil {
		return validation.ValidateStruct(c.Clustering,
			validation.Field(&c.Clustering.MaxDistance, validation.Min(0.0)),
			validation.Field(&c.Clustering.MinPoints, validation.Min(0)),
		)
	}
	return nil
}

// Footprints is a block placeholder carrying a footprints configuration and a
// per-render sequential id.
type Footprints struct {
	ast.BaseBlock
	ID     string
	Config FootprintsConfig
}

// Kind implements ast.Node.
func (n *Footprints) Kind() ast.NodeKind { return KindFootprints }

// Dump implements ast.Node.
func (n *Footprints) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"ID": n.ID}, nil)
}
