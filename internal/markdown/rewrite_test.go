package markdown

import (
	"strings"
	"testing"
)

func TestRewrite_DecodesTrackPayload(t *testing.T) {
	in := `<div class="track-map loading" id="track-map-1" data-varden-component="track-map" data-varden-payload="{&quot;type&quot;:&quot;single-track&quot;,&quot;format&quot;:&quot;gpx&quot;,&quot;source&quot;:&quot;file&quot;,&quot;filePath&quot;:&quot;route.gpx&quot;}"></div>`

	out, components := Rewrite(in, nil)
	if len(components) != 1 {
		t.Fatalf("components = %d, want 1", len(components))
	}
	c := components[0]
	if c.ID != "track-map-1" || c.Kind != ComponentTrackMap || c.Format != TrackFormatGPX {
		t.Errorf("component = %+v", c)
	}
	if len(c.FilePaths) != 1 || c.FilePaths[0] != "route.gpx" {
		t.Errorf("filePaths = %v", c.FilePaths)
	}
	if strings.Contains(out, payloadAttr) {
		t.Errorf("payload attribute survived: %s", out)
	}
	if strings.Contains(out, "loading") {
		t.Errorf("loading class survived: %s", out)
	}
	if !strings.Contains(out, componentAttr) {
		t.Errorf("component marker stripped: %s", out)
	}
}

func TestRewrite_LeafletPayload(t *testing.T) {
	in := `<div class="track-map loading" id="track-map-1" data-varden-component="track-map" data-varden-payload="{&quot;type&quot;:&quot;leaflet&quot;,&quot;format&quot;:&quot;leaflet&quot;,&quot;source&quot;:&quot;file&quot;,&quot;tracks&quot;:[{&quot;type&quot;:&quot;single-track&quot;,&quot;format&quot;:&quot;gpx&quot;,&quot;source&quot;:&quot;file&quot;,&quot;filePath&quot;:&quot;a.gpx&quot;},{&quot;type&quot;:&quot;single-track&quot;,&quot;format&quot;:&quot;kml&quot;,&quot;source&quot;:&quot;file&quot;,&quot;filePath&quot;:&quot;b.kml&quot;}]}"></div>`

	_, components := Rewrite(in, nil)
	if len(components) != 1 {
		t.Fatalf("components = %d, want 1", len(components))
	}
	c := components[0]
	if c.Leaflet == nil || len(c.Leaflet.Tracks) != 2 {
		t.Fatalf("leaflet = %+v", c.Leaflet)
	}
	if len(c.FilePaths) != 2 || c.FilePaths[0] != "a.gpx" || c.FilePaths[1] != "b.kml" {
		t.Errorf("filePaths = %v", c.FilePaths)
	}
}

func TestRewrite_MissingPayloadStaysInert(t *testing.T) {
	in := `<div class="footprints loading" id="footprints-1" data-varden-component="footprints"></div>`
	out, components := Rewrite(in, nil)
	if len(components) != 0 {
		t.Errorf("components = %v, want none", components)
	}
	if !strings.Contains(out, "loading") {
		t.Errorf("inert container lost loading class: %s", out)
	}
}

func TestRewrite_BadPayloadStaysInert(t *testing.T) {
	in := `<div class="track-map loading" id="track-map-1" data-varden-component="track-map" data-varden-payload="not json"></div>`
	out, components := Rewrite(in, nil)
	if len(components) != 0 {
		t.Errorf("components = %v, want none", components)
	}
	if !strings.Contains(out, "loading") {
		t.Errorf("inert container lost loading class: %s", out)
	}
}

func TestRewrite_UnknownKindIgnored(t *testing.T) {
	in := `<div id="x" data-varden-component="mystery" data-varden-payload="{}"></div>`
	_, components := Rewrite(in, nil)
	if len(components) != 0 {
		t.Errorf("components = %v, want none", components)
	}
}

func TestRewrite_PlainHTMLPassthrough(t *testing.T) {
	in := `<p>hello <em>world</em></p>`
	out, components := Rewrite(in, nil)
	if components != nil {
		t.Errorf("components = %v, want nil", components)
	}
	if out != in {
		t.Errorf("out = %q, want input unchanged", out)
	}
}

func TestTrackComponent_SingleWithoutPathRejected(t *testing.T) {
	_, err := trackComponent("track-map-1", TrackDescriptor{Type: TrackTypeSingle, Format: TrackFormatGPX})
	if err == nil {
		t.Fatal("expected error for single track without filePath")
	}
}
