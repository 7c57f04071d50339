// Package wikilink parses vault-flavored [[wikilink]] and ![[embed]] spans
// and provides the goldmark inline parser that turns them into AST nodes.
package wikilink

import (
	"path"
	"strings"
)

// Reference kinds.
const (
	KindFile  = "file"
	KindImage = "image"
	KindEmbed = "embed"
)

// imageExts is the fixed extension set that classifies an embed as an image.
var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
	".svg":  {},
}

// Reference is a structured wikilink or embed reference.
type Reference struct {
	Kind           string `json:"kind"`
	TargetPath     string `json:"targetPath"`
	DisplayText    string `json:"displayText,omitempty"`
	IsRelativePath bool   `json:"isRelativePath"`
}

// Parse parses a raw span of the form [[target]], [[target|display]] or
// ![[target]] into a Reference. Any input not shaped like a wikilink span
// returns nil; the function never fails.
func Parse(rawSpan string) *Reference {
	embed := false
	s := rawSpan
	if strings.HasPrefix(s, "!") {
		embed = true
		s = s[1:]
	}
	if !strings.HasPrefix(s, "[[") || !strings.HasSuffix(s, "]]") || len(s) < 4 {
		return nil
	}
	inner := s[2 : len(s)-2]

	target := inner
	display := ""
	hasDisplay := false
	if i := strings.Index(inner, "|"); i >= 0 {
		target = inner[:i]
		display = strings.TrimSpace(inner[i+1:])
		hasDisplay = true
	}
	target = strings.TrimSpace(target)
	if target == "" {
		return nil
	}

	ref := &Reference{
		Kind:           KindFile,
		TargetPath:     target,
		IsRelativePath: strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../"),
	}
	if hasDisplay {
		ref.DisplayText = display
	}
	if embed {
		if IsImagePath(target) {
			ref.Kind = KindImage
		} else {
			ref.Kind = KindEmbed
		}
	}
	return ref
}

// IsImagePath reports whether the path carries one of the recognized image
// extensions.
func IsImagePath(p string) bool {
	_, ok := imageExts[strings.ToLower(path.Ext(p))]
	return ok
}

// Label returns the text to display for the reference: the alias when one was
// given, otherwise the target path.
func (r *Reference) Label() string {
	if r.DisplayText != "" {
		return r.DisplayText
	}
	return r.TargetPath
}
