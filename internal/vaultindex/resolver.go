// Package vaultindex maps the many ways a wikilink can name a vault file
// (bare name, name without extension, full path, attachments shorthand) onto
// canonical vault-relative paths.
package vaultindex

import (
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/nordvang/varden/internal/models"
)

// strippableExts are the extensions removed when registering the bare-stem
// lookup key. Other extensions stay part of the name.
var strippableExts = []string{".md", ".txt", ".gpx", ".kml"}

// Index maps normalized lookup keys to canonical vault-relative paths.
// The canonical path is always the path exactly as supplied at build time.
type Index struct {
	keys map[string]string
	// sortedKeys gives the fuzzy fallback a deterministic scan order.
	sortedKeys []string
}

// Build registers lookup keys for every entry of type "file". Later entries
// overwrite earlier ones on key collision.
func Build(files []models.FileMetadata) *Index {
	idx := &Index{keys: make(map[string]string, len(files)*4)}
	for _, f := range files {
		if f.Type != "" && f.Type != "file" {
			continue
		}
		idx.register(f.Path)
	}
	idx.sortedKeys = make([]string, 0, len(idx.keys))
	for k := range idx.keys {
		idx.sortedKeys = append(idx.sortedKeys, k)
	}
	sort.Strings(idx.sortedKeys)
	return idx
}

func (idx *Index) register(canonical string) {
	lowerPath := strings.ToLower(canonical)
	name := lowerPath
	if i := strings.LastIndex(lowerPath, "/"); i >= 0 {
		name = lowerPath[i+1:]
	}

	idx.keys[name] = canonical
	for _, ext := range strippableExts {
		if strings.HasSuffix(name, ext) {
			idx.keys[strings.TrimSuffix(name, ext)] = canonical
			break
		}
	}
	idx.keys[lowerPath] = canonical
	idx.keys[strings.TrimPrefix(lowerPath, "/")] = canonical

	if i := strings.Index(lowerPath, "attachments/"); i >= 0 {
		idx.keys["attachments/"+lowerPath[i+len("attachments/"):]] = canonical
	}
}

// Len returns the number of registered lookup keys.
func (idx *Index) Len() int { return len(idx.keys) }

// Resolve maps a link target to a canonical vault path, or returns "" when
// nothing matches. Resolution is precision-first: relative paths against
// currentDir, then exact key matches (raw, +.md, suffix-stripped), then the
// same ladder on the last path segment, and only then a fuzzy suffix scan.
// The fuzzy pass scans keys in sorted order, ends-with before contains, so
// ties resolve deterministically.
func (idx *Index) Resolve(target, currentDir string) string {
	target = strings.TrimSpace(target)
	if target == "" {
		return ""
	}

	if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") {
		if currentDir != "" {
			return resolveRelative(target, currentDir)
		}
	}

	lower := strings.ToLower(target)
	if p := idx.exact(lower); p != "" {
		return p
	}

	if i := strings.LastIndex(lower, "/"); i >= 0 {
		if p := idx.exact(lower[i+1:]); p != "" {
			return p
		}
	}

	return idx.fuzzy(lower)
}

// exact tries the raw key, the key with .md appended, and the key with a
// trailing .md/.txt suffix stripped.
func (idx *Index) exact(key string) string {
	if p, ok := idx.keys[key]; ok {
		return p
	}
	if p, ok := idx.keys[key+".md"]; ok {
		return p
	}
	for _, ext := range []string{".md", ".txt"} {
		if strings.HasSuffix(key, ext) {
			if p, ok := idx.keys[strings.TrimSuffix(key, ext)]; ok {
				return p
			}
		}
	}
	return ""
}

func (idx *Index) fuzzy(lower string) string {
	var first, last string
	if i := strings.Index(lower, "/"); i >= 0 {
		first = lower[:i]
		last = lower[strings.LastIndex(lower, "/")+1:]
	}

	for _, key := range idx.sortedKeys {
		if strings.HasSuffix(key, lower) || strings.HasSuffix(key, lower+".md") {
			return idx.keys[key]
		}
		if first != "" && strings.Contains(key, last) && strings.Contains(key, first) {
			return idx.keys[key]
		}
	}
	return ""
}

// resolveRelative resolves ./ and ../ targets against the directory of the
// current document, returning "" when the reference escapes into nonsense.
// Wikilinks usually omit the .md extension, so an extensionless result gets
// one appended; the index is never consulted for relative targets.
func resolveRelative(target, currentDir string) string {
	base, err := url.Parse("/" + strings.Trim(currentDir, "/") + "/")
	if err != nil {
		return ""
	}
	ref, err := url.Parse(target)
	if err != nil {
		return ""
	}
	resolved := strings.TrimPrefix(base.ResolveReference(ref).Path, "/")
	if resolved != "" && path.Ext(resolved) == "" {
		resolved += ".md"
	}
	return resolved
}
