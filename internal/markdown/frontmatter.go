package markdown

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// SplitFrontmatter separates YAML frontmatter (between leading ---
// delimiters) from the Markdown body. Invalid YAML falls back to treating the
// whole input as body, matching the fail-closed policy of the fence
// transforms.
func SplitFrontmatter(data []byte) (map[string]interface{}, []byte) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, data
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, data
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := bytes.TrimLeft(afterDelim, "\n\r")

	var fm map[string]interface{}
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		return nil, data
	}
	return fm, body
}

// frontmatterTags collects string tags from the frontmatter "tags" field.
func frontmatterTags(fm map[string]interface{}) []string {
	if fm == nil {
		return nil
	}
	raw, ok := fm["tags"]
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// frontmatterTitle returns the frontmatter "title" value when present.
func frontmatterTitle(fm map[string]interface{}) string {
	if fm == nil {
		return ""
	}
	if t, ok := fm["title"].(string); ok {
		return t
	}
	return ""
}
