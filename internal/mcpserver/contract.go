package mcpserver

// NoteFormatContract describes the canonical Markdown note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Varden Note Format Contract

Every Markdown note stored in Varden SHOULD follow this structure.

## Structure

` + "```" + `markdown
---
title: Human-readable title        # OPTIONAL - falls back to the first H1
tags:                              # OPTIONAL - YAML list; merged with inline #tags
  - hiking
  - norway
---

Body text in standard Markdown.

Use [[wikilinks]] to reference other notes (without .md extension).
Use [[target|alias]] for display text that differs from the target.
Use ![[image.png]] to embed an image from the vault.
` + "```" + `

## Rules

1. **Frontmatter is optional.** When present, the ` + "`---`" + ` fences must be the
   first thing in the file. Malformed frontmatter is ignored, never fatal.
2. **Titles** come from the ` + "`title`" + ` frontmatter field, else the first H1.
3. **Inline tags** are written as ` + "`#tag`" + ` at a word boundary. Slashes build
   hierarchies (` + "`#trips/2026`" + `). CJK characters are allowed.
4. **Wikilinks** use double brackets: ` + "`[[other-note]]`" + `. The target is the
   filename stem, a vault path (` + "`[[trips/lofoten]]`" + `), or a relative path
   (` + "`[[./sibling]]`" + `).
5. **File paths** end with ` + "`.md`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.

## Callouts

A blockquote whose first line is ` + "`[!type] optional title`" + ` renders as a
styled callout:

` + "```" + `markdown
> [!warning] Steep descent
> Bring poles for the last kilometer.
` + "```" + `

## Track maps

Link a GPX or KML file to embed a single-track map: ` + "`[[route.gpx]]`" + `.

For multi-track maps use a ` + "`leaflet`" + ` fence with YAML body:

` + "```" + `markdown
` + "```" + `leaflet
gpx:
  - "[[day-1.gpx]]"
  - "[[day-2.kml]]"
` + "```" + `
` + "```" + `

Track order in the fence is preserved in the rendered map.

## Footprints

A ` + "`footprints`" + ` fence with a YAML body renders an aggregated map of every
track in the vault. An invalid body renders nothing (fail closed):

` + "```" + `markdown
` + "```" + `footprints
locationType: centerPoint
clustering:
  maxDistance: 50
  minPoints: 2
` + "```" + `
` + "```" + `

## Attachments

- Images live in the shared ` + "`attachments/`" + ` directory.
- Embed with ` + "`![[photo.jpg]]`" + ` or reference ` + "`/attachments/photo.jpg`" + `.
- Supported formats: png, jpg, jpeg, gif, webp, svg.
- Attachment files never appear as graph nodes.
`
