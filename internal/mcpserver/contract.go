package mcpserver

// PostFormatContract describes the layout of a post file.
const PostFormatContract = `# Post Format

Every post is one Markdown file directly inside the posts directory. The
post id is the file name without its extension (` + "`hello-world.md`" + ` has id
` + "`hello-world`" + `). Ids must be unique.

## Structure

` + "```" + `markdown
---
title: Hello world          # shown on the listing and the post page
date: 2024-05-01            # YYYY-MM-DD; posts are listed newest first
preview: A short summary.   # shown under the title in the listing
---

Body text in Markdown.
` + "```" + `

## Rules

1. The front matter block is optional. When present, the opening ` + "`---`" + ` must
   be the very first line and a closing ` + "`---`" + ` line is required.
2. ` + "`title`" + `, ` + "`date`" + ` and ` + "`preview`" + ` must be plain values, not lists or maps.
   Other keys are kept but not displayed.
3. Dates are compared as text. Only ` + "`YYYY-MM-DD`" + ` sorts chronologically;
   posts without a date are listed last.
4. Everything after the closing ` + "`---`" + ` line is the body, verbatim.
5. Files whose name starts with a dot are ignored.

## Images

- Reference images by absolute path: ` + "`![description](/images/photo.png)`" + `.
- Every image is displayed centered. An image with an empty source is not
  displayed at all.
- Supported formats: png, jpg, jpeg, gif, webp, svg, avif.
`
