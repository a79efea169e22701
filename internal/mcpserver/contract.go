package mcpserver

// WireFormatContract describes the stored text format that LLM clients must
// follow when writing documents.
const WireFormatContract = `# Stencil Wire Format Contract

A document is optional YAML front matter followed by a Markdown body that
carries four custom token kinds. Anything else is plain Markdown
(paragraphs, headings, quotes, lists, **bold**, *italic*, links).

## Front matter

` + "```" + `markdown
---
title: Client onboarding       # OPTIONAL, falls back to the first heading, then the file name
description: Kickoff checklist  # OPTIONAL
tags: [sales, onboarding]       # OPTIONAL, list or comma separated string
---
` + "```" + `

## Tokens

| Kind | Syntax | Notes |
|---|---|---|
| Checklist item | ` + "`[clist:<listId>|<itemId>]text[/clist]`" + ` | ids match ` + "`[\\w-]+`" + `; consecutive items with one listId form one checklist |
| Mention | ` + "`[<displayName>|<numericId>]`" + ` | e.g. ` + "`[Ann|7]`" + ` |
| Variable | ` + "`{{<apiName>}}`" + ` | resolved against the variable catalog; unknown names are dropped |
| Image | ` + "`![name](<url> \"attachment_id:<id> entityType:Image\")`" + ` | use the token returned by upload_asset |
| File, Video | ` + "`[ ](<url> \"attachment_id:<id> entityType:File\")`" + ` | link text is a single space |

## Rules

1. Every checklist item sits on its own line. The closing ` + "`[/clist]`" + ` may
   follow several content lines; those newlines are kept.
2. An item with no text is removed; do not write empty items.
3. Separate blocks with a blank line. Items of one checklist are separated by a
   single newline; a blank line or another block ends the checklist.
4. Item text may hold inline Markdown, mentions, variables and attachments.
5. ` + "`entityType`" + ` is one of Image, File, Video or Link (case-insensitive). A
   link without a title is a plain link.
6. Text is UTF-8. Invalid encodings are rejected and the document is not stored.
7. Paths end with ` + "`.md`" + ` and use forward slashes.

## Example

` + "```" + `markdown
---
title: Client onboarding
tags: [sales]
---
# Kickoff

Welcome {{client_name}}, your contact is [Ann|7].

[clist:onboard|call]Call {{client_name}}[/clist]
[clist:onboard|contract]Send the **contract**
and the pricing sheet[/clist]

![Floor plan](/attachments/0b5c.png "attachment_id:12 entityType:Image")
` + "```" + `
`
