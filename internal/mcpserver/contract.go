package mcpserver

// NoteSyntax describes how add_note classifies text and how compile_entry
// turns a day of notes into an entry. LLM clients should read it before
// writing notes.
const NoteSyntax = `# Dev Diary Note Syntax

Every note belongs to one day (YYYY-MM-DD, today when omitted) and one section.

## Sections

The section is chosen by a case-insensitive prefix at the start of the note:

| Prefix | Section |
|---|---|
| ` + "`ctx:`" + `, ` + "`context:`" + ` | Context |
| ` + "`act:`" + `, ` + "`action:`" + `, ` + "`actions:`" + ` | Actions |
| ` + "`obs:`" + `, ` + "`observation:`" + `, ` + "`observations:`" + ` | Observations |
| ` + "`open:`" + `, ` + "`thread:`" + `, ` + "`threads:`" + ` | Open Threads |

Text without a prefix is recorded as an action. The prefix is removed and the
rest is trimmed; a note that is empty after that is rejected.

## Rules

1. **One fact per note.** Notes are appended in order and never edited.
2. **Plain text.** Notes become bullets in the compiled entry; keep them to one line.
3. **Open threads** are for follow-ups that are not done yet.

## Compiling

compile_entry renders the day into the collection's template. The title is
"{date} - {title}" and must satisfy the collection's title rule. Topics are a
comma separated list and must come from the collection's allowed topics when
it has any. The excerpt is taken from the first context note, else the first
action, else the first observation.

## Example

` + "```" + `
ctx: Investigating flaky login test
act: Added retry around token refresh
obs: Failure only happens when the clock skews
open: Ask infra about NTP on CI runners
` + "```" + `
`
