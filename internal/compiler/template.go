package compiler

// DefaultTemplate is the starter entry template written by `devdiary init`.
const DefaultTemplate = `---
title: "{{title}}"
date: {{date}}
excerpt: "{{excerpt}}"
topics: {{topics}}
draft: {{draft}}
---

## Context
{{context}}

## Actions
{{actions}}

## Observations
{{observations}}

## Open Threads
{{openThreads}}

## Timeline
{{timeline}}
`
