// Package schemas embeds the JSON Schemas for pipeline artifacts and LLM replies.
package schemas

import "embed"

// Schema file names
const (
	ScrapeResult   = "scrape_result.schema.json"
	ValidateResult = "validate_result.schema.json"
	EmailDraft     = "email_draft.schema.json"
	ToolCall       = "tool_call.schema.json"
	Record         = "record.schema.json"
)

// Files lists every embedded schema
var Files = []string{ScrapeResult, ValidateResult, EmailDraft, ToolCall, Record}

//go:embed *.schema.json
var FS embed.FS
