package agent

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/signal-agent/internal/extract"
	"github.com/jonathan/signal-agent/internal/schemas"
	"github.com/jonathan/signal-agent/internal/tools"
	rootschemas "github.com/jonathan/signal-agent/schemas"
)

// ParseToolCalls returns every well-formed tool call in a reply, in order.
// Each line is tried whole, then split on ';' for compound lines. If no line
// holds a call, the whole reply (fences stripped) is tried as one call.
func ParseToolCalls(reply string) []tools.Call {
	var calls []tools.Call

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if c, ok := parseCall(line); ok {
			calls = append(calls, c)
			continue
		}
		if !strings.Contains(line, ";") {
			continue
		}
		for _, part := range strings.Split(line, ";") {
			if c, ok := parseCall(strings.TrimSpace(part)); ok {
				calls = append(calls, c)
			}
		}
	}

	if len(calls) == 0 {
		if c, ok := parseCall(extract.StripFences(reply)); ok {
			calls = append(calls, c)
		}
	}
	return calls
}

func parseCall(s string) (tools.Call, bool) {
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return tools.Call{}, false
	}
	if err := schemas.ValidateBytes(rootschemas.ToolCall, []byte(s)); err != nil {
		return tools.Call{}, false
	}
	var c tools.Call
	if err := json.Unmarshal([]byte(s), &c); err != nil {
		return tools.Call{}, false
	}
	c.Tool = strings.TrimSpace(c.Tool)
	return c, c.Tool != ""
}
