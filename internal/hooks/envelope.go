// Package hooks implements the host-facing boundary: decoding hook
// envelopes from stdin and running the pipeline stages behind a contract
// that never surfaces errors to the host.
package hooks

import (
	"encoding/json"
	"io"
)

// Envelope is the JSON document a host writes to a hook's stdin.
// Unknown fields are ignored; hosts keep growing this payload.
type Envelope struct {
	SessionID     string    `json:"session_id"`
	Cwd           string    `json:"cwd"`
	HookEventName string    `json:"hook_event_name"`
	ToolName      string    `json:"tool_name"`
	ToolInput     ToolInput `json:"tool_input"`
	Prompt        string    `json:"prompt"`
}

// ToolInput carries the subset of tool arguments the pipeline cares about.
type ToolInput struct {
	FilePath string `json:"file_path"`
}

// Decode reads an envelope from r. Malformed or empty input yields a zero
// envelope: a hook must keep working even when the host changes its wire
// format.
func Decode(r io.Reader) *Envelope {
	env := &Envelope{}
	data, err := io.ReadAll(r)
	if err != nil {
		return env
	}
	if err := json.Unmarshal(data, env); err != nil {
		return &Envelope{}
	}
	return env
}
