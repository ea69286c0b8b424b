package mcpserver

// HooksSetupContract documents how a host registers the Raido hooks. It is
// exposed both as an MCP resource and through the get_hooks_setup tool so
// agents can configure a project without guessing the wiring.
const HooksSetupContract = `# Raido Hook Setup

Raido plugs into a coding-agent host at three lifecycle points. Register
each hook to invoke the raido binary with the matching subcommand; every
hook reads the host's JSON envelope from stdin and always exits 0.

## Hooks

| Lifecycle event        | Command                   | Effect |
|------------------------|---------------------------|--------|
| after each tool call   | raido hook post-tool      | records the edited file (Write/Edit/MultiEdit only) |
| agent turn/session end | raido hook session-end    | runs the build command, prints a bounded report |
| user prompt submitted  | raido hook user-prompt    | prepends skill reminders to the prompt |

Example host configuration (Claude Code style):

` + "```json" + `
{
  "hooks": {
    "PostToolUse": [{"hooks": [{"type": "command", "command": "raido hook post-tool"}]}],
    "Stop": [{"hooks": [{"type": "command", "command": "raido hook session-end"}]}],
    "UserPromptSubmit": [{"hooks": [{"type": "command", "command": "raido hook user-prompt"}]}]
  }
}
` + "```" + `

## State files

Both live under the workspace root supplied by the host:

- ` + "`.raido/edit-log.json`" + `: ` + "`{\"files\": [\"<path>\", ...], \"timestamp\": <epoch-ms>}`" + `;
  created on the first recorded edit, deleted when a build check completes.
- ` + "`skill-rules.json`" + `: rule name mapped to
  ` + "`{\"promptTriggers\": {\"keywords\": [...], \"intentPatterns\": [...]}}`" + `.
  Keywords match as case-insensitive substrings; intent patterns are
  case-insensitive regular expressions. A missing file means zero rules.

## Guarantees

- Hooks never fail the host: every error degrades to a no-op or to report text.
- The edit record is consumed exactly once per session-end check.
- Build output is bounded: at most 4 flagged lines verbatim, a count above
  that, and at most 10 excerpt lines for a failed build.
`
