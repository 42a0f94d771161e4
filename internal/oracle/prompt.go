package oracle

import "strings"

// systemPrompt pins the reply format so responses parse deterministically.
const systemPrompt = `You identify the file path that a code snippet from a technical document should be saved to.
Reply with exactly one relative file path using forward slashes, for example: src/components/Button.jsx
If you cannot determine the path, reply with exactly: NO_PATH
Do not add commentary, explanations, quotes or code fences.`

// userPrompt renders the bounded context window for one code block.
func userPrompt(w Window) string {
	var sb strings.Builder
	if len(w.Before) > 0 {
		sb.WriteString("Text immediately before the code block:\n")
		for _, line := range w.Before {
			sb.WriteString(line)
			sb.WriteByte('\n')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("Opening fence line:\n")
	sb.WriteString(w.Fence)
	sb.WriteString("\n\nFirst lines of the code block:\n")
	for _, line := range w.Code {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString("\nWhat file path should this code be saved to?")
	return sb.String()
}
