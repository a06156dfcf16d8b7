package agent

import (
	"strings"

	"github.com/ppiankov/worldview/internal/render"
	"github.com/ppiankov/worldview/internal/tokens"
)

const taskInstructions = `## Task

You receive a plain-text fact or statement and the current Worldview file. Decide whether the fact belongs to an existing concept or facet or needs a new one, express it in the notation above, and answer with the edits that add it.

## Reply Format

Answer with a single JSON object and nothing else:

    {"edits": [{"old_string": "...", "new_string": "..."}]}

- Each old_string must match the file exactly, including whitespace and indentation
- Each old_string must appear exactly once in the file; include more context if ambiguous
- To insert lines, match an existing line and repeat it in new_string together with the new lines
- If the file is empty, use a single edit with an empty old_string whose new_string is the whole document

## Encode Only What Is Stated

- Only encode information explicitly stated in the fact
- Never add supplementary knowledge, formulas or figures that were not given
- Never add assumptions or inferences beyond what was said
- Be token-efficient: store the user's framing, not a knowledge base

## Reject Ephemeral Events

The file stores durable beliefs, values, perspectives and knowledge, not diary entries.

- Reject one-time personal events such as "I went to the park on Sunday"
- Reject time-bound occurrences that describe what happened rather than what is believed
- Accept beliefs about events such as "parks are good for mental health"

To reject, answer with {"reject": "<one sentence explaining why>"} and no edits.

If your edits produce an invalid document you will receive the validator's diagnostics. Answer again with corrected edits against the original file.
`

// SystemPrompt is the notation guide for table followed by the editing rules
func SystemPrompt(table *tokens.Table) string {
	var b strings.Builder
	b.WriteString("You are a Worldview format agent. You incorporate plain-text facts into a Worldview file using the proper notation.\n\n")
	b.WriteString("---\n\n")
	b.WriteString(render.SystemPrompt(table))
	b.WriteString("\n---\n\n")
	b.WriteString(taskInstructions)
	return b.String()
}

func userPrompt(fact, current string) string {
	var b strings.Builder
	if current == "" {
		b.WriteString("The Worldview file is empty.\n\n")
	} else {
		b.WriteString("Current Worldview file:\n\n```\n")
		b.WriteString(current)
		if !strings.HasSuffix(current, "\n") {
			b.WriteString("\n")
		}
		b.WriteString("```\n\n")
	}
	b.WriteString("Fact: ")
	b.WriteString(strings.TrimSpace(fact))
	b.WriteString("\n")
	return b.String()
}
