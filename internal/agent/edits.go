package agent

import (
	"fmt"
	"strings"
)

// Edit is one search/replace operation on the document text
type Edit struct {
	OldString string `json:"old_string"`
	NewString string `json:"new_string"`
}

// Reply is the JSON object the model answers with: either edits or a
// rejection reason
type Reply struct {
	Edits  []Edit `json:"edits,omitempty"`
	Reject string `json:"reject,omitempty"`
}

// EditError reports which edit could not be applied
type EditError struct {
	Index  int // 1-based
	Reason string
}

func (e *EditError) Error() string {
	return fmt.Sprintf("edit %d: %s", e.Index, e.Reason)
}

// ApplyEdits applies edits to content in order. Each old string must occur
// exactly once in the text as it stands when the edit is applied. An empty
// document accepts only an empty old string, which sets its content. The
// result always ends with a newline unless it is empty.
func ApplyEdits(content string, edits []Edit) (string, error) {
	for i, e := range edits {
		if content == "" {
			if e.OldString != "" {
				return "", &EditError{Index: i + 1, Reason: "file is empty, old_string must be empty to create new content"}
			}
			content = e.NewString
			continue
		}
		if e.OldString == "" {
			return "", &EditError{Index: i + 1, Reason: "old_string is empty; include an existing line to anchor the edit"}
		}

		switch n := strings.Count(content, e.OldString); n {
		case 0:
			return "", &EditError{Index: i + 1, Reason: "old_string not found; it must match exactly, including whitespace and indentation"}
		case 1:
			content = strings.Replace(content, e.OldString, e.NewString, 1)
		default:
			return "", &EditError{Index: i + 1, Reason: fmt.Sprintf("old_string found %d times (must be unique); include more surrounding context", n)}
		}
	}

	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content, nil
}
