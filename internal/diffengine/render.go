package diffengine

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nsf/jsondiff"
)

// RenderHuman renders a DiffEntry as a human-readable line for Markdown
// reports, delegating the left/right value rendering to nsf/jsondiff so a
// reader sees the same colorized-style diff text the rest of the ecosystem
// produces for JSON comparisons.
func RenderHuman(e DiffEntry) string {
	if e.Note != "" && e.Left == nil && e.Right == nil {
		return fmt.Sprintf("%s: %s", e.Path, e.Note)
	}

	leftJSON, lErr := json.Marshal(e.Left)
	rightJSON, rErr := json.Marshal(e.Right)
	if lErr != nil || rErr != nil {
		return fmt.Sprintf("%s: left=%v right=%v%s", e.Path, e.Left, e.Right, noteSuffix(e.Note))
	}

	opts := jsondiff.DefaultConsoleOptions()
	_, diffText := jsondiff.Compare(leftJSON, rightJSON, &opts)
	diffText = strings.TrimSpace(diffText)
	return fmt.Sprintf("%s: %s%s", e.Path, diffText, noteSuffix(e.Note))
}

func noteSuffix(note string) string {
	if note == "" {
		return ""
	}
	return fmt.Sprintf(" (%s)", note)
}
