package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"skillgate/internal/transcript"
)

// RenderState writes the aggregated session state, for debugging a transcript.
func RenderState(w io.Writer, st transcript.State, format string) error {
	return Encode(w, st, format, func(w io.Writer) { stateText(w, st) })
}

func stateText(w io.Writer, st transcript.State) {
	fmt.Fprintf(w, "lines: %d (malformed %d)\n", st.Lines, st.Malformed)
	fmt.Fprintf(w, "code edits: %t\n", st.HasCodeEdits)
	fmt.Fprintf(w, "workflow skill: %t\n", st.HasWorkflowSkill)
	fmt.Fprintf(w, "final check: %t\n", st.HasFinalCheck)

	fmt.Fprintf(w, "edited files: %d\n", len(st.EditedFiles))
	for _, f := range st.EditedFiles {
		fmt.Fprintf(w, "  %s\n", f)
	}

	keys := make([]string, 0, len(st.Required))
	for k := range st.Required {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		mark := "-"
		if st.Required[k] {
			mark = "+"
		}
		parts = append(parts, mark+k)
	}
	fmt.Fprintf(w, "capabilities: %s\n", strings.Join(parts, " "))

	fmt.Fprintf(w, "skills: %d\n", len(st.Capabilities))
	writeSkills(w, st.SortedCapabilities())

	fmt.Fprintf(w, "reads: %d\n", len(st.DocsRead))
	for _, d := range st.DocsRead {
		fmt.Fprintf(w, "  %s\n", d)
	}
}
