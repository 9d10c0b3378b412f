// Package report renders the end-of-session summary.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"skillgate/internal/classify"
	"skillgate/internal/docs"
	"skillgate/internal/transcript"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var separator = strings.Repeat("━", 42)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"})
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#B8860B", Dark: "#FFAA00"})
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"})
)

// Summary is what the session summary shows. DocsUpdate is nil when no
// formattable file was edited.
type Summary struct {
	DocsRead    []string                     `json:"docsRead,omitempty" yaml:"docs_read,omitempty"`
	EditedFiles []string                     `json:"editedFiles,omitempty" yaml:"edited_files,omitempty"`
	DocsUpdate  *docs.Analysis               `json:"docsUpdate,omitempty" yaml:"docs_update,omitempty"`
	Skills      []transcript.CapabilityCount `json:"skills" yaml:"skills"`

	statsOnly bool
}

// Build derives the full summary from a session state.
func Build(st transcript.State, tables *classify.Tables) Summary {
	s := Summary{Skills: st.SortedCapabilities()}
	for _, p := range st.DocsRead {
		if docs.IsDocFile(p) {
			s.DocsRead = append(s.DocsRead, p)
		}
	}
	if len(st.EditedFiles) > 0 {
		s.EditedFiles = append([]string(nil), st.EditedFiles...)
		analysis := docs.Analyze(st.EditedFiles, tables.DocTriggers)
		s.DocsUpdate = &analysis
	}
	return s
}

// Stats is the skills-only variant.
func Stats(st transcript.State) Summary {
	return Summary{Skills: st.SortedCapabilities(), statsOnly: true}
}

// Empty reports whether there is nothing to print.
func (s Summary) Empty() bool {
	if s.statsOnly {
		return len(s.Skills) == 0
	}
	return len(s.DocsRead) == 0 && len(s.EditedFiles) == 0 && len(s.Skills) == 0
}

// Render writes s in format. An empty summary writes nothing.
func Render(w io.Writer, s Summary, format string) error {
	if s.Empty() {
		return nil
	}
	return Encode(w, s, format, func(w io.Writer) { renderText(w, s) })
}

// Encode writes v as json or yaml, or calls text for the text format.
func Encode(w io.Writer, v any, format string, text func(io.Writer)) error {
	switch strings.ToLower(format) {
	case "", FormatText:
		text(w)
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("RPT_FORMAT: unsupported output format %q", format)
	}
}

func renderText(w io.Writer, s Summary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, dimStyle.Render(separator))
	if s.statsOnly {
		fmt.Fprintln(w, headerStyle.Render("📊 Skills used in this session:"))
		writeSkills(w, s.Skills)
		fmt.Fprintln(w, dimStyle.Render(separator))
		return
	}

	if len(s.DocsRead) > 0 {
		fmt.Fprintln(w, headerStyle.Render("📚 Docs read:"))
		for _, d := range s.DocsRead {
			fmt.Fprintf(w, "   • %s\n", d)
		}
		fmt.Fprintln(w)
	}

	if s.DocsUpdate != nil {
		if s.DocsUpdate.Needed {
			fmt.Fprintln(w, headerStyle.Render("📝 Docs update:")+" "+warnStyle.Render("Yes"))
			for _, r := range s.DocsUpdate.Reasons {
				fmt.Fprintf(w, "   → %s\n", r)
			}
		} else {
			fmt.Fprintln(w, headerStyle.Render("📝 Docs update:")+" "+okStyle.Render("No"))
		}
		fmt.Fprintln(w)
	}

	if len(s.Skills) > 0 {
		fmt.Fprintln(w, headerStyle.Render("📊 Skills used:"))
		writeSkills(w, s.Skills)
	} else {
		fmt.Fprintln(w, headerStyle.Render("📊 No skills used"))
	}
	fmt.Fprintln(w, dimStyle.Render(separator))
}

func writeSkills(w io.Writer, skills []transcript.CapabilityCount) {
	for _, c := range skills {
		fmt.Fprintf(w, "   • %s (%d)\n", c.Skill, c.Count)
	}
}
