package display

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pterm/pterm"

	"github.com/standardbeagle/refscan/internal/result"
	"github.com/standardbeagle/refscan/pkg/natsort"
)

// ResultFormatter formats completed search results for display
type ResultFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls result formatting
type FormatterOptions struct {
	Format     string // "text", "json", "compact"
	Inverted   bool   // Show the referenced-by view instead of per-target
	ShowRefs   bool   // Show entity refs next to paths
	MaxEntries int    // Maximum entries shown per target, 0 = all
	Indent     string // Indentation string
}

// NewResultFormatter creates a new result formatter
func NewResultFormatter(options FormatterOptions) *ResultFormatter {
	if options.Indent == "" {
		options.Indent = "  "
	}
	return &ResultFormatter{options: options}
}

// Format formats a result set for display
func (rf *ResultFormatter) Format(rs *result.ResultSet) string {
	if rs == nil {
		return "No search results available"
	}

	switch rf.options.Format {
	case "json":
		return rf.formatJSON(rs)
	case "compact":
		return rf.formatCompact(rs)
	default:
		return rf.formatText(rs)
	}
}

// view selects the index being rendered.
func (rf *ResultFormatter) view(rs *result.ResultSet) []result.MatchResult {
	if rf.options.Inverted {
		return rs.Inverted
	}
	return rs.PerTarget
}

// formatText formats the result set as one branch tree per target
func (rf *ResultFormatter) formatText(rs *result.ResultSet) string {
	var sb strings.Builder

	results := rf.view(rs)
	total := 0
	for i := range results {
		total += len(results[i].Found)
	}

	noun := "reference"
	if rf.options.Inverted {
		noun = "referrer"
	}
	sb.WriteString(fmt.Sprintf("%d target(s), %d %s(s)\n", len(results), total, noun))
	if len(rs.TypeTags) > 0 {
		tags := append([]string(nil), rs.TypeTags...)
		natsort.Strings(tags)
		sb.WriteString(fmt.Sprintf("Types: %s\n", strings.Join(tags, ", ")))
	}
	sb.WriteString("\n")

	for i := range results {
		rf.formatTarget(&sb, &results[i])
	}

	return sb.String()
}

// formatTarget renders one target line plus its found entries
func (rf *ResultFormatter) formatTarget(sb *strings.Builder, m *result.MatchResult) {
	sb.WriteString("→ ")
	sb.WriteString(targetLabel(m))
	sb.WriteString("\n")

	if len(m.Found) == 0 {
		sb.WriteString(rf.options.Indent)
		sb.WriteString("(no references found)\n")
		return
	}

	shown := m.Found
	hidden := 0
	if rf.options.MaxEntries > 0 && len(shown) > rf.options.MaxEntries {
		hidden = len(shown) - rf.options.MaxEntries
		shown = shown[:rf.options.MaxEntries]
	}

	for i, entry := range shown {
		branch := "├─ "
		if i == len(shown)-1 && hidden == 0 {
			branch = "└─ "
		}
		sb.WriteString(rf.options.Indent)
		sb.WriteString(branch)
		sb.WriteString(entryLabel(entry))
		if entry.TypeTag != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", entry.TypeTag))
		}
		if rf.options.ShowRefs && entry.Ref != "" {
			sb.WriteString(fmt.Sprintf(" [%s]", entry.Ref))
		}
		sb.WriteString("\n")
	}

	if hidden > 0 {
		sb.WriteString(rf.options.Indent)
		sb.WriteString(fmt.Sprintf("└─ +%d more\n", hidden))
	}
}

// formatCompact formats each target as a single line
func (rf *ResultFormatter) formatCompact(rs *result.ResultSet) string {
	results := rf.view(rs)

	var lines []string
	for i := range results {
		m := &results[i]
		if len(m.Found) == 0 {
			lines = append(lines, fmt.Sprintf("%s ← none", targetLabel(m)))
			continue
		}
		names := make([]string, 0, len(m.Found))
		for _, entry := range m.Found {
			names = append(names, entryLabel(entry))
		}
		lines = append(lines, fmt.Sprintf("%s ← %s", targetLabel(m), strings.Join(names, ", ")))
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// formatJSON formats the whole result set as indented JSON
func (rf *ResultFormatter) formatJSON(rs *result.ResultSet) string {
	data, err := json.MarshalIndent(rs, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data) + "\n"
}

// targetLabel returns the display name for a match target. The path
// wins; a target whose entity vanished falls back to its ref.
func targetLabel(m *result.MatchResult) string {
	if m.RootPath != "" {
		return m.RootPath
	}
	if m.Root != "" {
		return string(m.Root)
	}
	return "(unknown target)"
}

// entryLabel returns the display name for one found entry. Text
// search sources carry only a name.
func entryLabel(e result.FoundEntry) string {
	if e.Path != "" {
		return e.Path
	}
	if e.Name != "" {
		return e.Name
	}
	return string(e.Ref)
}

// HistoryTable renders retained searches as a table, oldest first.
// The row at cursor is marked so navigation state stays visible.
func HistoryTable(entries []*result.ResultSet, cursor int) string {
	if len(entries) == 0 {
		return "No search history\n"
	}

	data := pterm.TableData{{"", "#", "When", "Targets", "Refs"}}
	for i, rs := range entries {
		marker := ""
		if i == cursor {
			marker = "*"
		}
		data = append(data, []string{
			marker,
			fmt.Sprintf("%d", i+1),
			rs.CreatedAt.Format("2006-01-02 15:04"),
			summarizeTargets(rs),
			fmt.Sprintf("%d", rs.FoundCount()),
		})
	}

	rendered, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Sprintf("history table: %v\n", err)
	}
	return rendered + "\n"
}

// summarizeTargets produces a short target list for the history table
func summarizeTargets(rs *result.ResultSet) string {
	const maxShown = 3

	labels := make([]string, 0, maxShown+1)
	for i := range rs.PerTarget {
		if i == maxShown {
			labels = append(labels, fmt.Sprintf("+%d more", len(rs.PerTarget)-maxShown))
			break
		}
		labels = append(labels, targetLabel(&rs.PerTarget[i]))
	}
	if len(labels) == 0 {
		return "(empty)"
	}
	return strings.Join(labels, ", ")
}
