// format.go — rendering violation diagnostics
//
// Turns the collector's entries into the final message. Three layouts:
//
//	no entries:    cond                      (plus ": description" if any)
//	one entry,     cond: label was value     only when the condition text
//	single line:                             itself has no newline
//	otherwise:     cond:
//	               label1 was value1
//	               label2 was value2
//
// Entries are sorted by label in plain code-point order, which groups a
// prefix before its extensions (a, a.y, a.y.z) and makes the output stable
// and idempotent across runs.
package guard

import (
	"sort"
	"strings"
)

////////////////////////////////////////////////////////////////////////////////
//                                  PUBLIC API
////////////////////////////////////////////////////////////////////////////////

// RenderDiagnostic builds the violation message for a condition, an optional
// description, and the collected entries. The entries slice is not mutated.
func RenderDiagnostic(condText, description string, entries []ReportEntry) string {
	sorted := make([]ReportEntry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Label < sorted[j].Label })

	head := condText
	if description != "" {
		head += ": " + description
	}
	if len(sorted) == 0 {
		return head
	}
	if len(sorted) == 1 && !strings.Contains(condText, "\n") {
		return head + ": " + sorted[0].Label + " was " + sorted[0].ValueRepr
	}
	var sb strings.Builder
	sb.WriteString(head)
	sb.WriteString(":")
	for _, e := range sorted {
		sb.WriteString("\n")
		sb.WriteString(e.Label)
		sb.WriteString(" was ")
		sb.WriteString(e.ValueRepr)
	}
	return sb.String()
}

//// END_OF_PUBLIC
