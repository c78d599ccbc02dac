package transcript

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Viewer renders transcripts for terminal output. Color is optional so
// output stays clean when piped or when the operator disables it.
type Viewer struct {
	color bool
}

// NewViewer creates a viewer.
func NewViewer(color bool) *Viewer {
	return &Viewer{color: color}
}

const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiCyan   = "\033[36m"
	ansiYellow = "\033[33m"
)

func (v *Viewer) paint(code, s string) string {
	if !v.color {
		return s
	}
	return code + s + ansiReset
}

func roleColor(role string) string {
	switch role {
	case "assistant":
		return ansiCyan
	case "tool":
		return ansiYellow
	default:
		return ansiBold
	}
}

// ViewFull writes the complete conversation.
func (v *Viewer) ViewFull(w io.Writer, t *Transcript) error {
	v.writeHeader(w, t)
	for _, turn := range t.Turns {
		v.writeTurn(w, turn)
	}
	return nil
}

// ViewSummary writes the run header and a one-line preview per turn.
func (v *Viewer) ViewSummary(w io.Writer, t *Transcript) error {
	v.writeHeader(w, t)

	for _, turn := range t.Turns {
		preview := strings.Join(strings.Fields(turn.Content), " ")
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		fmt.Fprintf(w, "  [%d] %s: %s\n", turn.ID, v.paint(roleColor(turn.Role), turn.Role), preview)
	}
	return nil
}

func (v *Viewer) writeHeader(w io.Writer, t *Transcript) {
	sep := strings.Repeat("=", 60)

	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "Run: %s\n", v.paint(ansiBold, t.RunID))
	fmt.Fprintf(w, "Ticket: %s | Status: %s\n", t.Metadata.TicketID, t.Metadata.Status)
	fmt.Fprintf(w, "Started: %s | Duration: %s\n",
		t.Metadata.StartedAt.Format("2006-01-02 15:04:05"),
		t.Duration().Round(time.Second))
	fmt.Fprintf(w, "Tokens: %d in / %d out\n",
		t.Metadata.TotalTokensIn, t.Metadata.TotalTokensOut)
	if t.Metadata.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", t.Metadata.Error)
	}
	fmt.Fprintln(w, sep)
}

func (v *Viewer) writeTurn(w io.Writer, turn Turn) {
	fmt.Fprintln(w)

	header := fmt.Sprintf("[%d] %s (%s)",
		turn.ID,
		v.paint(roleColor(turn.Role), strings.ToUpper(turn.Role)),
		turn.Timestamp.Format("15:04:05"))
	if turn.TokensIn > 0 {
		header += fmt.Sprintf(" [%d tokens in]", turn.TokensIn)
	}
	if turn.TokensOut > 0 {
		header += fmt.Sprintf(" [%d tokens out]", turn.TokensOut)
	}

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, v.paint(ansiDim, strings.Repeat("-", 60)))
	fmt.Fprintln(w, turn.Content)

	for _, tc := range turn.ToolCalls {
		fmt.Fprintf(w, "\n  Tool: %s\n", tc.Name)
		if tc.Input != "" {
			fmt.Fprintf(w, "    Input: %s\n", tc.Input)
		}
		if tc.Output != "" {
			output := tc.Output
			if len(output) > 200 {
				output = output[:200] + "..."
			}
			fmt.Fprintf(w, "    Output: %s\n", output)
		}
		if tc.Error != "" {
			fmt.Fprintf(w, "    Error: %s\n", tc.Error)
		}
	}
}

// ExportMarkdown writes the transcript as a markdown document.
func (v *Viewer) ExportMarkdown(w io.Writer, t *Transcript) error {
	fmt.Fprintf(w, "# Transcript: %s\n\n", t.RunID)

	fmt.Fprintf(w, "- Ticket: %s\n", t.Metadata.TicketID)
	fmt.Fprintf(w, "- Status: %s\n", t.Metadata.Status)
	fmt.Fprintf(w, "- Started: %s\n", t.Metadata.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(w, "- Duration: %s\n", t.Duration().Round(time.Second))
	fmt.Fprintf(w, "- Tokens: %d in / %d out\n", t.Metadata.TotalTokensIn, t.Metadata.TotalTokensOut)
	if t.Metadata.Error != "" {
		fmt.Fprintf(w, "- Error: %s\n", t.Metadata.Error)
	}
	fmt.Fprintln(w)

	for _, turn := range t.Turns {
		fmt.Fprintf(w, "## Turn %d: %s\n\n", turn.ID, turn.Role)
		fmt.Fprintf(w, "%s\n\n", turn.Content)

		for _, tc := range turn.ToolCalls {
			fmt.Fprintf(w, "### Tool: `%s`\n\n", tc.Name)
			if tc.Input != "" {
				fmt.Fprintf(w, "Input:\n\n```json\n%s\n```\n\n", tc.Input)
			}
			if tc.Output != "" {
				fmt.Fprintf(w, "Output:\n\n```\n%s\n```\n\n", tc.Output)
			}
			if tc.Error != "" {
				fmt.Fprintf(w, "Error: %s\n\n", tc.Error)
			}
		}
	}
	return nil
}

// FormatMetaList writes a table of run metadata.
func (v *Viewer) FormatMetaList(w io.Writer, metas []Meta) error {
	if len(metas) == 0 {
		fmt.Fprintln(w, "No runs found.")
		return nil
	}

	fmt.Fprintf(w, "%-40s %-12s %-17s %12s %6s\n",
		"RUN ID", "STATUS", "STARTED", "TOKENS", "TURNS")
	fmt.Fprintln(w, strings.Repeat("-", 92))

	for _, m := range metas {
		fmt.Fprintf(w, "%-40s %-12s %-17s %12s %6d\n",
			truncate(m.RunID, 40),
			m.Status,
			m.StartedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", m.TotalTokensIn, m.TotalTokensOut),
			m.TurnCount)
	}

	fmt.Fprintf(w, "\nTotal: %d runs\n", len(metas))
	return nil
}

// FormatStats writes aggregated run statistics.
func (v *Viewer) FormatStats(w io.Writer, stats *Statistics) error {
	fmt.Fprintln(w, "Run Statistics:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Total Runs:      %d\n", stats.TotalRuns)
	fmt.Fprintf(w, "  Completed:     %d\n", stats.CompletedRuns)
	fmt.Fprintf(w, "  Failed:        %d\n", stats.FailedRuns)
	fmt.Fprintf(w, "  Canceled:      %d\n", stats.CanceledRuns)
	fmt.Fprintf(w, "  Active:        %d\n", stats.ActiveRuns)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Tokens:    %d in / %d out\n", stats.TotalTokensIn, stats.TotalTokensOut)
	fmt.Fprintf(w, "Avg Tokens/Run:  %d in / %d out\n", stats.AvgTokensIn, stats.AvgTokensOut)
	return nil
}

// truncate shortens a string to max length.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
