package transcript

import (
	"strings"
)

// Searcher answers queries over a transcript store: full-text search of
// conversation content, lookups by ticket or status, and aggregate run
// statistics.
type Searcher struct {
	store Manager
}

// NewSearcher creates a searcher over a transcript store.
func NewSearcher(store Manager) *Searcher {
	return &Searcher{store: store}
}

// SearchOptions configures content search.
type SearchOptions struct {
	CaseSensitive bool
	MaxResults    int
	TicketID      string // Restrict the search to one ticket's runs
}

// SearchResult is one matching turn.
type SearchResult struct {
	RunID    string `json:"runId"`
	TicketID string `json:"ticketId"`
	TurnID   int    `json:"turnId"`
	Role     string `json:"role"`
	Snippet  string `json:"snippet"`
}

// snippetRadius is how many characters of context surround a match.
const snippetRadius = 60

// SearchContent scans stored conversations for the query, newest runs
// first, and returns at most one result per matching turn.
func (s *Searcher) SearchContent(query string, opts SearchOptions) ([]SearchResult, error) {
	if query == "" {
		return nil, nil
	}
	needle := query
	if !opts.CaseSensitive {
		needle = strings.ToLower(needle)
	}

	metas, err := s.store.List(ListFilter{TicketID: opts.TicketID})
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, meta := range metas {
		tr, err := s.store.Load(meta.RunID)
		if err != nil {
			continue
		}
		for _, turn := range tr.Turns {
			haystack := turn.Content
			if !opts.CaseSensitive {
				haystack = strings.ToLower(haystack)
			}
			idx := strings.Index(haystack, needle)
			if idx < 0 {
				continue
			}
			results = append(results, SearchResult{
				RunID:    meta.RunID,
				TicketID: meta.TicketID,
				TurnID:   turn.ID,
				Role:     turn.Role,
				Snippet:  snippet(turn.Content, idx, len(query)),
			})
			if opts.MaxResults > 0 && len(results) >= opts.MaxResults {
				return results, nil
			}
		}
	}
	return results, nil
}

// snippet cuts a window of content around the match, collapsed to one line.
func snippet(content string, idx, matchLen int) string {
	start := idx - snippetRadius
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + snippetRadius
	if end > len(content) {
		end = len(content)
	}

	out := content[start:end]
	if start > 0 {
		out = "..." + out
	}
	if end < len(content) {
		out += "..."
	}
	return strings.Join(strings.Fields(out), " ")
}

// FindByTicket returns the runs recorded for a ticket, newest first.
func (s *Searcher) FindByTicket(ticketID string) ([]Meta, error) {
	return s.store.List(ListFilter{TicketID: ticketID})
}

// FindByStatus returns the runs that ended with the given status.
func (s *Searcher) FindByStatus(status RunStatus) ([]Meta, error) {
	return s.store.List(ListFilter{Status: status})
}

// Statistics holds aggregated run statistics.
type Statistics struct {
	TotalRuns      int
	CompletedRuns  int
	FailedRuns     int
	CanceledRuns   int
	ActiveRuns     int
	TotalTokensIn  int
	TotalTokensOut int
	AvgTokensIn    int
	AvgTokensOut   int
}

// RunStats aggregates token usage and outcomes over matching runs.
func (s *Searcher) RunStats(filter ListFilter) (*Statistics, error) {
	runs, err := s.store.List(filter)
	if err != nil {
		return nil, err
	}

	stats := &Statistics{}
	for _, run := range runs {
		stats.TotalRuns++
		stats.TotalTokensIn += run.TotalTokensIn
		stats.TotalTokensOut += run.TotalTokensOut

		switch run.Status {
		case RunStatusCompleted:
			stats.CompletedRuns++
		case RunStatusFailed:
			stats.FailedRuns++
		case RunStatusCanceled:
			stats.CanceledRuns++
		case RunStatusRunning:
			stats.ActiveRuns++
		}
	}
	if stats.TotalRuns > 0 {
		stats.AvgTokensIn = stats.TotalTokensIn / stats.TotalRuns
		stats.AvgTokensOut = stats.TotalTokensOut / stats.TotalRuns
	}
	return stats, nil
}
