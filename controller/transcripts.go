package controller

import (
	"context"
	"fmt"

	aerrors "github.com/morten-olsen/aura/errors"
	"github.com/morten-olsen/aura/transcript"
)

// TicketRuns returns the recorded runs for a ticket, newest first.
func (c *Controller) TicketRuns(ctx context.Context, ticketID string) ([]transcript.Meta, error) {
	if c.transcripts == nil {
		return nil, aerrors.ErrTranscriptsDisabled
	}
	if _, err := c.tickets.Get(ctx, ticketID); err != nil {
		return nil, err
	}
	return transcript.NewSearcher(c.transcripts).FindByTicket(ticketID)
}

// LoadTranscript returns the full conversation of one recorded run.
func (c *Controller) LoadTranscript(ctx context.Context, runID string) (*transcript.Transcript, error) {
	if c.transcripts == nil {
		return nil, aerrors.ErrTranscriptsDisabled
	}
	tr, err := c.transcripts.Load(runID)
	if err != nil {
		return nil, fmt.Errorf("load transcript %s: %w", runID, err)
	}
	return tr, nil
}

// SearchTranscripts scans recorded conversations for the query. An empty
// ticketID searches across all tickets.
func (c *Controller) SearchTranscripts(ctx context.Context, ticketID, query string, limit int) ([]transcript.SearchResult, error) {
	if c.transcripts == nil {
		return nil, aerrors.ErrTranscriptsDisabled
	}
	return transcript.NewSearcher(c.transcripts).SearchContent(query, transcript.SearchOptions{
		TicketID:   ticketID,
		MaxResults: limit,
	})
}
