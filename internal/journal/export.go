package journal

import (
	"context"
	"time"

	"github.com/AnshRaj112/mindjournal-backend/internal/models"
	"github.com/AnshRaj112/mindjournal-backend/internal/session"
)

// ExportDocument is the downloadable copy of a user's journal.
type ExportDocument struct {
	User       session.Identity `json:"user"`
	ExportDate time.Time        `json:"exportDate"`
	Entries    []models.Entry   `json:"entries"`
}

// Export returns every entry of the session user, verbatim.
func (c *Client) Export(ctx context.Context) (ExportDocument, error) {
	ident, err := c.identity()
	if err != nil {
		return ExportDocument{}, err
	}
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return ExportDocument{}, err
	}
	return ExportDocument{
		User:       ident,
		ExportDate: c.now().UTC(),
		Entries:    snap.Entries,
	}, nil
}
