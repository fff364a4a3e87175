package api

import (
	"context"

	"github.com/iudanet/notifsync/internal/models"
	"github.com/iudanet/notifsync/pkg/api"
)

// Lister fetches raw listing pages.
type Lister interface {
	ListNotifications(ctx context.Context, limit int, cursor string) (*api.ListNotificationsResponse, error)
}

// FeedAdapter turns the wire listing into model pages.
type FeedAdapter struct {
	lister   Lister
	pageSize int
}

// NewFeedAdapter creates an adapter requesting pageSize items per page.
func NewFeedAdapter(lister Lister, pageSize int) *FeedAdapter {
	if pageSize <= 0 || pageSize > api.MaxLimit {
		pageSize = api.MaxLimit
	}
	return &FeedAdapter{lister: lister, pageSize: pageSize}
}

// PageSize returns the requested page size.
func (a *FeedAdapter) PageSize() int {
	return a.pageSize
}

// ListPage fetches the page that starts at cursor. An empty cursor requests
// the newest page. Items are passed through unvalidated.
func (a *FeedAdapter) ListPage(ctx context.Context, cursor string) (*models.Page, error) {
	resp, err := a.lister.ListNotifications(ctx, a.pageSize, cursor)
	if err != nil {
		return nil, err
	}

	page := &models.Page{
		Cursor: resp.Cursor,
		Items:  make([]models.Item, 0, len(resp.Notifications)),
	}
	for _, n := range resp.Notifications {
		page.Items = append(page.Items, ToItem(n))
	}
	return page, nil
}

// ToItem converts a wire notification.
func ToItem(n api.Notification) models.Item {
	return models.Item{
		URI:           n.URI,
		CID:           n.CID,
		Author:        models.Author{DID: n.Author.DID, Handle: n.Author.Handle, DisplayName: n.Author.DisplayName},
		Reason:        models.Reason(n.Reason),
		ReasonSubject: n.ReasonSubject,
		Record:        n.Record,
		IsRead:        n.IsRead,
		IndexedAt:     n.IndexedAt.UTC(),
	}
}
