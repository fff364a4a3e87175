package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidItem is returned when a fetched item is missing a required field.
var ErrInvalidItem = errors.New("invalid feed item")

// Reason describes why a notification was produced.
type Reason string

const (
	ReasonLike    Reason = "like"
	ReasonRepost  Reason = "repost"
	ReasonFollow  Reason = "follow"
	ReasonMention Reason = "mention"
	ReasonReply   Reason = "reply"
	ReasonQuote   Reason = "quote"
)

// Author identifies the account that triggered a notification.
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
}

// Item is one notification of the remote feed.
// URI and IndexedAt are required; everything else is carried as-is.
type Item struct {
	IndexedAt     time.Time       `json:"indexed_at"`               // IndexedAt время индексации на сервере, ключ для горизонта
	Author        Author          `json:"author"`                   // Author автор события
	URI           string          `json:"uri"`                      // URI уникальный идентификатор ресурса (primary key)
	CID           string          `json:"cid,omitempty"`            // CID content id записи
	Reason        Reason          `json:"reason"`                   // Reason тип уведомления
	ReasonSubject string          `json:"reason_subject,omitempty"` // ReasonSubject URI объекта, к которому относится уведомление
	Record        json.RawMessage `json:"record,omitempty"`         // Record исходная запись без интерпретации
	IsRead        bool            `json:"is_read"`                  // IsRead прочитано ли уведомление
}

// Validate checks the fields the sync pipeline depends on.
func (i *Item) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: nil item", ErrInvalidItem)
	}
	if strings.TrimSpace(i.URI) == "" {
		return fmt.Errorf("%w: uri is required", ErrInvalidItem)
	}
	if i.IndexedAt.IsZero() {
		return fmt.Errorf("%w: indexed_at is required for %s", ErrInvalidItem, i.URI)
	}
	return nil
}

// Page is one page of the cursor-paginated remote listing.
// An empty Cursor means the chain has ended.
type Page struct {
	Cursor string
	Items  []Item
}

// Oldest returns the smallest IndexedAt on the page and false if the page is empty.
func (p *Page) Oldest() (time.Time, bool) {
	if p == nil || len(p.Items) == 0 {
		return time.Time{}, false
	}
	oldest := p.Items[0].IndexedAt
	for _, item := range p.Items[1:] {
		if item.IndexedAt.Before(oldest) {
			oldest = item.IndexedAt
		}
	}
	return oldest, true
}
