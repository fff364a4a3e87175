// Package api defines the wire types of the notification feed HTTP API.
package api

import (
	"encoding/json"
	"time"
)

// NotificationsPath is the cursor-paginated listing endpoint.
const NotificationsPath = "/api/v1/notifications"

// HealthPath is the health check endpoint.
const HealthPath = "/api/v1/health"

// MaxLimit is the largest page the listing returns.
const MaxLimit = 100

// Author представляет автора уведомления
type Author struct {
	DID         string `json:"did"`                    // постоянный идентификатор аккаунта
	Handle      string `json:"handle"`                 // handle аккаунта
	DisplayName string `json:"display_name,omitempty"` // отображаемое имя
}

// Notification представляет одно уведомление ленты
type Notification struct {
	IndexedAt     time.Time       `json:"indexed_at"`               // время индексации на сервере
	Author        Author          `json:"author"`                   // автор события
	URI           string          `json:"uri"`                      // уникальный идентификатор
	CID           string          `json:"cid"`                      // content id
	Reason        string          `json:"reason"`                   // like, repost, follow, mention, reply, quote
	ReasonSubject string          `json:"reason_subject,omitempty"` // URI объекта уведомления
	Record        json.RawMessage `json:"record,omitempty"`         // исходная запись
	IsRead        bool            `json:"is_read"`                  // прочитано ли
}

// ListNotificationsResponse представляет одну страницу ленты.
// Пустой Cursor означает конец цепочки.
type ListNotificationsResponse struct {
	Cursor        string         `json:"cursor,omitempty"`
	Notifications []Notification `json:"notifications"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// HealthResponse представляет ответ health check
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}
