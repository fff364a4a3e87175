package sync

import (
	"time"
)

// State is a phase of the sync state machine.
type State int

const (
	StateInit State = iota
	StateCheckingCache
	StateLoadingFromCache
	StateBackfilling
	StatePolling
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateCheckingCache:
		return "CHECKING_CACHE"
	case StateLoadingFromCache:
		return "LOADING_FROM_CACHE"
	case StateBackfilling:
		return "BACKFILLING"
	case StatePolling:
		return "POLLING"
	default:
		return "UNKNOWN"
	}
}

// Source tells where a sync session got its data from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceNetwork Source = "network"
)

// StopReason explains why a backfill ended.
type StopReason string

const (
	StopHorizon   StopReason = "horizon"     // страница пересекла горизонт
	StopEndOfFeed StopReason = "end_of_feed" // сервер не вернул курсор
	StopPageCap   StopReason = "page_cap"    // достигнут лимит страниц
	StopOverlap   StopReason = "overlap"     // страница пересеклась с кэшем
)

// SessionState is the progress of the current sync session. It lives only
// for the lifetime of the process.
type SessionState struct {
	StartedAt            time.Time
	LastError            error
	ID                   string
	Cursor               string
	PagesFetched         int
	ItemsFetched         int
	InvalidItems         int
	HasCompletedBackfill bool
	IsPolling            bool
}

// Result summarizes one Sync call.
type Result struct {
	SessionID    string
	Source       Source
	StopReason   StopReason
	State        State
	PagesFetched int
	ItemsFetched int
	Inserted     int
	Invalid      int
	CachedItems  int
}

// EventType identifies a controller notification.
type EventType int

const (
	// EventDataChanged signals that new items were merged. It carries no data;
	// subscribers read Items when they need it.
	EventDataChanged EventType = iota
	// EventStateChanged signals a state transition.
	EventStateChanged
	// EventSyncFailed signals a failed backfill or poll.
	EventSyncFailed
)

func (t EventType) String() string {
	switch t {
	case EventDataChanged:
		return "data_changed"
	case EventStateChanged:
		return "state_changed"
	case EventSyncFailed:
		return "sync_failed"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers.
type Event struct {
	At       time.Time
	Err      error
	Type     EventType
	State    State
	Inserted int
}
