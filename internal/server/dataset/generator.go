// Package dataset generates the deterministic notification set served by the
// development feed server.
package dataset

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/iudanet/notifsync/internal/models"
	"github.com/iudanet/notifsync/pkg/api"
)

// SelfDID is the account whose notifications are generated.
const SelfDID = "did:plc:notifsyncself"

var reasons = []models.Reason{
	models.ReasonLike,
	models.ReasonLike,
	models.ReasonLike,
	models.ReasonRepost,
	models.ReasonFollow,
	models.ReasonMention,
	models.ReasonReply,
	models.ReasonQuote,
}

var authors = []api.Author{
	{DID: "did:plc:alicealicealice", Handle: "alice.bsky.social", DisplayName: "Alice"},
	{DID: "did:plc:bobbobbobbobbob", Handle: "bob.bsky.social"},
	{DID: "did:plc:carolcarolcarol", Handle: "carol.example.com", DisplayName: "Carol"},
	{DID: "did:plc:davedavedavedave", Handle: "dave.bsky.social", DisplayName: "Dave"},
	{DID: "did:plc:eveeveeveeveeve", Handle: "eve.bsky.social"},
	{DID: "did:plc:frankfrankfrank", Handle: "frank.example.org", DisplayName: "Frank"},
}

var phrases = []string{
	"good point",
	"agreed, shipping it",
	"have you tried turning it off and on again?",
	"this is the way",
	"source?",
	"cc @alice.bsky.social",
}

// Generator produces notifications from a seeded source. Two generators with
// the same seed produce the same sequence.
//
// Safe for concurrent use.
type Generator struct {
	rnd *rand.Rand
	seq int
	mu  sync.Mutex
}

// NewGenerator creates a generator for seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{
		rnd: rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}
}

// Generate returns count notifications of a fresh generator for seed.
func Generate(seed int64, count, days int, now time.Time) []api.Notification {
	return NewGenerator(seed).Batch(count, days, now)
}

// Batch returns count notifications spread evenly over the days before now,
// newest first. Timestamps are distinct and strictly decreasing.
func (g *Generator) Batch(count, days int, now time.Time) []api.Notification {
	if count <= 0 || days <= 0 {
		return []api.Notification{}
	}

	span := time.Duration(days) * 24 * time.Hour
	step := span / time.Duration(count)
	if step < time.Millisecond {
		step = time.Millisecond
	}

	// Генерируем от старых к новым, чтобы номера в URI росли со временем
	out := make([]api.Notification, count)
	for i := count - 1; i >= 0; i-- {
		at := now.Add(-time.Duration(i+1) * step)
		out[i] = g.Next(at)
	}
	return out
}

// Next produces the next notification, indexed at the given time.
func (g *Generator) Next(at time.Time) api.Notification {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.seq++
	reason := reasons[g.rnd.IntN(len(reasons))]
	author := authors[g.rnd.IntN(len(authors))]

	n := api.Notification{
		URI:       fmt.Sprintf("at://%s/%s/%08d", author.DID, collection(reason), g.seq),
		CID:       fmt.Sprintf("bafy%016x", g.rnd.Uint64()),
		Reason:    string(reason),
		Author:    author,
		IndexedAt: at.UTC(),
		IsRead:    g.rnd.IntN(3) == 0,
	}

	switch reason {
	case models.ReasonLike, models.ReasonRepost, models.ReasonReply, models.ReasonQuote:
		n.ReasonSubject = fmt.Sprintf("at://%s/app.bsky.feed.post/%06d", SelfDID, g.rnd.IntN(1000))
	}

	switch reason {
	case models.ReasonMention, models.ReasonReply, models.ReasonQuote:
		record, _ := json.Marshal(map[string]string{
			"$type":     "app.bsky.feed.post",
			"text":      phrases[g.rnd.IntN(len(phrases))],
			"createdAt": n.IndexedAt.Format(time.RFC3339),
		})
		n.Record = record
	}

	return n
}

func collection(reason models.Reason) string {
	switch reason {
	case models.ReasonLike:
		return "app.bsky.feed.like"
	case models.ReasonRepost:
		return "app.bsky.feed.repost"
	case models.ReasonFollow:
		return "app.bsky.graph.follow"
	default:
		return "app.bsky.feed.post"
	}
}
