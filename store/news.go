package store

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// News audiences.
const (
	AudienceGlobal = "global"
	AudiencePlayer = "player"
)

// NewsEntry is one galactic news item.
type NewsEntry struct {
	ID        string  `json:"id"`
	Timestamp float64 `json:"timestamp"`
	Category  string  `json:"category"`
	Headline  string  `json:"headline"`
	Body      string  `json:"body,omitempty"`
	Audience  string  `json:"audience"`
	Player    string  `json:"player,omitempty"`
}

type newsDoc struct {
	Items []NewsEntry `json:"items"`
}

// NewsStore is the append-only galactic news feed with day-based
// retention.
type NewsStore struct {
	mu            sync.Mutex
	path          string
	retentionDays int
	log           zerolog.Logger
}

// NewNewsStore points the feed at its backing file.
func NewNewsStore(path string, retentionDays int, log zerolog.Logger) *NewsStore {
	return &NewsStore{path: path, retentionDays: retentionDays, log: log}
}

func (n *NewsStore) load() *newsDoc {
	doc := &newsDoc{}
	if err := readJSON(n.path, doc); err != nil && !os.IsNotExist(err) {
		n.log.Warn().Err(err).Msg("news file unreadable, starting fresh")
	}
	return doc
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// Append adds an entry, pruning anything past retention in the same write.
func (n *NewsStore) Append(category, headline, body, audience, player string) (*NewsEntry, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	entry := NewsEntry{
		ID:        uuid.NewString(),
		Timestamp: nowSeconds(),
		Category:  category,
		Headline:  headline,
		Body:      body,
		Audience:  audience,
		Player:    player,
	}
	doc := n.load()
	doc.Items = append(doc.Items, entry)

	cutoff := entry.Timestamp - float64(n.retentionDays)*86400
	kept := doc.Items[:0]
	for _, item := range doc.Items {
		if item.Timestamp >= cutoff {
			kept = append(kept, item)
		}
	}
	doc.Items = kept

	if err := writeJSON(n.path, doc); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Unseen returns entries inside the lookback window, newer than the
// player's watermark, whose audience matches: global items plus items
// addressed to the player.
func (n *NewsStore) Unseen(player string, watermark float64, lookbackDays int) []NewsEntry {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := nowSeconds()
	windowStart := now - float64(lookbackDays)*86400
	var out []NewsEntry
	for _, item := range n.load().Items {
		if item.Timestamp < windowStart || item.Timestamp > now {
			continue
		}
		if item.Timestamp <= watermark {
			continue
		}
		if item.Audience == AudiencePlayer && item.Player != player {
			continue
		}
		out = append(out, item)
	}
	return out
}

// Recent returns every retained entry visible to the player within the
// window, regardless of the watermark.
func (n *NewsStore) Recent(player string, lookbackDays int) []NewsEntry {
	return n.Unseen(player, 0, lookbackDays)
}
