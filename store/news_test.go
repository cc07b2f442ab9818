package store

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNews(t *testing.T, retentionDays int) *NewsStore {
	t.Helper()
	return NewNewsStore(filepath.Join(t.TempDir(), "news.json"), retentionDays, zerolog.Nop())
}

func TestNewsAppendAndRecent(t *testing.T) {
	n := newTestNews(t, 14)

	entry, err := n.Append("economy", "Grain futures spike", "Shortage on Ashfall.", AudienceGlobal, "")
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.Greater(t, entry.Timestamp, 0.0)

	items := n.Recent("Vex", 7)
	require.Len(t, items, 1)
	assert.Equal(t, "Grain futures spike", items[0].Headline)
}

func TestNewsAudienceFiltering(t *testing.T) {
	n := newTestNews(t, 14)
	_, err := n.Append("combat", "Pirates routed", "", AudienceGlobal, "")
	require.NoError(t, err)
	_, err = n.Append("mail", "Bounty posted on you", "", AudiencePlayer, "Vex")
	require.NoError(t, err)

	forVex := n.Recent("Vex", 7)
	assert.Len(t, forVex, 2)

	forOther := n.Recent("Moss", 7)
	require.Len(t, forOther, 1)
	assert.Equal(t, "Pirates routed", forOther[0].Headline)
}

func TestNewsWatermark(t *testing.T) {
	n := newTestNews(t, 14)
	first, err := n.Append("economy", "Old headline", "", AudienceGlobal, "")
	require.NoError(t, err)
	_, err = n.Append("economy", "New headline", "", AudienceGlobal, "")
	require.NoError(t, err)

	unseen := n.Unseen("Vex", first.Timestamp, 7)
	require.Len(t, unseen, 1)
	assert.Equal(t, "New headline", unseen[0].Headline)

	all := n.Unseen("Vex", 0, 7)
	assert.Len(t, all, 2)
}

func TestNewsRetentionPrunesOnAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.json")
	stale := nowSeconds() - 20*86400
	require.NoError(t, writeJSON(path, &newsDoc{Items: []NewsEntry{
		{ID: "old", Timestamp: stale, Category: "economy", Headline: "Ancient news", Audience: AudienceGlobal},
	}}))

	n := NewNewsStore(path, 14, zerolog.Nop())
	_, err := n.Append("combat", "Fresh news", "", AudienceGlobal, "")
	require.NoError(t, err)

	var doc newsDoc
	require.NoError(t, readJSON(path, &doc))
	require.Len(t, doc.Items, 1)
	assert.Equal(t, "Fresh news", doc.Items[0].Headline)
}

func TestNewsLookbackWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.json")
	require.NoError(t, writeJSON(path, &newsDoc{Items: []NewsEntry{
		{ID: "a", Timestamp: nowSeconds() - 10*86400, Headline: "Ten days back", Audience: AudienceGlobal},
		{ID: "b", Timestamp: nowSeconds() - 3600, Headline: "An hour back", Audience: AudienceGlobal},
	}}))

	n := NewNewsStore(path, 14, zerolog.Nop())
	items := n.Recent("Vex", 7)
	require.Len(t, items, 1)
	assert.Equal(t, "An hour back", items[0].Headline)
}
