package game

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox(t *testing.T) {
	t.Run("bodies clamp at five hundred characters", func(t *testing.T) {
		msg := NewMessage("a", "b", "subject", strings.Repeat("x", 900), 0)
		assert.Len(t, msg.Body, maxMessageBody)
		assert.NotEmpty(t, msg.ID)
	})

	t.Run("overflow evicts the oldest non-saved message", func(t *testing.T) {
		p := NewPlayer("Test", 0, nil)
		for i := 0; i < inboxCap+5; i++ {
			p.AddMessage(NewMessage("sender", "Test", fmt.Sprintf("msg %d", i), "body", float64(i)))
		}
		nonSaved := 0
		for _, m := range p.Messages {
			assert.NotEqual(t, "msg 0", m.Subject)
			assert.NotEqual(t, "msg 4", m.Subject)
			if !m.IsSaved {
				nonSaved++
			}
		}
		assert.Equal(t, inboxCap, nonSaved)
	})

	t.Run("saved messages survive eviction", func(t *testing.T) {
		p := NewPlayer("Test", 0, nil)
		first := NewMessage("sender", "Test", "keeper", "body", 0)
		p.AddMessage(first)
		require.True(t, p.SaveMessage(first.ID))

		for i := 0; i < inboxCap+10; i++ {
			p.AddMessage(NewMessage("sender", "Test", fmt.Sprintf("msg %d", i), "body", float64(i+1)))
		}
		require.NotNil(t, p.FindMessage(first.ID))
		assert.True(t, p.FindMessage(first.ID).IsSaved)
	})

	t.Run("the archive refuses a twenty-first save", func(t *testing.T) {
		p := NewPlayer("Test", 0, nil)
		for i := 0; i < savedArchiveCap; i++ {
			m := NewMessage("sender", "Test", fmt.Sprintf("msg %d", i), "body", float64(i))
			p.AddMessage(m)
			require.True(t, p.SaveMessage(m.ID))
		}
		extra := NewMessage("sender", "Test", "one too many", "body", 99)
		p.AddMessage(extra)
		assert.False(t, p.SaveMessage(extra.ID))
	})

	t.Run("delete and unread counting", func(t *testing.T) {
		p := NewPlayer("Test", 0, nil)
		m1 := NewMessage("sender", "Test", "a", "body", 0)
		m2 := NewMessage("sender", "Test", "b", "body", 1)
		p.AddMessage(m1)
		p.AddMessage(m2)
		assert.Equal(t, 2, p.UnreadCount())

		m1.IsRead = true
		assert.Equal(t, 1, p.UnreadCount())

		assert.True(t, p.DeleteMessage(m2.ID))
		assert.False(t, p.DeleteMessage(m2.ID))
		assert.Len(t, p.Messages, 1)
	})
}
