package game

import (
	"strings"

	"github.com/google/uuid"
)

const (
	maxMessageBody  = 500
	inboxCap        = 20
	savedArchiveCap = 20
)

// Message is one mailbox entry. Bodies are clamped at construction;
// nothing downstream re-checks the length.
type Message struct {
	ID        string  `json:"id"`
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Subject   string  `json:"subject"`
	Body      string  `json:"body"`
	Timestamp float64 `json:"timestamp"`
	IsRead    bool    `json:"is_read"`
	IsSaved   bool    `json:"is_saved"`
}

// NewMessage builds a mailbox entry with a short unique id.
func NewMessage(sender, recipient, subject, body string, now float64) *Message {
	if len(body) > maxMessageBody {
		body = body[:maxMessageBody]
	}
	return &Message{
		ID:        strings.SplitN(uuid.NewString(), "-", 2)[0],
		Sender:    sender,
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		Timestamp: now,
	}
}

// AddMessage appends to the mailbox, evicting the oldest non-saved entry
// once more than inboxCap non-saved messages would accumulate. Saved
// messages are never evicted.
func (p *Player) AddMessage(msg *Message) {
	p.Messages = append(p.Messages, msg)
	nonSaved := 0
	for _, m := range p.Messages {
		if !m.IsSaved {
			nonSaved++
		}
	}
	for nonSaved > inboxCap {
		for i, m := range p.Messages {
			if !m.IsSaved {
				p.Messages = append(p.Messages[:i], p.Messages[i+1:]...)
				nonSaved--
				break
			}
		}
	}
}

// FindMessage returns the message with the given id, or nil.
func (p *Player) FindMessage(id string) *Message {
	for _, m := range p.Messages {
		if m.ID == id {
			return m
		}
	}
	return nil
}

// SaveMessage pins a message into the archive. Refused when the archive
// already holds savedArchiveCap entries.
func (p *Player) SaveMessage(id string) bool {
	msg := p.FindMessage(id)
	if msg == nil || msg.IsSaved {
		return false
	}
	saved := 0
	for _, m := range p.Messages {
		if m.IsSaved {
			saved++
		}
	}
	if saved >= savedArchiveCap {
		return false
	}
	msg.IsSaved = true
	return true
}

// DeleteMessage removes a message by id.
func (p *Player) DeleteMessage(id string) bool {
	for i, m := range p.Messages {
		if m.ID == id {
			p.Messages = append(p.Messages[:i], p.Messages[i+1:]...)
			return true
		}
	}
	return false
}

// UnreadCount reports how many messages are unread.
func (p *Player) UnreadCount() int {
	n := 0
	for _, m := range p.Messages {
		if !m.IsRead {
			n++
		}
	}
	return n
}
