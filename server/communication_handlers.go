package server

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sectornet/commander-server/game"
)

func init() {
	registerCategories("messaging",
		"send_message", "mark_message_read", "delete_message",
		"gift_cargo_to_orbit_target", "get_other_players",
		"has_unseen_galactic_news", "get_unseen_galactic_news", "mark_galactic_news_seen")
	registerHandlers(map[string]HandlerFunc{
		"send_message":               handleSendMessage,
		"mark_message_read":          handleMarkMessageRead,
		"delete_message":             handleDeleteMessage,
		"gift_cargo_to_orbit_target": handleGiftCargoToOrbitTarget,
		"get_other_players":          handleGetOtherPlayers,
		"has_unseen_galactic_news":   handleHasUnseenGalacticNews,
		"get_unseen_galactic_news":   handleGetUnseenGalacticNews,
		"mark_galactic_news_seen":    handleMarkGalacticNewsSeen,
	})
}

// deliverMail routes one message. An online recipient gets it through
// their session's delivery queue, so their own goroutine stays the
// single writer of their Game and persists the mailbox on drain.
// Offline recipients get an atomic file append.
func (s *Server) deliverMail(sender, recipient, subject, body string) error {
	if other := s.findOnline(recipient); other != nil {
		other.enqueue(func(g *game.Game) {
			g.Player.AddMessage(game.NewMessage(sender, g.Player.Name, subject, body, g.Now()))
		})
		return nil
	}
	for _, info := range s.accounts.AllCharacterSaves() {
		if !strings.EqualFold(info.DisplayName, recipient) {
			continue
		}
		snap, err := readCharacterSnapshot(info.Path)
		if err != nil || snap.Player == nil {
			continue
		}
		snap.Player.AddMessage(game.NewMessage(sender, snap.Player.Name, subject, body,
			float64(time.Now().Unix())))
		return writeCharacterSnapshot(info.Path, snap)
	}
	return fmt.Errorf("no commander named %q", recipient)
}

func handleSendMessage(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	recipient := paramString(params, "recipient")
	subject := paramString(params, "subject")
	body := paramString(params, "body")
	sender := paramString(params, "sender_name")
	if sender == "" {
		sender = sess.PlayerDisplayName
	}
	if recipient == "" {
		return ruleResp("no recipient named")
	}
	// A note to self lands in the caller's own mailbox immediately.
	if strings.EqualFold(recipient, sess.PlayerDisplayName) {
		g.Player.AddMessage(game.NewMessage(sender, g.Player.Name, subject, body, g.Now()))
		if err := g.SaveGame(); err != nil {
			s.log.Warn().Err(err).Msg("self-mail save failed")
		}
		return ok(Response{"recipient": g.Player.Name})
	}
	if err := s.deliverMail(sender, recipient, subject, body); err != nil {
		return ruleResp("%s", err.Error())
	}
	return ok(Response{"recipient": recipient})
}

func handleMarkMessageRead(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	id := paramString(params, "message_id")
	msg := g.Player.FindMessage(id)
	if msg == nil {
		return ruleResp("no such message")
	}
	msg.IsRead = true
	if paramBool(params, "save") {
		if !g.Player.SaveMessage(id) {
			return ruleResp("your archive is full")
		}
	}
	return ok(Response{"unread": g.Player.UnreadCount()})
}

func handleDeleteMessage(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if !g.Player.DeleteMessage(paramString(params, "message_id")) {
		return ruleResp("no such message")
	}
	return ok(Response{"messages": len(g.Player.Messages)})
}

// handleGiftCargoToOrbitTarget hands cargo to an orbiting NPC. Charity
// plays well on the frontier.
func handleGiftCargoToOrbitTarget(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	target := g.FindOrbitNPC(paramString(params, "target_name"))
	if target == nil {
		return ruleResp("no such ship in orbit")
	}
	item := paramString(params, "item")
	qty := paramInt(params, "quantity", 1)
	given := g.Player.RemoveItem(item, qty)
	if given == 0 {
		return ruleResp("no %s aboard", game.CanonicalItemName(item))
	}
	if target.Inventory == nil {
		target.Inventory = make(map[string]int)
	}
	target.Inventory[game.CanonicalItemName(item)] += given
	frontier := g.Player.AdjustFrontier(1)
	return ok(Response{
		"given":             given,
		"target":            target.Name,
		"frontier_standing": frontier,
	})
}

func handleGetOtherPlayers(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	online := make(map[string]bool)
	for _, name := range s.onlineNames() {
		online[name] = true
	}
	seen := make(map[string]bool)
	players := make([]Response, 0)
	for _, info := range s.accounts.AllCharacterSaves() {
		snap, err := readCharacterSnapshot(info.Path)
		if err != nil || snap.Player == nil || snap.Player.Name == sess.PlayerDisplayName {
			continue
		}
		if seen[snap.Player.Name] {
			continue
		}
		seen[snap.Player.Name] = true
		players = append(players, Response{
			"name":   snap.Player.Name,
			"online": online[snap.Player.Name],
		})
	}
	sort.Slice(players, func(i, j int) bool {
		return strings.ToLower(players[i]["name"].(string)) < strings.ToLower(players[j]["name"].(string))
	})
	return ok(Response{"players": players})
}

func handleHasUnseenGalacticNews(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	unseen := s.news.Unseen(sess.PlayerDisplayName, g.Player.LastSeenNewsTimestamp, s.cfg.NewsDefaultLookbackDays)
	return ok(Response{"has_unseen": len(unseen) > 0, "count": len(unseen)})
}

func handleGetUnseenGalacticNews(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	lookback := paramInt(params, "lookback_days", s.cfg.NewsDefaultLookbackDays)
	unseen := s.news.Unseen(sess.PlayerDisplayName, g.Player.LastSeenNewsTimestamp, lookback)
	return ok(Response{"items": unseen})
}

func handleMarkGalacticNewsSeen(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	g.Player.LastSeenNewsTimestamp = g.Now()
	if err := g.SaveGame(); err != nil {
		s.log.Warn().Err(err).Msg("news watermark save failed")
	}
	return ok(nil)
}
