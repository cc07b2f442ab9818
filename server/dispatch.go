package server

import (
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/sectornet/commander-server/game"
)

// Session is one connected client. A session gains an account context
// after authenticate/create_account and a Game after a character is
// selected; handlers run strictly sequentially within it.
type Session struct {
	server *Server
	conn   *websocket.Conn
	log    zerolog.Logger

	AccountSafe       string
	CharacterSafe     string
	PlayerDisplayName string
	Authenticated     bool
	Game              *game.Game

	// pending holds cross-session effects (mail, combat write-backs)
	// queued by other goroutines. Only the owning goroutine applies
	// them; everything else just appends under the lock.
	pendingMu sync.Mutex
	pending   []func(g *game.Game)
}

// enqueue schedules a mutation of this session's Game to run on its own
// goroutine before the next action. Safe to call from any goroutine.
func (sess *Session) enqueue(fn func(g *game.Game)) {
	sess.pendingMu.Lock()
	sess.pending = append(sess.pending, fn)
	sess.pendingMu.Unlock()
}

// drainPending applies queued cross-session effects and persists them.
// Only the owning goroutine calls this.
func (sess *Session) drainPending() {
	sess.pendingMu.Lock()
	queued := sess.pending
	sess.pending = nil
	sess.pendingMu.Unlock()
	if len(queued) == 0 {
		return
	}
	g := sess.Game
	if g == nil || g.Player == nil {
		sess.log.Warn().Int("dropped", len(queued)).Msg("pending deliveries outlived the character")
		return
	}
	for _, fn := range queued {
		fn(g)
	}
	if err := g.SaveGame(); err != nil {
		sess.log.Warn().Err(err).Msg("post-delivery save failed")
	}
}

// Response is the wire shape of one reply: success plus domain fields.
type Response map[string]any

// ok stamps success onto a field set.
func ok(fields Response) Response {
	if fields == nil {
		fields = Response{}
	}
	fields["success"] = true
	return fields
}

// errResp is a machine-readable failure (protocol/auth/session codes).
func errResp(code string) Response {
	return Response{"success": false, "error": code}
}

// ruleResp is a game-rule failure with a human-readable line.
func ruleResp(format string, args ...any) Response {
	return Response{"success": false, "message": fmt.Sprintf(format, args...)}
}

// HandlerFunc is one dispatch target.
type HandlerFunc func(s *Server, sess *Session, g *game.Game, params map[string]any) Response

// preAuthActions run before any account context exists.
var preAuthActions = map[string]bool{
	"check_account":  true,
	"create_account": true,
	"authenticate":   true,
}

// accountActions run once an account context exists, before a character
// is selected.
var accountActions = map[string]bool{
	"list_characters":  true,
	"select_character": true,
	"logout_commander": true,
	"new_game":         true,
	"load_game":        true,
	"list_saves":       true,
	"sync_assets":      true,
}

// handlers is the static action table, filled by the handler files.
var handlers = map[string]HandlerFunc{}

func registerHandlers(table map[string]HandlerFunc) {
	for name, h := range table {
		handlers[name] = h
	}
}

// Dispatch resolves one action. Gating: pre-auth actions always run;
// account actions need an authenticated session; everything else needs
// a loaded character. Panics become ACTION_FAILED without killing the
// session.
func (s *Server) Dispatch(sess *Session, action string, params map[string]any) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("action", action).
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("handler panicked")
			resp = Response{"success": false, "error": "ACTION_FAILED", "message": fmt.Sprint(r)}
		}
	}()

	h, known := handlers[action]
	if !known {
		return Response{"success": false, "error": "Unknown action: " + action}
	}
	if !preAuthActions[action] {
		if !sess.Authenticated {
			return errResp("NOT_AUTHENTICATED")
		}
		if !accountActions[action] && (sess.Game == nil || sess.Game.Player == nil) {
			return errResp("CHARACTER_NOT_SELECTED")
		}
	}

	sess.drainPending()
	resp = h(s, sess, sess.Game, params)
	s.recordAction(action, resp)
	return resp
}

// recordAction feeds the analytics ring from the dispatch boundary and
// lets the throttled flush run when it wants to.
func (s *Server) recordAction(action string, resp Response) {
	if actionCategories[action] == "analytics" {
		return
	}
	success, _ := resp["success"].(bool)
	cat := actionCategories[action]
	if cat == "" {
		cat = "misc"
	}
	s.analytics.Record(cat, action, success, nil)
	if err := s.analytics.Flush(false); err != nil {
		s.log.Warn().Err(err).Msg("analytics flush failed")
	}
}

// actionCategories groups the catalog for analytics rollups.
var actionCategories = map[string]string{}

func registerCategories(category string, actions ...string) {
	for _, a := range actions {
		actionCategories[a] = category
	}
}
