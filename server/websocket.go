package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
)

// isValidOrigin allows same-origin and localhost connections. Clients
// without an Origin header (non-browser shells) pass.
func isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if r.Host == originURL.Host {
		return true
	}
	if strings.HasPrefix(originURL.Host, "localhost:") ||
		strings.HasPrefix(originURL.Host, "127.0.0.1:") ||
		originURL.Host == "localhost" ||
		originURL.Host == "127.0.0.1" {
		return true
	}
	return false
}

var upgrader = websocket.Upgrader{
	CheckOrigin:       isValidOrigin,
	EnableCompression: true,
}

// clientRequest is one inbound frame: an action name plus its params.
type clientRequest struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// HandleWebSocket upgrades the connection and runs the session loop:
// read one frame, dispatch, write one response. Strictly sequential per
// session; the only writer to the socket is this goroutine.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("websocket upgrade failed")
		return
	}
	sess := &Session{
		server: s,
		conn:   conn,
		log:    s.log.With().Str("remote", r.RemoteAddr).Logger(),
	}
	sess.log.Info().Msg("session connected")
	defer s.closeSession(sess)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				sess.log.Warn().Err(err).Msg("session read error")
			}
			return
		}
		var req clientRequest
		if err := json.Unmarshal(raw, &req); err != nil || req.Action == "" {
			sess.log.Warn().Err(err).Msg("malformed frame")
			if err := conn.WriteJSON(errResp("INVALID_JSON")); err != nil {
				return
			}
			continue
		}
		resp := s.Dispatch(sess, req.Action, req.Params)
		if err := conn.WriteJSON(resp); err != nil {
			sess.log.Warn().Err(err).Str("action", req.Action).Msg("session write error")
			return
		}
	}
}

// closeSession runs the disconnect path: best-effort save and link of
// the loaded character, then registry cleanup. Errors are logged, never
// propagated.
func (s *Server) closeSession(sess *Session) {
	sess.conn.Close()
	s.unregisterOnline(sess)
	if sess.Game == nil || sess.Game.Player == nil {
		sess.log.Info().Msg("session closed")
		return
	}
	sess.Game.SaveDir = s.accounts.AccountDir(sess.AccountSafe)
	sess.drainPending()
	if err := sess.Game.SaveGame(); err != nil {
		sess.log.Warn().Err(err).Str("character", sess.CharacterSafe).Msg("disconnect save failed")
	} else if err := s.accounts.LinkCharacter(sess.AccountSafe, sess.CharacterSafe, sess.PlayerDisplayName); err != nil {
		sess.log.Warn().Err(err).Str("character", sess.CharacterSafe).Msg("disconnect link failed")
	}
	if err := s.analytics.Flush(true); err != nil {
		sess.log.Warn().Err(err).Msg("analytics flush failed")
	}
	sess.log.Info().Str("character", sess.CharacterSafe).Msg("session closed, character saved")
}
