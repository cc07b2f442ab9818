package server

import (
	"errors"

	"github.com/sectornet/commander-server/game"
	"github.com/sectornet/commander-server/store"
)

func init() {
	registerCategories("auth",
		"check_account", "create_account", "authenticate", "list_characters",
		"select_character", "logout_commander", "new_game", "load_game",
		"save_game", "list_saves", "sync_assets")
	registerHandlers(map[string]HandlerFunc{
		"check_account":    handleCheckAccount,
		"create_account":   handleCreateAccount,
		"authenticate":     handleAuthenticate,
		"list_characters":  handleListCharacters,
		"select_character": handleSelectCharacter,
		"logout_commander": handleLogoutCommander,
		"new_game":         handleNewGame,
		"load_game":        handleLoadGame,
		"save_game":        handleSaveGame,
		"list_saves":       handleListCharacters,
	})
}

func handleCheckAccount(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	name := paramString(params, "account_name")
	return ok(Response{"exists": s.accounts.Exists(name)})
}

func handleCreateAccount(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	name := paramString(params, "account_name")
	password := paramString(params, "password")
	if name == "" || password == "" {
		return errResp("INVALID_INPUT")
	}
	rec, err := s.accounts.Create(name, password)
	if err != nil {
		return errResp(err.Error())
	}
	sess.AccountSafe = rec.AccountSafe
	sess.Authenticated = true
	sess.log = sess.log.With().Str("account", rec.AccountSafe).Logger()

	resp := ok(Response{"account_safe": rec.AccountSafe})
	if characterName := paramString(params, "character_name"); characterName != "" {
		if r := s.startCharacter(sess, characterName); !r.succeeded() {
			return r
		}
		resp["character"] = sess.PlayerDisplayName
	}
	return resp
}

func handleAuthenticate(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	name := paramString(params, "account_name")
	password := paramString(params, "password")
	rec, err := s.accounts.Authenticate(name, password)
	if err != nil {
		return errResp(err.Error())
	}
	sess.AccountSafe = rec.AccountSafe
	sess.Authenticated = true
	sess.log = sess.log.With().Str("account", rec.AccountSafe).Logger()

	chars, err := s.accounts.ListCharacters(rec.AccountSafe)
	if err != nil {
		return errResp(store.ErrCorruptAccount.Error())
	}
	resp := ok(Response{
		"account_safe":              rec.AccountSafe,
		"characters":                characterList(chars),
		"requires_character_create": len(chars) == 0,
	})
	if s.cfg.AllowMultipleGames {
		resp["requires_character_select"] = len(chars) > 0
		return resp
	}
	resp["requires_character_select"] = len(chars) > 1
	if len(chars) == 1 {
		if r := s.loadCharacterIntoSession(sess, chars[0]); !r.succeeded() {
			return r
		}
		resp["character"] = sess.PlayerDisplayName
	}
	return resp
}

func handleListCharacters(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	chars, err := s.accounts.ListCharacters(sess.AccountSafe)
	if err != nil {
		return errResp(store.ErrCorruptAccount.Error())
	}
	return ok(Response{"characters": characterList(chars)})
}

func handleSelectCharacter(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	want := store.SafeName(paramString(params, "character_name"))
	if want == "" {
		return errResp("INVALID_INPUT")
	}
	chars, err := s.accounts.ListCharacters(sess.AccountSafe)
	if err != nil {
		return errResp(store.ErrCorruptAccount.Error())
	}
	for _, info := range chars {
		if info.CharacterSafe == want {
			if r := s.loadCharacterIntoSession(sess, info); !r.succeeded() {
				return r
			}
			return ok(Response{"character": sess.PlayerDisplayName})
		}
	}
	return errResp("CHARACTER_NOT_LINKED")
}

// handleLoadGame is select_character with the session's own character as
// the default, so a reconnecting client can resume without re-listing.
func handleLoadGame(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if paramString(params, "character_name") == "" && sess.CharacterSafe != "" {
		params = map[string]any{"character_name": sess.CharacterSafe}
	}
	return handleSelectCharacter(s, sess, g, params)
}

func handleNewGame(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	playerName := paramString(params, "player_name")
	if playerName == "" {
		return errResp("INVALID_CHARACTER_NAME")
	}
	chars, err := s.accounts.ListCharacters(sess.AccountSafe)
	if err != nil {
		return errResp(store.ErrCorruptAccount.Error())
	}
	if !s.cfg.AllowMultipleGames && len(chars) > 0 {
		return errResp("SINGLE_SAVE_LIMIT")
	}
	want := store.SafeName(playerName)
	for _, info := range s.accounts.AllCharacterSaves() {
		if info.CharacterSafe == want {
			return errResp("NAME_TAKEN")
		}
	}
	if r := s.startCharacter(sess, playerName); !r.succeeded() {
		return r
	}
	return ok(Response{"character": sess.PlayerDisplayName, "planet": sess.Game.CurrentPlanetName})
}

func handleSaveGame(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if err := g.SaveGame(); err != nil {
		s.log.Error().Err(err).Str("character", sess.CharacterSafe).Msg("save failed")
		return errResp("SAVE_FAILED")
	}
	if err := s.accounts.LinkCharacter(sess.AccountSafe, sess.CharacterSafe, sess.PlayerDisplayName); err != nil {
		s.log.Warn().Err(err).Str("character", sess.CharacterSafe).Msg("link failed on save")
	}
	s.evaluateVictory(sess, g)
	return ok(nil)
}

func handleLogoutCommander(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if sess.Game != nil && sess.Game.Player != nil {
		if err := sess.Game.SaveGame(); err != nil {
			s.log.Warn().Err(err).Str("character", sess.CharacterSafe).Msg("logout save failed")
		} else if err := s.accounts.LinkCharacter(sess.AccountSafe, sess.CharacterSafe, sess.PlayerDisplayName); err != nil {
			s.log.Warn().Err(err).Str("character", sess.CharacterSafe).Msg("logout link failed")
		}
	}
	s.unregisterOnline(sess)
	sess.Game = nil
	sess.CharacterSafe = ""
	sess.PlayerDisplayName = ""
	return ok(nil)
}

// succeeded reads the success flag back out of a response.
func (r Response) succeeded() bool {
	v, _ := r["success"].(bool)
	return v
}

func characterList(chars []store.CharacterInfo) []Response {
	out := make([]Response, 0, len(chars))
	for _, c := range chars {
		out = append(out, Response{
			"character_safe": c.CharacterSafe,
			"display_name":   c.DisplayName,
		})
	}
	return out
}

// startCharacter creates a brand-new commander under the session's
// account and registers it online.
func (s *Server) startCharacter(sess *Session, displayName string) Response {
	characterSafe := store.SafeName(displayName)
	if characterSafe == "" || characterSafe == "account" {
		return errResp("INVALID_CHARACTER_NAME")
	}
	g, err := s.newGame(nil)
	if err != nil {
		s.log.Error().Err(err).Msg("game construction failed")
		return errResp("LOAD_FAILED")
	}
	if err := g.NewCommander(displayName); err != nil {
		return errResp("LOAD_FAILED")
	}
	g.SaveDir = s.accounts.AccountDir(sess.AccountSafe)
	g.AccountSafe = sess.AccountSafe
	g.CharacterSafe = characterSafe
	if err := g.SaveGame(); err != nil {
		return errResp("SAVE_FAILED")
	}
	if err := s.accounts.LinkCharacter(sess.AccountSafe, characterSafe, displayName); err != nil {
		if errors.Is(err, store.ErrNoAccount) {
			return errResp(err.Error())
		}
		return errResp("SAVE_FAILED")
	}
	sess.Game = g
	sess.CharacterSafe = characterSafe
	sess.PlayerDisplayName = displayName
	s.registerOnline(sess)
	s.log.Info().Str("character", characterSafe).Str("account", sess.AccountSafe).Msg("new commander started")
	return ok(nil)
}

// loadCharacterIntoSession restores an existing save into the session.
func (s *Server) loadCharacterIntoSession(sess *Session, info store.CharacterInfo) Response {
	g, err := s.newGame(nil)
	if err != nil {
		s.log.Error().Err(err).Msg("game construction failed")
		return errResp("LOAD_FAILED")
	}
	if err := g.LoadCharacter(info.Path); err != nil {
		s.log.Error().Err(err).Str("path", info.Path).Msg("character load failed")
		return errResp("CORRUPT_SAVE")
	}
	g.SaveDir = s.accounts.AccountDir(sess.AccountSafe)
	g.AccountSafe = sess.AccountSafe
	g.CharacterSafe = info.CharacterSafe
	sess.Game = g
	sess.CharacterSafe = info.CharacterSafe
	sess.PlayerDisplayName = g.Player.Name
	s.registerOnline(sess)
	s.log.Info().Str("character", info.CharacterSafe).Str("account", sess.AccountSafe).Msg("character loaded")
	return ok(nil)
}
