package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// Auth error codes, surfaced verbatim in the response error field.
var (
	ErrNoAccount            = errors.New("NO_ACCOUNT")
	ErrAccountExists        = errors.New("ACCOUNT_EXISTS")
	ErrBlacklisted          = errors.New("BLACKLISTED")
	ErrAccountDisabled      = errors.New("ACCOUNT_DISABLED")
	ErrWrongPassword        = errors.New("WRONG_PASSWORD")
	ErrCorruptAccount       = errors.New("CORRUPT_ACCOUNT")
	ErrInvalidCharacterName = errors.New("INVALID_CHARACTER_NAME")
	ErrSaveFailed           = errors.New("SAVE_FAILED")
)

// internalPrefixes mark root-level files that are never character saves.
var internalPrefixes = []string{"auth_", "combat_", "loop_", "market_", "msg_", "travel_"}

// SafeName folds a display name to its on-disk key: lowercased, spaces to
// underscores.
func SafeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

// CharacterRef is one entry in ACCOUNT.json#characters.
type CharacterRef struct {
	CharacterSafe string `json:"character_safe"`
	DisplayName   string `json:"display_name"`
}

// AccountRecord is the auth record at <root>/<account_safe>/ACCOUNT.json.
type AccountRecord struct {
	AccountSafe     string         `json:"account_safe"`
	PasswordHash    string         `json:"password_hash"`
	Characters      []CharacterRef `json:"characters,omitempty"`
	CreatedAt       float64        `json:"created_at"`
	LastLogin       float64        `json:"last_login"`
	Blacklisted     bool           `json:"blacklisted,omitempty"`
	AccountDisabled bool           `json:"account_disabled,omitempty"`
}

// CharacterInfo is one enumerated character save.
type CharacterInfo struct {
	CharacterSafe string `json:"character_safe"`
	DisplayName   string `json:"display_name"`
	Path          string `json:"-"`
}

// filePeek is the minimal probe of a save file: presence of a password
// hash marks it as an account record, never a character.
type filePeek struct {
	PasswordHash  string `json:"password_hash"`
	AccountName   string `json:"account_name"`
	CharacterName string `json:"character_name"`
	Player        *struct {
		Name string `json:"name"`
	} `json:"player"`
}

// AccountStore manages the saves tree: auth records, character saves,
// legacy migration and linking.
type AccountStore struct {
	mu   sync.Mutex
	root string
	log  zerolog.Logger
}

// NewAccountStore roots the store at dir, creating it if needed.
func NewAccountStore(dir string, log zerolog.Logger) (*AccountStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create saves root: %w", err)
	}
	return &AccountStore{root: dir, log: log}, nil
}

// Root is the saves directory.
func (s *AccountStore) Root() string { return s.root }

// AccountDir is the per-account directory.
func (s *AccountStore) AccountDir(accountSafe string) string {
	return filepath.Join(s.root, accountSafe)
}

func (s *AccountStore) accountPath(accountSafe string) string {
	return filepath.Join(s.AccountDir(accountSafe), "ACCOUNT.json")
}

// CharacterPath is where a linked character save lives.
func (s *AccountStore) CharacterPath(accountSafe, characterSafe string) string {
	return filepath.Join(s.AccountDir(accountSafe), characterSafe+".json")
}

func peekFile(path string) (*filePeek, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var peek filePeek
	if err := json.Unmarshal(raw, &peek); err != nil {
		return nil, err
	}
	return &peek, nil
}

// migrate moves a legacy <root>/<account_safe>.json auth record into the
// per-account directory as ACCOUNT.json. Files without a password hash are
// character saves and stay where they are.
func (s *AccountStore) migrate(accountSafe string) {
	legacy := filepath.Join(s.root, accountSafe+".json")
	peek, err := peekFile(legacy)
	if err != nil || peek.PasswordHash == "" {
		return
	}
	dest := s.accountPath(accountSafe)
	if _, err := os.Stat(dest); err == nil {
		return
	}
	if err := os.MkdirAll(s.AccountDir(accountSafe), 0o755); err != nil {
		s.log.Warn().Err(err).Str("account", accountSafe).Msg("legacy migration mkdir failed")
		return
	}
	if err := os.Rename(legacy, dest); err != nil {
		s.log.Warn().Err(err).Str("account", accountSafe).Msg("legacy migration move failed")
		return
	}
	s.log.Info().Str("account", accountSafe).Msg("migrated legacy account record")
}

func (s *AccountStore) loadRecord(accountSafe string) (*AccountRecord, error) {
	s.migrate(accountSafe)
	var rec AccountRecord
	if err := readJSON(s.accountPath(accountSafe), &rec); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoAccount
		}
		return nil, ErrCorruptAccount
	}
	if rec.PasswordHash == "" {
		return nil, ErrCorruptAccount
	}
	if rec.AccountSafe == "" {
		rec.AccountSafe = accountSafe
	}
	return &rec, nil
}

// Exists reports whether an account record is present for the name.
func (s *AccountStore) Exists(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.loadRecord(SafeName(name))
	return err == nil
}

// Create registers a new account with a bcrypt password hash.
func (s *AccountStore) Create(name, password string) (*AccountRecord, error) {
	accountSafe := SafeName(name)
	if accountSafe == "" || strings.EqualFold(accountSafe, "account") {
		return nil, ErrInvalidCharacterName
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.loadRecord(accountSafe); err == nil {
		return nil, ErrAccountExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrSaveFailed
	}
	now := float64(time.Now().UnixNano()) / float64(time.Second)
	rec := &AccountRecord{
		AccountSafe:  accountSafe,
		PasswordHash: string(hash),
		CreatedAt:    now,
		LastLogin:    now,
	}
	if err := writeJSON(s.accountPath(accountSafe), rec); err != nil {
		s.log.Error().Err(err).Str("account", accountSafe).Msg("account create write failed")
		return nil, ErrSaveFailed
	}
	s.log.Info().Str("account", accountSafe).Msg("account created")
	return rec, nil
}

// Authenticate verifies the password and stamps last_login.
func (s *AccountStore) Authenticate(name, password string) (*AccountRecord, error) {
	accountSafe := SafeName(name)
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.loadRecord(accountSafe)
	if err != nil {
		return nil, err
	}
	if rec.Blacklisted {
		return nil, ErrBlacklisted
	}
	if rec.AccountDisabled {
		return nil, ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) != nil {
		return nil, ErrWrongPassword
	}
	rec.LastLogin = float64(time.Now().UnixNano()) / float64(time.Second)
	if err := writeJSON(s.accountPath(accountSafe), rec); err != nil {
		s.log.Warn().Err(err).Str("account", accountSafe).Msg("last_login stamp failed")
	}
	return rec, nil
}

// displayNameOf derives a character's display name from its save, falling
// back to the safe name.
func displayNameOf(peek *filePeek, characterSafe string) string {
	if peek != nil {
		if peek.CharacterName != "" {
			return peek.CharacterName
		}
		if peek.Player != nil && peek.Player.Name != "" {
			return peek.Player.Name
		}
	}
	return characterSafe
}

func hasInternalPrefix(base string) bool {
	for _, prefix := range internalPrefixes {
		if strings.HasPrefix(base, prefix) {
			return true
		}
	}
	return false
}

// ListCharacters enumerates an account's characters from all four sources
// with first-wins dedup by character_safe: account-directory saves, the
// ACCOUNT.json characters list, root saves already stamped with the
// account, and (for near-empty accounts) unclaimed orphan root saves.
func (s *AccountStore) ListCharacters(accountSafe string) ([]CharacterInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCharactersLocked(accountSafe)
}

func (s *AccountStore) listCharactersLocked(accountSafe string) ([]CharacterInfo, error) {
	s.migrate(accountSafe)

	seen := make(map[string]bool)
	var out []CharacterInfo
	add := func(characterSafe, display, path string) {
		if characterSafe == "" || seen[characterSafe] {
			return
		}
		if strings.EqualFold(characterSafe, "account") {
			return
		}
		seen[characterSafe] = true
		out = append(out, CharacterInfo{CharacterSafe: characterSafe, DisplayName: display, Path: path})
	}

	// 1. Saves in the account directory, skipping the auth record and
	// anything carrying a password hash.
	dir := s.AccountDir(accountSafe)
	if entries, err := os.ReadDir(dir); err == nil {
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			base := strings.TrimSuffix(e.Name(), ".json")
			if strings.EqualFold(base, "account") {
				continue
			}
			path := filepath.Join(dir, e.Name())
			peek, err := peekFile(path)
			if err != nil || peek.PasswordHash != "" {
				continue
			}
			add(base, displayNameOf(peek, base), path)
		}
	}

	// 2. The characters list in ACCOUNT.json.
	var rec *AccountRecord
	if r, err := s.loadRecord(accountSafe); err == nil {
		rec = r
		for _, ref := range r.Characters {
			display := ref.DisplayName
			if display == "" {
				display = ref.CharacterSafe
			}
			add(ref.CharacterSafe, display, s.CharacterPath(accountSafe, ref.CharacterSafe))
		}
	}

	// 3 and 4. Root-level saves: claimed by account_name stamp, or — while
	// the account holds at most one character and has an auth record —
	// unclaimed orphans with simple names.
	claimOrphans := rec != nil && len(out) <= 1
	if entries, err := os.ReadDir(s.root); err == nil {
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			base := strings.TrimSuffix(e.Name(), ".json")
			if strings.EqualFold(base, "account") || hasInternalPrefix(base) {
				continue
			}
			path := filepath.Join(s.root, e.Name())
			peek, err := peekFile(path)
			if err != nil || peek.PasswordHash != "" {
				continue
			}
			switch {
			case peek.AccountName == accountSafe:
				add(base, displayNameOf(peek, base), path)
			case claimOrphans && peek.AccountName == "" && !strings.Contains(base, "."):
				add(base, displayNameOf(peek, base), path)
			}
		}
	}

	// The character matching the account name leads; the rest sort by
	// display name.
	sort.SliceStable(out, func(i, j int) bool {
		iLead := out[i].CharacterSafe == accountSafe
		jLead := out[j].CharacterSafe == accountSafe
		if iLead != jLead {
			return iLead
		}
		return strings.ToLower(out[i].DisplayName) < strings.ToLower(out[j].DisplayName)
	})
	return out, nil
}

// LinkCharacter binds a character save to the account: moves a legacy
// root-level file into the account directory, stamps the account and
// character names, and records the ref in ACCOUNT.json.
func (s *AccountStore) LinkCharacter(accountSafe, characterSafe, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dest := s.CharacterPath(accountSafe, characterSafe)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		legacy := filepath.Join(s.root, characterSafe+".json")
		if _, err := os.Stat(legacy); err == nil {
			if err := os.MkdirAll(s.AccountDir(accountSafe), 0o755); err != nil {
				return fmt.Errorf("link character: %w", err)
			}
			if err := os.Rename(legacy, dest); err != nil {
				return fmt.Errorf("link character: %w", err)
			}
		}
	}

	// Stamp the save with its owners.
	var save map[string]any
	if err := readJSON(dest, &save); err == nil {
		save["account_name"] = accountSafe
		if displayName != "" {
			save["character_name"] = displayName
		}
		if err := writeJSON(dest, save); err != nil {
			s.log.Warn().Err(err).Str("character", characterSafe).Msg("character stamp failed")
		}
	}

	rec, err := s.loadRecord(accountSafe)
	if err != nil {
		return err
	}
	for _, ref := range rec.Characters {
		if ref.CharacterSafe == characterSafe {
			return nil
		}
	}
	rec.Characters = append(rec.Characters, CharacterRef{CharacterSafe: characterSafe, DisplayName: displayName})
	if err := writeJSON(s.accountPath(accountSafe), rec); err != nil {
		return ErrSaveFailed
	}
	return nil
}

// AllCharacterSaves walks every account directory and the root for
// character saves across all accounts. Used by mail delivery and the
// player directory.
func (s *AccountStore) AllCharacterSaves() []CharacterInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]bool)
	var out []CharacterInfo
	scan := func(dir string) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			base := strings.TrimSuffix(e.Name(), ".json")
			if strings.EqualFold(base, "account") || hasInternalPrefix(base) {
				continue
			}
			path := filepath.Join(dir, e.Name())
			peek, err := peekFile(path)
			if err != nil || peek.PasswordHash != "" {
				continue
			}
			if seen[path] {
				continue
			}
			seen[path] = true
			out = append(out, CharacterInfo{
				CharacterSafe: base,
				DisplayName:   displayNameOf(peek, base),
				Path:          path,
			})
		}
	}
	scan(s.root)
	if entries, err := os.ReadDir(s.root); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				scan(filepath.Join(s.root, e.Name()))
			}
		}
	}
	return out
}

// PurgeCharacterSaves deletes every character save while preserving
// ACCOUNT.json records. Used by the campaign reset.
func (s *AccountStore) PurgeCharacterSaves() int {
	saves := s.AllCharacterSaves()
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, info := range saves {
		if err := os.Remove(info.Path); err != nil {
			s.log.Warn().Err(err).Str("path", info.Path).Msg("campaign purge failed for save")
			continue
		}
		removed++
	}
	return removed
}
