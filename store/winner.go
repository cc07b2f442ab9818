package store

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const winnerHistoryCap = 50

// WinnerRecord is one recorded campaign victory.
type WinnerRecord struct {
	CharacterName   string  `json:"character_name"`
	AccountSafe     string  `json:"account_safe,omitempty"`
	PlanetsOwned    int     `json:"planets_owned"`
	OwnershipPct    float64 `json:"ownership_pct"`
	TotalWealth     int     `json:"total_wealth"`
	AuthorityStand  int     `json:"authority_standing"`
	FrontierStand   int     `json:"frontier_standing"`
	DeclaredAt      float64 `json:"declared_at"`
	CampaignEndedAt float64 `json:"campaign_ended_at,omitempty"`
}

// WinnerBoard is the on-disk shape of saves/winner_board.json.
type WinnerBoard struct {
	CurrentWinner    *WinnerRecord  `json:"current_winner,omitempty"`
	ScheduledResetTS float64        `json:"scheduled_reset_ts,omitempty"`
	LastResetTS      float64        `json:"last_reset_ts,omitempty"`
	History          []WinnerRecord `json:"history,omitempty"`
}

// WinnerStore owns the winner board file.
type WinnerStore struct {
	mu   sync.Mutex
	path string
	log  zerolog.Logger
}

// NewWinnerStore points the board at its backing file.
func NewWinnerStore(path string, log zerolog.Logger) *WinnerStore {
	return &WinnerStore{path: path, log: log}
}

func (w *WinnerStore) load() *WinnerBoard {
	board := &WinnerBoard{}
	if err := readJSON(w.path, board); err != nil && !os.IsNotExist(err) {
		w.log.Warn().Err(err).Msg("winner board unreadable, starting fresh")
	}
	return board
}

// Load returns the current board state.
func (w *WinnerStore) Load() *WinnerBoard {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.load()
}

// DeclareWinner records the campaign winner and schedules the universe
// reset at 00:01 local time resetDays from now. No-op when a winner is
// already standing.
func (w *WinnerStore) DeclareWinner(rec WinnerRecord, resetDays int) (scheduled float64, ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	board := w.load()
	if board.CurrentWinner != nil {
		return board.ScheduledResetTS, false
	}
	rec.DeclaredAt = nowSeconds()
	board.CurrentWinner = &rec

	reset := time.Now().AddDate(0, 0, resetDays)
	reset = time.Date(reset.Year(), reset.Month(), reset.Day(), 0, 1, 0, 0, reset.Location())
	board.ScheduledResetTS = float64(reset.Unix())

	if err := writeJSON(w.path, board); err != nil {
		w.log.Error().Err(err).Msg("winner board write failed")
		return 0, false
	}
	return board.ScheduledResetTS, true
}

// ResetDue reports whether a scheduled campaign reset has come due.
func (w *WinnerStore) ResetDue() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	board := w.load()
	return board.ScheduledResetTS != 0 && board.ScheduledResetTS <= nowSeconds()
}

// CompleteReset archives the standing winner into history (capped) and
// clears the schedule. Idempotent: a board with no schedule is untouched.
func (w *WinnerStore) CompleteReset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	board := w.load()
	if board.ScheduledResetTS == 0 {
		return nil
	}
	if board.CurrentWinner != nil {
		rec := *board.CurrentWinner
		rec.CampaignEndedAt = nowSeconds()
		board.History = append(board.History, rec)
		if len(board.History) > winnerHistoryCap {
			board.History = board.History[len(board.History)-winnerHistoryCap:]
		}
	}
	board.CurrentWinner = nil
	board.ScheduledResetTS = 0
	board.LastResetTS = nowSeconds()
	return writeJSON(w.path, board)
}
