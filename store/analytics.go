package store

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// AnalyticsEvent is one recorded decision point.
type AnalyticsEvent struct {
	ID        string         `json:"id"`
	Timestamp float64        `json:"timestamp"`
	Category  string         `json:"category"`
	Name      string         `json:"name"`
	Success   bool           `json:"success"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// AnalyticsCounters aggregate across the whole campaign, surviving ring
// eviction.
type AnalyticsCounters struct {
	TotalEvents      int            `json:"total_events"`
	EventsByCategory map[string]int `json:"events_by_category"`
	EventsByName     map[string]int `json:"events_by_name"`
	SuccessCount     int            `json:"success_count"`
	FailureCount     int            `json:"failure_count"`
}

type analyticsDoc struct {
	UpdatedAt float64           `json:"updated_at"`
	Events    []AnalyticsEvent  `json:"events"`
	Counters  AnalyticsCounters `json:"counters"`
}

// Analytics is the bounded in-memory event ring with throttled JSON
// snapshots.
type Analytics struct {
	mu        sync.Mutex
	path      string
	maxEvents int
	retention int
	limiter   *rate.Limiter
	dirty     bool
	log       zerolog.Logger

	events   []AnalyticsEvent
	counters AnalyticsCounters
}

// NewAnalytics loads any prior snapshot and arms the flush throttle.
func NewAnalytics(path string, maxEvents, retentionDays int, flushSeconds float64, log zerolog.Logger) *Analytics {
	a := &Analytics{
		path:      path,
		maxEvents: maxEvents,
		retention: retentionDays,
		limiter:   rate.NewLimiter(rate.Limit(1/flushSeconds), 1),
		log:       log,
		counters: AnalyticsCounters{
			EventsByCategory: make(map[string]int),
			EventsByName:     make(map[string]int),
		},
	}
	var doc analyticsDoc
	if err := readJSON(path, &doc); err == nil {
		a.events = doc.Events
		if doc.Counters.EventsByCategory != nil {
			a.counters = doc.Counters
		}
	} else if !os.IsNotExist(err) {
		log.Warn().Err(err).Msg("analytics snapshot unreadable, starting fresh")
	}
	return a
}

// Record appends an event, evicting the oldest past the ring bound.
func (a *Analytics) Record(category, name string, success bool, fields map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events = append(a.events, AnalyticsEvent{
		ID:        uuid.NewString(),
		Timestamp: nowSeconds(),
		Category:  category,
		Name:      name,
		Success:   success,
		Fields:    fields,
	})
	if len(a.events) > a.maxEvents {
		a.events = a.events[len(a.events)-a.maxEvents:]
	}
	a.counters.TotalEvents++
	a.counters.EventsByCategory[category]++
	a.counters.EventsByName[name]++
	if success {
		a.counters.SuccessCount++
	} else {
		a.counters.FailureCount++
	}
	a.dirty = true
}

// prune drops events older than retention. Caller holds the lock.
func (a *Analytics) prune() {
	cutoff := nowSeconds() - float64(a.retention)*86400
	kept := a.events[:0]
	for _, ev := range a.events {
		if ev.Timestamp >= cutoff {
			kept = append(kept, ev)
		}
	}
	a.events = kept
}

// Flush writes the snapshot when dirty, throttled unless forced.
func (a *Analytics) Flush(force bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.dirty {
		return nil
	}
	if !force && !a.limiter.Allow() {
		return nil
	}
	a.prune()
	doc := analyticsDoc{UpdatedAt: nowSeconds(), Events: a.events, Counters: a.counters}
	if err := writeJSON(a.path, &doc); err != nil {
		return fmt.Errorf("write analytics snapshot: %w", err)
	}
	a.dirty = false
	return nil
}

// Summary is the windowed aggregation returned to operators.
type Summary struct {
	WindowHours   int            `json:"window_hours"`
	TotalEvents   int            `json:"total_events"`
	SuccessRate   float64        `json:"success_rate"`
	TopActions    []ActionCount  `json:"top_actions"`
	ByCategory    map[string]int `json:"by_category"`
	FailuresByCat map[string]int `json:"failures_by_category"`
}

// ActionCount pairs an event name with its count.
type ActionCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summarize aggregates the retained events inside the trailing window.
func (a *Analytics) Summarize(windowHours int) Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	if windowHours <= 0 {
		windowHours = 24
	}
	cutoff := nowSeconds() - float64(windowHours)*3600
	byName := make(map[string]int)
	s := Summary{
		WindowHours:   windowHours,
		ByCategory:    make(map[string]int),
		FailuresByCat: make(map[string]int),
	}
	succeeded := 0
	for _, ev := range a.events {
		if ev.Timestamp < cutoff {
			continue
		}
		s.TotalEvents++
		byName[ev.Name]++
		s.ByCategory[ev.Category]++
		if ev.Success {
			succeeded++
		} else {
			s.FailuresByCat[ev.Category]++
		}
	}
	if s.TotalEvents > 0 {
		s.SuccessRate = float64(succeeded) / float64(s.TotalEvents)
	}
	for name, count := range byName {
		s.TopActions = append(s.TopActions, ActionCount{Name: name, Count: count})
	}
	sort.Slice(s.TopActions, func(i, j int) bool {
		if s.TopActions[i].Count != s.TopActions[j].Count {
			return s.TopActions[i].Count > s.TopActions[j].Count
		}
		return s.TopActions[i].Name < s.TopActions[j].Name
	})
	if len(s.TopActions) > 10 {
		s.TopActions = s.TopActions[:10]
	}
	return s
}

// Recommendations derives short heuristic strings from a summary.
func (a *Analytics) Recommendations(windowHours int) []string {
	s := a.Summarize(windowHours)
	var out []string
	if s.TotalEvents == 0 {
		return []string{"No activity recorded in this window."}
	}
	if s.SuccessRate < 0.5 {
		out = append(out, "Action failure rate is above half; review recent failures by category.")
	}
	if s.FailuresByCat["combat"] > s.ByCategory["combat"]/2 && s.ByCategory["combat"] > 0 {
		out = append(out, "Combat losses dominate; commanders may need cheaper repair or fighter restock paths.")
	}
	if s.ByCategory["trade"] == 0 {
		out = append(out, "No trade activity in the window; check market spreads and spotlight frequency.")
	}
	if len(s.TopActions) > 0 && s.TopActions[0].Count > s.TotalEvents/2 {
		out = append(out, fmt.Sprintf("Single action %q dominates the window; consider balancing incentives.", s.TopActions[0].Name))
	}
	if len(out) == 0 {
		out = append(out, "Activity mix looks healthy.")
	}
	return out
}

// Reset clears events and counters and rewrites the snapshot.
func (a *Analytics) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events = nil
	a.counters = AnalyticsCounters{
		EventsByCategory: make(map[string]int),
		EventsByName:     make(map[string]int),
	}
	a.dirty = false
	doc := analyticsDoc{UpdatedAt: nowSeconds(), Counters: a.counters}
	return writeJSON(a.path, &doc)
}

// Recent returns up to limit of the newest retained events, newest
// first.
func (a *Analytics) Recent(limit int) []AnalyticsEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	if limit <= 0 || limit > len(a.events) {
		limit = len(a.events)
	}
	out := make([]AnalyticsEvent, limit)
	for i := 0; i < limit; i++ {
		out[i] = a.events[len(a.events)-1-i]
	}
	return out
}

// Counters returns a copy of the campaign-lifetime counters.
func (a *Analytics) Counters() AnalyticsCounters {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.counters
	out.EventsByCategory = make(map[string]int, len(a.counters.EventsByCategory))
	for k, v := range a.counters.EventsByCategory {
		out.EventsByCategory[k] = v
	}
	out.EventsByName = make(map[string]int, len(a.counters.EventsByName))
	for k, v := range a.counters.EventsByName {
		out.EventsByName[k] = v
	}
	return out
}
