package server

import (
	"github.com/sectornet/commander-server/game"
)

func init() {
	registerCategories("analytics",
		"record_analytics_event", "get_analytics_summary", "get_analytics_events",
		"get_analytics_recommendations", "reset_analytics")
	registerHandlers(map[string]HandlerFunc{
		"record_analytics_event":        handleRecordAnalyticsEvent,
		"get_analytics_summary":         handleGetAnalyticsSummary,
		"get_analytics_events":          handleGetAnalyticsEvents,
		"get_analytics_recommendations": handleGetAnalyticsRecommendations,
		"reset_analytics":               handleResetAnalytics,
	})
}

// handleRecordAnalyticsEvent records a client-side event the dispatch
// layer would not see on its own (UI choices, tutorial steps).
func handleRecordAnalyticsEvent(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	name := paramString(params, "name")
	if name == "" {
		return ruleResp("no event name supplied")
	}
	category := paramString(params, "category")
	if category == "" {
		category = "client"
	}
	var fields map[string]any
	if raw, exists := params["fields"].(map[string]any); exists {
		fields = raw
	}
	s.analytics.Record(category, name, paramBool(params, "success"), fields)
	if err := s.analytics.Flush(false); err != nil {
		s.log.Warn().Err(err).Msg("analytics flush failed")
	}
	return ok(nil)
}

func handleGetAnalyticsSummary(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	window := paramInt(params, "window_hours", 24)
	return ok(Response{
		"summary":  s.analytics.Summarize(window),
		"counters": s.analytics.Counters(),
	})
}

func handleGetAnalyticsEvents(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	limit := paramInt(params, "limit", 100)
	return ok(Response{"events": s.analytics.Recent(limit)})
}

func handleGetAnalyticsRecommendations(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	window := paramInt(params, "window_hours", 24)
	return ok(Response{"recommendations": s.analytics.Recommendations(window)})
}

func handleResetAnalytics(s *Server, sess *Session, g *game.Game, params map[string]any) Response {
	if err := s.analytics.Reset(); err != nil {
		return errResp("RESET_FAILED")
	}
	return ok(nil)
}
