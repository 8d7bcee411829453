package httpserver

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	statusQueryTimeout = 5 * time.Second
	// the bot counts as active when an event was handled this recently
	activityWindow = time.Hour

	recentDefaultLimit = 10
	recentMaxLimit     = 100
)

func (s *Server) registerStatusRoutes() {
	s.echo.GET("/status", s.handleStatus)
	s.echo.GET("/api/analyses/recent", s.handleRecentAnalyses)
}

func (s *Server) handleStatus(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), statusQueryTimeout)
	defer cancel()

	stats, err := s.service.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to collect status: %w", err)
	}

	state := "idle"
	var lastProcessed any
	if stats.HasActivity {
		lastProcessed = stats.LastProcessedAt
		if time.Since(stats.LastProcessedAt) < activityWindow {
			state = "active"
		}
	}

	response := map[string]any{
		"state":             state,
		"uptime_seconds":    time.Since(s.startTime).Seconds(),
		"processed_total":   stats.TotalProcessed,
		"processed_24h":     stats.RecentProcessed,
		"analyses_total":    stats.TotalAnalyses,
		"analyses_24h":      stats.RecentAnalyses,
		"trusted_accounts":  stats.TrustedAccounts,
		"last_processed_at": lastProcessed,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to write status response: %w", err)
	}
	return nil
}

type recentAnalysis struct {
	AccountID            string    `json:"account_id"`
	Handle               string    `json:"handle"`
	Score                int       `json:"score"`
	TrustedFollowerCount int       `json:"trusted_follower_count"`
	FollowerRatio        *float64  `json:"follower_ratio"`
	AnalyzedAt           time.Time `json:"analyzed_at"`
}

func (s *Server) handleRecentAnalyses(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), statusQueryTimeout)
	defer cancel()

	limit := recentDefaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > recentMaxLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be between 1 and 100")
		}
		limit = parsed
	}

	analyses, err := s.analyses.ListRecent(ctx, 24*time.Hour, limit)
	if err != nil {
		return fmt.Errorf("failed to list recent analyses: %w", err)
	}

	results := make([]recentAnalysis, 0, len(analyses))
	for _, a := range analyses {
		entry := recentAnalysis{
			AccountID:            a.AccountID,
			Handle:               a.Handle,
			Score:                a.Score,
			TrustedFollowerCount: a.TrustedFollowerCount,
			AnalyzedAt:           a.AnalyzedAt,
		}
		// the infinite ratio sentinel is not representable in JSON
		if !math.IsInf(a.FollowerRatio, 1) {
			ratio := a.FollowerRatio
			entry.FollowerRatio = &ratio
		}
		results = append(results, entry)
	}

	if err := c.JSON(http.StatusOK, map[string]any{"analyses": results}); err != nil {
		return fmt.Errorf("failed to write analyses response: %w", err)
	}
	return nil
}
