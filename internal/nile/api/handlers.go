package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nile-security/nile/evidence"
	"github.com/nile-security/nile/internal/nile/leaderboard"
	"github.com/nile-security/nile/internal/nile/notify"
	"github.com/nile-security/nile/internal/nile/score"
	"github.com/nile-security/nile/internal/nile/store"
)

type scanResponse struct {
	ScanID string        `json:"scan_id"`
	Result *score.Result `json:"result"`
}

func (s *Server) handleSubmitScan(w http.ResponseWriter, r *http.Request) {
	var doc evidence.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON: %v", err)
		return
	}
	if err := doc.Validate(); err != nil {
		httpError(w, http.StatusBadRequest, "%v", err)
		return
	}

	result, err := doc.Score(s.cfg.Weights)
	if err != nil {
		httpError(w, http.StatusBadRequest, "%v", err)
		return
	}

	scanID := uuid.NewString()
	now := time.Now().UTC()
	ctx := r.Context()

	// The previous score, if any, drives the score.changed event.
	var previous *store.ScoreRecord
	if prev, err := s.storage.LatestScore(ctx, doc.Address); err == nil {
		previous = &prev
	} else if !errors.Is(err, store.ErrNotFound) {
		s.logger.Error("loading previous score", "address", doc.Address, "error", err)
	}

	if err := s.persist(ctx, scanID, &doc, result, now); err != nil {
		s.logger.Error("persisting scan", "address", doc.Address, "error", err)
		httpError(w, http.StatusInternalServerError, "storing scan result")
		return
	}

	s.index.Upsert(leaderboard.Entry{
		Address:       doc.Address,
		Name:          doc.Name,
		Grade:         result.Grade,
		TotalScore:    result.TotalScore,
		NameScore:     result.NameScore,
		ImageScore:    result.ImageScore,
		LikenessScore: result.LikenessScore,
		EssenceScore:  result.EssenceScore,
		ScoredAt:      now,
	})

	s.announce(ctx, &doc, result, previous)

	s.scansProcessed.Add(1)
	s.lastScanAt.Store(now)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(scanResponse{ScanID: scanID, Result: result})
}

func (s *Server) persist(ctx context.Context, scanID string, doc *evidence.Document, result *score.Result, now time.Time) error {
	if err := s.storage.UpsertContract(ctx, doc.Address, doc.Name); err != nil {
		return fmt.Errorf("upserting contract: %w", err)
	}
	if err := s.storage.InsertScan(ctx, scanID, doc.Address); err != nil {
		return fmt.Errorf("recording scan: %w", err)
	}
	if err := s.storage.InsertScore(ctx, store.ScoreRecord{
		ID:       uuid.NewString(),
		Address:  doc.Address,
		ScanID:   scanID,
		Result:   *result,
		ScoredAt: now,
	}); err != nil {
		return fmt.Errorf("recording score: %w", err)
	}
	return nil
}

// announce publishes ecosystem events for a completed scan. Notification
// failures are logged, never surfaced to the submitter.
func (s *Server) announce(ctx context.Context, doc *evidence.Document, result *score.Result, previous *store.ScoreRecord) {
	if s.notifier == nil {
		return
	}

	ev := notify.Event{
		Type:     notify.EventScanCompleted,
		Contract: doc.Address,
		Metadata: map[string]string{
			"grade":       result.Grade,
			"total_score": strconv.FormatFloat(result.TotalScore, 'f', 2, 64),
		},
	}
	if err := s.notifier.Publish(ctx, ev); err != nil {
		s.logger.Warn("publishing scan event", "error", err)
	}

	if doc.Posture.OpenCritical > 0 {
		ev := notify.Event{
			Type:     notify.EventVulnDetected,
			Contract: doc.Address,
			Severity: "critical",
			Metadata: map[string]string{
				"open_critical": strconv.Itoa(doc.Posture.OpenCritical),
			},
		}
		if err := s.notifier.Publish(ctx, ev); err != nil {
			s.logger.Warn("publishing alert event", "error", err)
		}
	}

	if previous != nil && previous.Result.Grade != result.Grade {
		ev := notify.Event{
			Type:     notify.EventScoreChanged,
			Contract: doc.Address,
			Metadata: map[string]string{
				"from": previous.Result.Grade,
				"to":   result.Grade,
			},
		}
		if err := s.notifier.Publish(ctx, ev); err != nil {
			s.logger.Warn("publishing change event", "error", err)
		}
	}
}

func (s *Server) handleGetScore(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	rec, err := s.storage.LatestScore(r.Context(), address)
	if errors.Is(err, store.ErrNotFound) {
		httpError(w, http.StatusNotFound, "no score for %s", address)
		return
	}
	if err != nil {
		s.logger.Error("loading score", "address", address, "error", err)
		httpError(w, http.StatusInternalServerError, "loading score")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rec)
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			httpError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	recs, err := s.storage.History(r.Context(), address, limit)
	if err != nil {
		s.logger.Error("loading history", "address", address, "error", err)
		httpError(w, http.StatusInternalServerError, "loading history")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"address": address,
		"count":   len(recs),
		"scores":  recs,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"scans_processed": s.scansProcessed.Load(),
		"ranked":          s.index.Count(),
	}
	if t, ok := s.lastScanAt.Load().(time.Time); ok {
		status["last_scan_at"] = t.Format(time.RFC3339)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

func httpError(w http.ResponseWriter, code int, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": fmt.Sprintf(format, args...)})
}
