package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nile-security/nile/evidence"
	"github.com/nile-security/nile/internal/nile/leaderboard"
	"github.com/nile-security/nile/internal/nile/notify"
	"github.com/nile-security/nile/internal/nile/score"
	"github.com/nile-security/nile/internal/nile/store"
)

type memStorage struct {
	contracts map[string]string
	scans     []string
	scores    map[string][]store.ScoreRecord

	failInsert bool
}

func newMemStorage() *memStorage {
	return &memStorage{
		contracts: map[string]string{},
		scores:    map[string][]store.ScoreRecord{},
	}
}

func (m *memStorage) UpsertContract(_ context.Context, address, name string) error {
	m.contracts[address] = name
	return nil
}

func (m *memStorage) InsertScan(_ context.Context, scanID, _ string) error {
	m.scans = append(m.scans, scanID)
	return nil
}

func (m *memStorage) InsertScore(_ context.Context, rec store.ScoreRecord) error {
	if m.failInsert {
		return fmt.Errorf("disk full")
	}
	m.scores[rec.Address] = append(m.scores[rec.Address], rec)
	return nil
}

func (m *memStorage) LatestScore(_ context.Context, address string) (store.ScoreRecord, error) {
	recs := m.scores[address]
	if len(recs) == 0 {
		return store.ScoreRecord{}, store.ErrNotFound
	}
	return recs[len(recs)-1], nil
}

func (m *memStorage) History(_ context.Context, address string, limit int) ([]store.ScoreRecord, error) {
	recs := m.scores[address]
	if limit > 0 && len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return recs, nil
}

type memPublisher struct {
	events []notify.Event
}

func (m *memPublisher) Publish(_ context.Context, ev notify.Event) error {
	m.events = append(m.events, ev)
	return nil
}

func (m *memPublisher) byType(t string) []notify.Event {
	var out []notify.Event
	for _, ev := range m.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestServer(storage Storage, pub Publisher) *Server {
	return NewServer(
		Config{Weights: score.DefaultWeights},
		storage,
		pub,
		leaderboard.NewIndex(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func submitBody(t *testing.T, mutate func(*evidence.Document)) *bytes.Buffer {
	t.Helper()
	sub := evidence.Document{Address: "0xabc123", Name: "TokenVault"}
	sub.Identity.IsVerified = true
	sub.Identity.AuditCount = 3
	sub.Identity.AgeDays = 400
	sub.Identity.TeamIdentified = true
	sub.Identity.EcosystemScore = 20
	sub.Quality.TestCoveragePct = 100
	if mutate != nil {
		mutate(&sub)
	}
	raw, err := json.Marshal(sub)
	require.NoError(t, err)
	return bytes.NewBuffer(raw)
}

func TestSubmitScan(t *testing.T) {
	storage := newMemStorage()
	pub := &memPublisher{}
	srv := newTestServer(storage, pub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", submitBody(t, nil))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.ScanID)
	require.NotNil(t, resp.Result)
	assert.Equal(t, "A+", resp.Result.Grade)

	assert.Equal(t, "TokenVault", storage.contracts["0xabc123"])
	assert.Len(t, storage.scores["0xabc123"], 1)
	assert.Len(t, pub.byType(notify.EventScanCompleted), 1)
	assert.Empty(t, pub.byType(notify.EventVulnDetected))
}

func TestSubmitScanValidation(t *testing.T) {
	tests := []struct {
		name string
		body io.Reader
		want int
	}{
		{
			name: "malformed JSON",
			body: bytes.NewBufferString("{nope"),
			want: http.StatusBadRequest,
		},
		{
			name: "missing address",
			body: func() io.Reader {
				b := submitBody(t, func(s *evidence.Document) { s.Address = "" })
				return b
			}(),
			want: http.StatusBadRequest,
		},
		{
			name: "unknown weight dimension",
			body: submitBody(t, func(s *evidence.Document) {
				s.Weights = map[string]float64{"imgae": 0.5}
			}),
			want: http.StatusBadRequest,
		},
		{
			name: "negative weight",
			body: submitBody(t, func(s *evidence.Document) {
				s.Weights = map[string]float64{"name": -0.25}
			}),
			want: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(newMemStorage(), &memPublisher{})
			req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", tt.body)
			rec := httptest.NewRecorder()
			srv.Router().ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestSubmitScanDefaults(t *testing.T) {
	// Omitted complexity reads as the baseline of 5 and omitted timelock
	// reads as present, so a full-coverage submission still grades A+.
	storage := newMemStorage()
	srv := newTestServer(storage, &memPublisher{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", submitBody(t, nil))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp scanResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 100.0, resp.Result.EssenceScore, 1e-9)
}

func TestSubmitScanCriticalAlert(t *testing.T) {
	pub := &memPublisher{}
	srv := newTestServer(newMemStorage(), pub)

	body := submitBody(t, func(s *evidence.Document) {
		s.Posture.OpenCritical = 2
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", body)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	alerts := pub.byType(notify.EventVulnDetected)
	require.Len(t, alerts, 1)
	assert.Equal(t, "critical", alerts[0].Severity)
	assert.Equal(t, "2", alerts[0].Metadata["open_critical"])
}

func TestSubmitScanGradeChangeEvent(t *testing.T) {
	storage := newMemStorage()
	pub := &memPublisher{}
	srv := newTestServer(storage, pub)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/scans", submitBody(t, nil))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, first)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Same contract, much worse evidence: the grade drops and the change
	// is announced.
	second := httptest.NewRequest(http.MethodPost, "/api/v1/scans", submitBody(t, func(s *evidence.Document) {
		s.Identity.IsVerified = false
		s.Identity.AuditCount = 0
		s.Identity.TeamIdentified = false
		s.Identity.EcosystemScore = 0
		s.Posture.OpenCritical = 3
		s.Quality.TestCoveragePct = 0
	}))
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, second)
	require.Equal(t, http.StatusCreated, rec.Code)

	changes := pub.byType(notify.EventScoreChanged)
	require.Len(t, changes, 1)
	assert.Equal(t, "A+", changes[0].Metadata["from"])
	assert.NotEqual(t, changes[0].Metadata["from"], changes[0].Metadata["to"])
}

func TestSubmitScanStorageFailure(t *testing.T) {
	storage := newMemStorage()
	storage.failInsert = true
	srv := newTestServer(storage, &memPublisher{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", submitBody(t, nil))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetScore(t *testing.T) {
	storage := newMemStorage()
	srv := newTestServer(storage, &memPublisher{})

	submit := httptest.NewRequest(http.MethodPost, "/api/v1/scans", submitBody(t, nil))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, submit)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts/0xabc123/score", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got store.ScoreRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "0xabc123", got.Address)
	assert.Equal(t, "A+", got.Result.Grade)
}

func TestGetScoreNotFound(t *testing.T) {
	srv := newTestServer(newMemStorage(), &memPublisher{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts/0xdead/score", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetHistory(t *testing.T) {
	storage := newMemStorage()
	srv := newTestServer(storage, &memPublisher{})

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/scans", submitBody(t, nil))
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts/0xabc123/history?limit=2", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Address string              `json:"address"`
		Count   int                 `json:"count"`
		Scores  []store.ScoreRecord `json:"scores"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Len(t, resp.Scores, 2)
}

func TestGetHistoryBadLimit(t *testing.T) {
	srv := newTestServer(newMemStorage(), &memPublisher{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/contracts/0xabc123/history?limit=zero", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(newMemStorage(), &memPublisher{})

	submit := httptest.NewRequest(http.MethodPost, "/api/v1/scans", submitBody(t, nil))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, submit)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var status map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.EqualValues(t, 1, status["scans_processed"])
	assert.EqualValues(t, 1, status["ranked"])
	assert.NotEmpty(t, status["last_scan_at"])
}

func TestLeaderboardMounted(t *testing.T) {
	srv := newTestServer(newMemStorage(), &memPublisher{})

	submit := httptest.NewRequest(http.MethodPost, "/api/v1/scans", submitBody(t, nil))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, submit)
	require.Equal(t, http.StatusCreated, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/", nil)
	rec = httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count   int                 `json:"count"`
		Entries []leaderboard.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "0xabc123", resp.Entries[0].Address)
}