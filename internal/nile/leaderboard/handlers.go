package leaderboard

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Routes returns the leaderboard's JSON routes.
func (idx *Index) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", idx.handleList)
	r.Get("/top", idx.handleTop)
	return r
}

func (idx *Index) handleList(w http.ResponseWriter, r *http.Request) {
	entries := idx.List(parseListOptions(r))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"count":   len(entries),
		"entries": entries,
	})
}

func (idx *Index) handleTop(w http.ResponseWriter, r *http.Request) {
	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = parsed
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(idx.Top(n))
}

func parseListOptions(r *http.Request) ListOptions {
	opts := ListOptions{
		Address:   r.URL.Query().Get("address"),
		Grade:     r.URL.Query().Get("grade"),
		SortField: r.URL.Query().Get("sort"),
		SortDesc:  r.URL.Query().Get("desc") != "false", // rankings default descending
	}
	if v := r.URL.Query().Get("min_score"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			opts.MinScore = parsed
		}
	}
	return opts
}
