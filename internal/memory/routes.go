package memory

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts memory endpoints under /api/memory on the given router.
func RegisterRoutes(r chi.Router, mgr *Manager) {
	r.Route("/api/memory", func(r chi.Router) {
		r.Get("/stats", handleStats(mgr))
		r.Get("/users/{userID}/history", handleHistory(mgr))
		r.Get("/users/{userID}/preferences", handleGetPreferences(mgr))
		r.Put("/users/{userID}/preferences", handleUpdatePreferences(mgr))
		r.Post("/purge", handlePurge(mgr))
	})
}

func handleStats(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := mgr.Stats(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

func handleHistory(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		q := r.URL.Query()

		limit := 50
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				limit = n
			}
		}
		var maxAge time.Duration
		if v := q.Get("hours"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				maxAge = time.Duration(n) * time.Hour
			}
		}

		turns, err := mgr.History(r.Context(), userID, q.Get("channel"), limit, maxAge)
		if err != nil {
			if errors.Is(err, ErrMalformedInput) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if turns == nil {
			turns = []Turn{}
		}
		writeJSON(w, http.StatusOK, turns)
	}
}

func handleGetPreferences(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefs, err := mgr.Preferences(r.Context(), chi.URLParam(r, "userID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	}
}

func handleUpdatePreferences(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var updates map[string]any
		if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
			http.Error(w, "invalid JSON body", http.StatusBadRequest)
			return
		}
		userID := chi.URLParam(r, "userID")
		if err := mgr.UpdatePreferences(r.Context(), userID, updates); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		prefs, err := mgr.Preferences(r.Context(), userID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, prefs)
	}
}

func handlePurge(mgr *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := 90
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				http.Error(w, "days must be a positive integer", http.StatusBadRequest)
				return
			}
			days = n
		}
		res, err := mgr.Purge(r.Context(), days)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
