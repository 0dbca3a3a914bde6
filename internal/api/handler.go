package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sebastiankruger/trajectory-dataset/internal/artifact"
	"github.com/sebastiankruger/trajectory-dataset/internal/rocket"
	"github.com/sebastiankruger/trajectory-dataset/internal/store"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Reader is the read side of the rocket store
type Reader interface {
	Stats(ctx context.Context) (store.Stats, error)
	LatestRun(ctx context.Context) (*store.Run, error)
	ListRockets(ctx context.Context, limit, offset int) ([]store.Rocket, error)
	GetRocket(ctx context.Context, id string) (*store.Rocket, error)
	Trajectory(ctx context.Context, id string) ([]artifact.TrajectorySample, error)
	Wind(ctx context.Context, id string) ([]artifact.WindSample, error)
}

// Handler handles REST API requests for the rocket store
type Handler struct {
	store Reader
}

// NewHandler creates an API handler backed by store
func NewHandler(store Reader) *Handler {
	return &Handler{store: store}
}

// Register mounts the API routes on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.HandleStatus)
	mux.HandleFunc("/api/rockets", h.HandleRockets)
	mux.HandleFunc("/api/rockets/", h.HandleRocketDetail)
}

// HandleStatus handles GET /api/status
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := StatusResponse{Stats: stats}
	run, err := h.store.LatestRun(r.Context())
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		h.writeError(w, err)
		return
	default:
		resp.LatestRun = run
	}

	h.writeJSON(w, resp)
}

// HandleRockets handles GET /api/rockets?limit=&offset=
func (h *Handler) HandleRockets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil || limit <= 0 {
		http.Error(w, "Invalid limit", http.StatusBadRequest)
		return
	}
	limit = min(limit, maxLimit)
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		http.Error(w, "Invalid offset", http.StatusBadRequest)
		return
	}

	rockets, err := h.store.ListRockets(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, err)
		return
	}
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}

	if rockets == nil {
		rockets = []store.Rocket{}
	}
	h.writeJSON(w, RocketListResponse{
		Rockets: rockets,
		Limit:   limit,
		Offset:  offset,
		Total:   stats.Rockets,
	})
}

// HandleRocketDetail handles GET /api/rockets/{id} and
// GET /api/rockets/{id}/trajectory
func (h *Handler) HandleRocketDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/rockets/"), "/")
	rocketID, sub, _ := strings.Cut(path, "/")

	if rocketID == "" {
		http.Error(w, "Rocket ID required", http.StatusBadRequest)
		return
	}
	if _, err := rocket.ParseID(rocketID); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch sub {
	case "":
		detail, err := h.store.GetRocket(r.Context(), rocketID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, detail)
	case "trajectory":
		traj, err := h.store.Trajectory(r.Context(), rocketID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		wind, err := h.store.Wind(r.Context(), rocketID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		if traj == nil {
			traj = []artifact.TrajectorySample{}
		}
		h.writeJSON(w, TrajectoryResponse{RocketID: rocketID, Trajectory: traj, Wind: wind})
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	} else {
		log.Error().Err(err).Msg("API request failed")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
