package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/jusunglee/subway-go/pkg/subway"
)

// Handler handles HTTP requests
type Handler struct {
	client subway.Client
}

// NewHandler creates a new HTTP handler
func NewHandler(client subway.Client) *Handler {
	return &Handler{client: client}
}

// RegisterRoutes registers all routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
	r.HandleFunc("/track/{station}", h.handleTrack).Methods("GET")
	r.HandleFunc("/positions/{line}", h.handlePositions).Methods("GET")
	r.HandleFunc("/lines", h.handleLines).Methods("GET")
	r.HandleFunc("/history", h.handleHistory).Methods("GET")
	r.HandleFunc("/status", h.handleStatus).Methods("GET")
}

// Response wraps API responses
type Response struct {
	Data    interface{} `json:"data"`
	Updated string      `json:"updated,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"title":  "subway-go",
		"readme": "Visit https://github.com/jusunglee/subway-go for more info",
	}
	h.writeJSON(w, response)
}

func (h *Handler) handleTrack(w http.ResponseWriter, r *http.Request) {
	station := mux.Vars(r)["station"]
	line := r.URL.Query().Get("line")
	direction := r.URL.Query().Get("direction")

	result, err := h.client.TrackStation(station, line, direction)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !result.OK {
		// vendor or transport failure: upstream trouble, not ours
		h.writeError(w, result.ErrorMessage, http.StatusBadGateway)
		return
	}

	h.writeJSON(w, Response{Data: result})
}

func (h *Handler) handlePositions(w http.ResponseWriter, r *http.Request) {
	line := mux.Vars(r)["line"]

	result, err := h.client.Positions(line)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !result.OK {
		status := http.StatusBadGateway
		if result.ErrorMessage == "unknown line code: "+line {
			status = http.StatusNotFound
		}
		h.writeError(w, result.ErrorMessage, status)
		return
	}

	h.writeJSON(w, Response{Data: result})
}

func (h *Handler) handleLines(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, Response{Data: h.client.Lines()})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			h.writeError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	entries, err := h.client.History(limit)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, Response{Data: entries})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	snapshot, updated := h.client.Snapshot()

	response := Response{Data: snapshot}
	if !updated.IsZero() {
		response.Updated = updated.Format(time.RFC3339)
	}
	h.writeJSON(w, response)
}

func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.writeError(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}
