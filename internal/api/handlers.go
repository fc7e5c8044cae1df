package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

type handler struct {
	scanner Scanner
	feed    FeedStatus
	logger  *zap.Logger
}

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": "ok"}
	if h.feed != nil {
		resp["feed"] = h.feed.State()
		resp["buffered"] = h.feed.Len()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) scan(w http.ResponseWriter, r *http.Request) {
	result, err := h.scanner.RunScan(r.Context())
	if err != nil {
		h.logger.Error("scan failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "scan failed",
			Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *handler) recall(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{
				Error:   "invalid limit",
				Message: "limit must be an integer",
			})
			return
		}
		limit = n
	}

	page, err := h.scanner.Recall(r.Context(), limit)
	if err != nil {
		h.logger.Error("recall failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "recall failed",
			Message: err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
