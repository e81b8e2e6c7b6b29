package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/storekit/catalog/internal/core/domain"
	"github.com/storekit/catalog/internal/core/port"
)

// POST /v1/moderation JSON {"sku" string, "blocked" bool} (response 202 Accepted, 400 Bad request)

type ModerationHandler struct {
	setter port.ModerationSetter
}

func RegisterModeration(mux *http.ServeMux, setter port.ModerationSetter) {
	h := ModerationHandler{setter}
	mux.HandleFunc("POST /v1/moderation", h.PostRule)
}

func (h ModerationHandler) PostRule(w http.ResponseWriter, r *http.Request) {
	const op = "ModerationHandler.PostRule"
	log := slog.With("op", op)

	var rule ModerationRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return
	}

	if rule.SKU == "" {
		http.Error(w, "sku is required", http.StatusBadRequest)
		return
	}

	err := h.setter.SetRule(r.Context(), domain.ModerationRule{
		SKU:     rule.SKU,
		Blocked: rule.Blocked,
	})
	if err != nil {
		http.Error(
			w, "failed to accept moderation rule", http.StatusServiceUnavailable,
		)
		log.Error("failed to produce moderation rule", "err", err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	if _, err := w.Write([]byte("Accepted")); err != nil {
		log.Error("failed to write response body", "err", err)
		return
	}

	log.Info("accepted", "sku", rule.SKU, "blocked", rule.Blocked)
}
