package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	streamBuffer      = 16
	keepAliveInterval = 15 * time.Second
)

// Events handles GET /api/v1/events as a Server-Sent Events stream of impacts,
// weight changes and selection changes. The current impacts are sent first.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	// The stream outlives the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		slog.Warn("events: clearing write deadline", "error", err)
	}

	ctx := r.Context()
	impacts := h.bus.Impacts.Stream(ctx, streamBuffer)
	weights := h.bus.WeightChanged.Stream(ctx, streamBuffer)
	selected := h.bus.SelectedIndex.Stream(ctx, streamBuffer)
	shown := h.bus.IndexShown.Stream(ctx, streamBuffer)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(event string, v any) bool {
		data, err := json.Marshal(v)
		if err != nil {
			slog.Error("events: marshaling payload", "event", event, "error", err)
			return true
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
			return false
		}
		return rc.Flush() == nil
	}

	if current, err := h.dash.Impacts(); err == nil {
		if !send("impacts", current) {
			return
		}
	} else if err := rc.Flush(); err != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		var ok bool
		select {
		case <-ctx.Done():
			return
		case v, open := <-impacts:
			ok = open && send("impacts", v)
		case v, open := <-weights:
			ok = open && send("weights", v)
		case v, open := <-selected:
			ok = open && send("selection", map[string]any{"index": v})
		case v, open := <-shown:
			ok = open && send("show", map[string]bool{"show": v})
		case <-ticker.C:
			_, err := fmt.Fprint(w, ": keep-alive\n\n")
			ok = err == nil && rc.Flush() == nil
		}
		if !ok {
			return
		}
	}
}
