package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/paperbox/internal/core/domain"
)

const streamBuffer = 16

// streamFeed pushes feed-changed events as server-sent events until the
// client disconnects. Events carry no list; clients re-fetch the feed.
func (rt *Router) streamFeed(w http.ResponseWriter, r *http.Request) {
	owner, err := ownerID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rt.deps.FeedEvents == nil {
		writeError(w, r, domain.WrapError(domain.ErrTemporary, "stream feed", errors.New("feed push channel is not configured")))
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, r, errors.New("streaming is not supported by response writer"))
		return
	}

	ctx := r.Context()
	events := make(chan domain.FeedEvent, streamBuffer)
	subscribed := make(chan error, 1)
	go func() {
		subscribed <- rt.deps.FeedEvents.SubscribeFeed(ctx, owner, func(event domain.FeedEvent) {
			select {
			case events <- event:
			default:
				slog.Warn("feed_stream_event_dropped", "owner_id", owner, "kind", event.Kind)
			}
		})
	}()

	if rt.deps.Metrics != nil {
		rt.deps.Metrics.StreamOpened()
		defer rt.deps.Metrics.StreamClosed()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if _, err := fmt.Fprint(w, ": connected\n\n"); err != nil {
		return
	}
	flusher.Flush()

	keepAlive := time.NewTicker(rt.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-subscribed:
			if err != nil {
				slog.Warn("feed_stream_subscribe_failed", "owner_id", owner, "error", err)
				_, _ = fmt.Fprint(w, "event: error\ndata: {\"error\":\"feed push channel unavailable\"}\n\n")
				flusher.Flush()
			}
			return
		case event := <-events:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
