package boundary

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"net/http"
)

// progressPollInterval is how often a streamed execution's ProgressView is
// re-sampled and pushed to the socket.
const progressPollInterval = 500 * time.Millisecond

// handleStreamProgress upgrades to a WebSocket and pushes ProgressView
// snapshots until the execution reaches a terminal state or the client
// disconnects. Grounded on the teacher's nhooyr.io/websocket usage in
// internal/clients/tradernet/websocket_client.go, adapted from an outbound
// dialer to a server-side Accept/push loop.
func (s *Server) handleStreamProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "progress stream closed")

	ctx := r.Context()
	ticker := time.NewTicker(progressPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "client disconnected")
			return
		case <-ticker.C:
			progress, err := s.container.Engine.Progress(id)
			if err != nil {
				writeStreamError(ctx, conn, s.log, err)
				conn.Close(websocket.StatusNormalClosure, "execution not found")
				return
			}

			if err := wsjson.Write(ctx, conn, progress); err != nil {
				s.log.Debug().Err(err).Str("execution_id", id).Msg("progress stream write failed")
				return
			}

			if progress.State.IsTerminal() {
				conn.Close(websocket.StatusNormalClosure, "execution finished")
				return
			}
		}
	}
}

type streamErrorMessage struct {
	Error string `json:"error"`
}

func writeStreamError(ctx context.Context, conn *websocket.Conn, log zerolog.Logger, err error) {
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if werr := wsjson.Write(writeCtx, conn, streamErrorMessage{Error: err.Error()}); werr != nil {
		log.Debug().Err(werr).Msg("failed to write stream error")
	}
}
