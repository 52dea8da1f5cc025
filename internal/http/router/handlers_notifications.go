package router

import (
	"errors"
	"net/http"
	"time"

	"github.com/yxshee/biteback/services/api/internal/access"
	"github.com/yxshee/biteback/services/api/internal/auth"
	"github.com/yxshee/biteback/services/api/internal/logger"
	"github.com/yxshee/biteback/services/api/internal/notify"
)

type streamHello struct {
	Type        string    `json:"type"`
	RecipientID string    `json:"recipient_id"`
	ConnectedAt time.Time `json:"connected_at"`
}

// handleNotificationStream holds the connection open as the caller's
// notification channel until the client goes away. A newer connection by
// the same user takes over the channel.
func (a *api) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, access.MsgAuthenticationRequired)
		return
	}

	stream, err := notify.NewHTTPStream(w)
	if err != nil {
		if errors.Is(err, notify.ErrStreamingUnsupported) {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}
		writeInternalError(w, r, err, "stream setup failed")
		return
	}

	log := logger.FromContext(r.Context())
	a.notifications.Register(identity.UserID, stream)
	defer func() {
		if a.notifications.Release(identity.UserID, stream) {
			log.Debug("notification stream closed")
		}
		_ = stream.Close()
	}()

	if err := a.notifications.Notify(identity.UserID, streamHello{
		Type:        "connected",
		RecipientID: identity.UserID,
		ConnectedAt: time.Now().UTC(),
	}); err != nil {
		log.WithError(err).Warn("stream greeting failed")
	}

	heartbeat := time.NewTicker(a.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if err := stream.Ping(); err != nil {
				log.WithError(err).Debug("notification stream heartbeat failed")
				return
			}
		}
	}
}
