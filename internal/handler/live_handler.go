package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/models"
	"github.com/SadmanHussainChowdhury/community-complaint-api/internal/realtime"
	appErrors "github.com/SadmanHussainChowdhury/community-complaint-api/pkg/errors"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/middleware/cors"
	"github.com/SadmanHussainChowdhury/community-complaint-api/pkg/response"
)

type complaintReader interface {
	Get(ctx context.Context, actor models.Actor, id string) (*models.Complaint, error)
}

// LiveHandler upgrades authorised viewers of a complaint to a websocket feed.
type LiveHandler struct {
	complaints  complaintReader
	hub         *realtime.Hub
	topicPrefix string
	upgrader    websocket.Upgrader
	lifetime    context.Context
	logger      *zap.Logger
}

// NewLiveHandler builds the handler. lifetime ends every open feed when cancelled.
// An empty allowedOrigins list accepts any origin.
func NewLiveHandler(lifetime context.Context, complaints complaintReader, hub *realtime.Hub, topicPrefix string, allowedOrigins []string, logger *zap.Logger) *LiveHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	origins := cors.ParseOrigins(allowedOrigins)
	return &LiveHandler{
		complaints:  complaints,
		hub:         hub,
		topicPrefix: topicPrefix,
		lifetime:    lifetime,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return origins.Allows(r.Header.Get("Origin"))
			},
		},
	}
}

// Stream godoc
// @Summary Follow a complaint live
// @Description Websocket feed. The first frame is a snapshot; later frames carry every committed change in version order.
// @Tags Complaints
// @Param id path string true "Complaint ID"
// @Param access_token query string false "Bearer token for clients that cannot set headers"
// @Success 101
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /complaints/{id}/live [get]
func (h *LiveHandler) Stream(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id := c.Param("id")
	topic := models.ComplaintTopic(h.topicPrefix, id)

	// Subscribe before loading so nothing committed in between is missed.
	sub := h.hub.Subscribe(topic, actor, 0)
	complaint, err := h.complaints.Get(c.Request.Context(), actor, id)
	if err != nil {
		sub.Close()
		response.Error(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		sub.Close()
		h.logger.Debug("live feed upgrade failed", zap.String("complaint_id", id), zap.Error(err))
		return
	}
	h.logger.Debug("live feed opened", zap.String("complaint_id", id), zap.String("actor_id", actor.ID))

	realtime.NewClient(conn, sub, h.logger).Serve(h.lifetime, &models.RealtimeMessage{
		Type:      realtime.SnapshotKind,
		Kinds:     []models.ComplaintEventKind{realtime.SnapshotKind},
		Version:   complaint.Version,
		Complaint: complaint,
		Changes:   []models.FieldChange{},
		SentAt:    time.Now().UTC(),
	})
}
