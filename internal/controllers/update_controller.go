package controllers

import (
	"net/http"
	"time"

	"iris-server/internal/models"
	"iris-server/internal/relay"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Broadcaster interface {
	Broadcast(event string, payload interface{}, to string) int
}

type statusUpdateRequest struct {
	Message string `json:"message" binding:"required,min=1"`
	Level   string `json:"level" binding:"omitempty,oneof=info warning error success"`
	Room    string `json:"room"`
}

// UpdateController pushes server update progress to everyone listening on
// the updates namespace.
type UpdateController struct {
	relay Broadcaster
}

func NewUpdateController(relay Broadcaster) *UpdateController {
	return &UpdateController{relay: relay}
}

func (uc *UpdateController) PostStatus(c *gin.Context) {
	var req statusUpdateRequest
	if !utils.BindJSON(c, &req) {
		return
	}

	delivered := uc.relay.Broadcast(models.EventUpdateStatus, relay.StatusUpdate{
		Message:   req.Message,
		Level:     req.Level,
		Timestamp: time.Now().UTC(),
	}, req.Room)
	log.Info().Str("room", req.Room).Int("delivered", delivered).Msg("Update status broadcast")

	utils.RespondWithSuccess(c, http.StatusOK, "Status broadcast", gin.H{"delivered": delivered})
}
