package relay

import (
	"net/http"
	"strings"

	"iris-server/internal/models"
	"iris-server/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Upgrader builds the websocket upgrader. An origin of "*" accepts any.
func Upgrader(allowedOrigin string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if allowedOrigin == "" || allowedOrigin == "*" {
				return true
			}
			origin := r.Header.Get("Origin")
			return origin == "" || strings.EqualFold(origin, allowedOrigin)
		},
	}
}

// ServeWs upgrades an authenticated request into a relay connection on
// namespace. The principal must already be on the gin context.
func ServeWs(hub *Hub, upgrader websocket.Upgrader, namespace string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := utils.GetPrincipal(c)
		if err != nil {
			utils.RespondWithAppError(c, err)
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Warn().Err(err).Msg("Websocket upgrade failed")
			return
		}

		client := newClient(utils.NewUUID(), namespace, user, conn)
		hub.Register(client)
		hub.sendTo(client, models.EventConnected, map[string]string{"sid": client.sid})
		log.Debug().Str("sid", client.sid).Str("user", user.Username).Str("namespace", namespace).Msg("Relay connection opened")

		go client.writePump()
		go client.readPump(hub)
	}
}
