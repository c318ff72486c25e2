package live

import (
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	helper "schoolku_backend/internals/helpers"
)

const (
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// RequireUpgrade rejects plain HTTP on websocket routes.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return helper.JsonError(c, fiber.StatusUpgradeRequired, "Websocket upgrade required")
}

// Handler streams the school's events. The school id must be in Locals
// (school context middleware) before the upgrade.
func Handler(h *Hub) fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		schoolID, ok := conn.Locals(helper.LocSchoolID).(uuid.UUID)
		if !ok || schoolID == uuid.Nil {
			_ = conn.WriteJSON(fiber.Map{"type": "error", "message": "No active school"})
			_ = conn.Close()
			return
		}
		sub := h.Subscribe(schoolID)
		defer sub.Close()

		// reader: detects client close
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteJSON(ev); err != nil {
					log.Printf("[LIVE] write failed school=%s: %v", schoolID, err)
					return
				}
			case <-ping.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	})
}
