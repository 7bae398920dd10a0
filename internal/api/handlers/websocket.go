package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"smartfleet-backend/internal/websocket"
	"smartfleet-backend/pkg/jwt"
)

// WebSocketHandler upgrades connections for the realtime vehicle feed.
type WebSocketHandler struct {
	manager *websocket.Manager
	jwtUtil *jwt.JWTUtil
}

func NewWebSocketHandler(manager *websocket.Manager, jwtUtil *jwt.JWTUtil) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		jwtUtil: jwtUtil,
	}
}

// HandleWebSocket authenticates the caller and registers them as a snapshot
// subscriber. The token rides in a query parameter because browsers cannot
// set headers on websocket upgrades.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication token required"})
		return
	}

	if _, err := h.jwtUtil.ValidateToken(token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authentication token"})
		return
	}

	filters := websocket.SnapshotFilters{
		VehicleIDs: c.QueryArray("vehicleIds"),
		Statuses:   c.QueryArray("statuses"),
	}

	conn, err := h.manager.Upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to upgrade to WebSocket"})
		return
	}

	h.manager.RegisterClient(uuid.New().String(), conn, filters)
}

// GetConnectedClients reports the number of live subscribers.
func (h *WebSocketHandler) GetConnectedClients(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"connectedClients": h.manager.ConnectedClients(),
	})
}
