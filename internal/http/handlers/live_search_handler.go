package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/ignatzorin/career-compass/internal/discovery"
	"github.com/ignatzorin/career-compass/internal/http/handlers/common"
	"github.com/ignatzorin/career-compass/internal/pkg/apperror"
	"github.com/ignatzorin/career-compass/internal/ws"
)

// LiveSearchHandler открывает WebSocket поиск возможностей.
type LiveSearchHandler struct {
	hub      *ws.Hub
	fetcher  discovery.Fetcher
	debounce time.Duration
	timeout  time.Duration
	upgrader websocket.Upgrader
}

// NewLiveSearchHandler создаёт хэндлер. Origin проверяется по тому же списку, что и CORS;
// запросы без Origin (не из браузера) принимаются.
func NewLiveSearchHandler(hub *ws.Hub, fetcher discovery.Fetcher, allowedOrigins []string, debounce, timeout time.Duration) *LiveSearchHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &LiveSearchHandler{
		hub:      hub,
		fetcher:  fetcher,
		debounce: debounce,
		timeout:  timeout,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle GET /discovery/live
func (h *LiveSearchHandler) Handle(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		common.Fail(c, apperror.New(apperror.ErrCodeValidation, "ожидается WebSocket соединение"))
		return
	}

	// Upgrader сам отвечает клиенту при ошибке.
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	client := ws.NewClient(conn, h.hub, h.fetcher,
		discovery.WithDebounce(h.debounce),
		discovery.WithTimeout(h.timeout),
	)
	client.Run(c.Request.Context())
}
