package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ignatzorin/career-compass/internal/discovery"
	"github.com/ignatzorin/career-compass/internal/goroutine"
	"github.com/ignatzorin/career-compass/internal/logger"
	"github.com/ignatzorin/career-compass/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = 16 * 1024
)

// QueryMessage сообщение клиента: текущий ввод поиска.
// Flush отправляет запрос сразу, без паузы.
type QueryMessage struct {
	Q       string            `json:"q"`
	Filters map[string]string `json:"filters,omitempty"`
	Flush   bool              `json:"flush,omitempty"`
}

// Frame сообщение сервера.
type Frame struct {
	Type          string               `json:"type"`
	Phase         string               `json:"phase,omitempty"`
	Seq           uint64               `json:"seq,omitempty"`
	AppliedSeq    uint64               `json:"applied_seq,omitempty"`
	Opportunities []models.Opportunity `json:"opportunities,omitempty"`
	Total         int                  `json:"total"`
	Error         string               `json:"error,omitempty"`
}

const (
	FrameState = "state"
	FrameError = "error"
)

// Client одно WebSocket соединение со своим движком поиска.
type Client struct {
	conn    *websocket.Conn
	hub     *Hub
	engine  *discovery.Engine
	changed chan struct{}
	errors  chan Frame
	done    chan struct{}
	once    sync.Once
}

// NewClient создаёт клиента. Движок поиска получает fetcher и opts.
func NewClient(conn *websocket.Conn, hub *Hub, fetcher discovery.Fetcher, opts ...discovery.Option) *Client {
	c := &Client{
		conn:    conn,
		hub:     hub,
		changed: make(chan struct{}, 1),
		errors:  make(chan Frame, 4),
		done:    make(chan struct{}),
	}
	opts = append(opts, discovery.WithOnChange(c.notify))
	c.engine = discovery.NewEngine(fetcher, opts...)
	return c
}

// Run обрабатывает соединение до его закрытия.
func (c *Client) Run(ctx context.Context) {
	if !c.hub.Register(c) {
		c.Close()
		return
	}
	goroutine.SafeGo(c.writePump)
	c.readPump(ctx)
}

// Close закрывает соединение. Повторные вызовы безопасны.
func (c *Client) Close() {
	c.once.Do(func() {
		close(c.done)
		c.engine.Cancel()
		c.hub.Unregister(c)
		_ = c.conn.Close()
	})
}

func (c *Client) notify(discovery.Snapshot) {
	select {
	case c.changed <- struct{}{}:
	default:
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.Close()

	c.conn.SetReadLimit(readLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if ctx.Err() != nil {
			return
		}
		var msg QueryMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Component("ws").WithError(err).Debug("соединение поиска прервано")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		q := discovery.Query{Text: msg.Q, Filters: msg.Filters}
		if err := q.Validate(); err != nil {
			c.pushError(err.Error())
			continue
		}
		c.engine.Input(q)
		if msg.Flush {
			c.engine.Flush()
		}
	}
}

func (c *Client) pushError(text string) {
	select {
	case c.errors <- Frame{Type: FrameError, Error: text}:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		case <-c.changed:
			if !c.write(stateFrame(c.engine.Snapshot())) {
				return
			}
		case frame := <-c.errors:
			if !c.write(frame) {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(frame Frame) bool {
	raw, err := json.Marshal(frame)
	if err != nil {
		logger.Component("ws").WithError(err).Error("не удалось сериализовать кадр")
		return false
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, raw) == nil
}

func stateFrame(snap discovery.Snapshot) Frame {
	f := Frame{
		Type:          FrameState,
		Phase:         snap.Phase.String(),
		Seq:           snap.Seq,
		AppliedSeq:    snap.AppliedSeq,
		Opportunities: snap.Results,
		Total:         len(snap.Results),
	}
	if snap.Err != nil {
		f.Error = snap.Err.Error()
	}
	return f
}
