package realtime

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	joinTimeout    = 5 * time.Second
)

var ErrClientClosed = errors.New("client closed")

// Client is a websocket subscriber. Pending results are kept per poll and
// only the latest one is written, so a slow socket never holds up the hub.
type Client struct {
	id     string
	conn   *websocket.Conn
	hub    *Hub
	logger *slog.Logger

	mu      sync.Mutex
	pending map[string]Message
	order   []string
	seq     int
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

func newClient(conn *websocket.Conn, hub *Hub, logger *slog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:      id,
		conn:    conn,
		hub:     hub,
		logger:  logger.With("subscriber", id),
		pending: make(map[string]Message),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Send(msg Message) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClientClosed
	}

	key := msg.PollID
	if msg.Type != MessageResults {
		c.seq++
		key = msg.Type + "#" + strconv.Itoa(c.seq)
	}
	if _, ok := c.pending[key]; !ok {
		c.order = append(c.order, key)
	}
	c.pending[key] = msg
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

func (c *Client) close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	close(c.done)
	c.hub.Leave(c)
	c.conn.Close()
}

func (c *Client) drain() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs := make([]Message, 0, len(c.order))
	for _, key := range c.order {
		msgs = append(msgs, c.pending[key])
	}
	c.order = c.order[:0]
	clear(c.pending)
	return msgs
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case <-c.wake:
			for _, msg := range c.drain() {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.conn.WriteJSON(msg); err != nil {
					c.logger.Debug("websocket write failed", "error", err)
					return
				}
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", "error", err)
			}
			return
		}
		c.handle(ctx, msg)
	}
}

func (c *Client) handle(ctx context.Context, msg Message) {
	if msg.PollID == "" {
		c.Send(Message{Type: MessageError, Error: "pollId is required"})
		return
	}

	switch msg.Type {
	case MessageJoin:
		joinCtx, cancel := context.WithTimeout(ctx, joinTimeout)
		defer cancel()

		if err := c.hub.Join(joinCtx, msg.PollID, c); err != nil {
			errMsg := "failed to load results"
			if errors.Is(err, domain.ErrPollNotFound) {
				errMsg = domain.ErrPollNotFound.Error()
			} else {
				c.logger.Error("join failed", "poll_id", msg.PollID, "error", err)
			}
			c.Send(Message{Type: MessageError, PollID: msg.PollID, Error: errMsg})
		}
	case MessageLeave:
		c.hub.LeaveRoom(msg.PollID, c)
	default:
		c.Send(Message{Type: MessageError, PollID: msg.PollID, Error: "unknown message type"})
	}
}

// NewWebsocketHandler upgrades the request and serves the join/leave
// protocol until the peer disconnects.
func NewWebsocketHandler(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", "error", err)
			return
		}

		client := newClient(conn, hub, logger)
		go client.writePump()
		client.readPump(r.Context())
	}
}
