// Package ws connects to a relay over WebSocket. The relay forwards binary
// frames between the host and the guest of a room.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/vovakirdan/duopong/internal/session"
	"github.com/vovakirdan/duopong/internal/transport"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
)

// Client is a Transport that dials a relay.
type Client struct {
	base   *url.URL
	dialer *websocket.Dialer
	logger *log.Logger
}

var _ transport.Transport = (*Client)(nil)

// NewClient creates a client for the relay at rawURL. http and https URLs
// are mapped to ws and wss. A nil logger discards output.
func NewClient(rawURL string, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("ws: parse relay url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("ws: unsupported relay scheme %q", u.Scheme)
	}
	u.Fragment = ""
	u.RawQuery = ""
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		base: u,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		logger: logger,
	}, nil
}

// RoomURL returns the WebSocket URL for a room and role.
func (c *Client) RoomURL(code session.RoomID, role session.Role) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/rooms/" + url.PathEscape(string(code))
	u.RawQuery = url.Values{"role": []string{role.String()}}.Encode()
	return u.String()
}

// Connect dials the relay. Handshake rejections are mapped to the transport
// errors.
func (c *Client) Connect(ctx context.Context, code session.RoomID, role session.Role) (transport.Conn, error) {
	if role != session.RoleHost && role != session.RoleGuest {
		return nil, fmt.Errorf("ws: cannot connect as %v", role)
	}

	target := c.RoomURL(code, role)
	ws, resp, err := c.dialer.DialContext(ctx, target, nil)
	if err != nil {
		if resp != nil {
			return nil, statusError(resp)
		}
		return nil, fmt.Errorf("ws: dial %s: %w", target, err)
	}

	conn := newConn(ws, c.logger.With("room", code, "role", role))
	c.logger.Debug("connected to relay", "url", target)
	return conn, nil
}

func statusError(resp *http.Response) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best effort
	text := strings.ToLower(string(body))

	switch resp.StatusCode {
	case http.StatusNotFound:
		return transport.ErrRoomNotFound
	case http.StatusConflict:
		if strings.Contains(text, "full") {
			return transport.ErrRoomFull
		}
		return transport.ErrRoomExists
	default:
		return fmt.Errorf("ws: relay rejected connection: %s", resp.Status)
	}
}

type conn struct {
	ws     *websocket.Conn
	logger *log.Logger

	transport.Dispatcher

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newConn(ws *websocket.Conn, logger *log.Logger) *conn {
	c := &conn{
		ws:     ws,
		logger: logger,
		done:   make(chan struct{}),
	}
	go c.readPump()
	go c.pingLoop()
	return c
}

func (c *conn) readPump() {
	defer c.shutdown()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck // reported by ReadMessage
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		typ, frame, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				err = transport.ErrPeerGone
			} else {
				c.logger.Debug("relay read failed", "err", err)
			}
			c.Disconnect(err)
			return
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		c.Deliver(frame)
	}
}

func (c *conn) pingLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(writeWait)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.logger.Debug("ping failed", "err", err)
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *conn) Send(frame []byte) error {
	if c.Closed() {
		return transport.ErrClosed
	}
	select {
	case <-c.done:
		return transport.ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck // reported by WriteMessage
	if err := c.ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		return fmt.Errorf("ws: send: %w", err)
	}
	return nil
}

func (c *conn) Close() error {
	if !c.MarkClosed() {
		return nil
	}
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
	err := c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
	c.writeMu.Unlock()
	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		c.logger.Debug("close message failed", "err", err)
	}
	c.shutdown()
	return nil
}

func (c *conn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close() //nolint:errcheck // already shutting down
	})
}
