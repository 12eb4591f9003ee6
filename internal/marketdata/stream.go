package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sweepguard/internal/domain/models"

	"github.com/gorilla/websocket"
)

// WSTickStream implements repository.TickStream over a quote WebSocket.
type WSTickStream struct {
	url            string
	apiKey         string
	symbol         string
	reconnectDelay time.Duration
	pingInterval   time.Duration

	conn      *websocket.Conn
	connected bool
}

func NewWSTickStream(url, apiKey, symbol string, reconnectDelay, pingInterval time.Duration) *WSTickStream {
	if pingInterval <= 0 {
		pingInterval = 15 * time.Second
	}
	if reconnectDelay <= 0 {
		reconnectDelay = 5 * time.Second
	}
	return &WSTickStream{
		url:            url,
		apiKey:         apiKey,
		symbol:         symbol,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
	}
}

// Connect establishes the WebSocket connection and subscribes the symbol.
func (c *WSTickStream) Connect(ctx context.Context) error {
	u := c.url
	if c.apiKey != "" {
		u = fmt.Sprintf("%s?token=%s", c.url, c.apiKey)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return fmt.Errorf("tick stream connect: %w", err)
	}
	c.conn = conn
	c.connected = true

	msg := map[string]string{"type": "subscribe", "symbol": c.symbol}
	if err := c.conn.WriteJSON(msg); err != nil {
		c.connected = false
		_ = conn.Close()
		return fmt.Errorf("subscribe %s: %w", c.symbol, err)
	}
	return nil
}

type wsQuote struct {
	S string  `json:"s"`
	B float64 `json:"b"`
	A float64 `json:"a"`
	P float64 `json:"p"`
	V float64 `json:"v"`
	T int64   `json:"t"` // ms
}

type wsMessage struct {
	Type string    `json:"type"`
	Data []wsQuote `json:"data"`
}

// Read streams ticks and errors. The tick channel drops on backpressure so
// a slow consumer never stalls the socket.
func (c *WSTickStream) Read(ctx context.Context) (<-chan models.Tick, <-chan error) {
	ticks := make(chan models.Tick, 1024)
	errs := make(chan error, 1)

	// ping loop
	go func() {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if c.conn != nil {
					_ = c.conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}
	}()

	// read loop
	go func() {
		defer close(ticks)
		defer close(errs)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				if c.conn == nil {
					errs <- fmt.Errorf("tick stream conn nil")
					return
				}
				_, b, err := c.conn.ReadMessage()
				if err != nil {
					errs <- fmt.Errorf("tick stream read: %w", err)
					return
				}
				var m wsMessage
				if err := json.Unmarshal(b, &m); err != nil {
					// ignore non-quote frames
					continue
				}
				if m.Type != "quote" {
					continue
				}
				for _, d := range m.Data {
					if d.S != c.symbol {
						continue
					}
					tick := models.Tick{
						Time:   time.UnixMilli(d.T).UTC(),
						Bid:    d.B,
						Ask:    d.A,
						Last:   d.P,
						Volume: d.V,
					}
					select {
					case ticks <- tick:
					default:
						// drop on backpressure
					}
				}
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and re-establishes the subscription.
func (c *WSTickStream) Reconnect(ctx context.Context) error {
	_ = c.Close()
	time.Sleep(c.reconnectDelay)
	return c.Connect(ctx)
}

// Close closes the WS connection.
func (c *WSTickStream) Close() error {
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// IsConnected indicates status.
func (c *WSTickStream) IsConnected() bool { return c.connected }
