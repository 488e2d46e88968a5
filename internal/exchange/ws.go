package exchange

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"fxbot/internal/models"
	"fxbot/pkg/logger"
)

// Connect dials the quote stream. Part of the controller's Connecting
// phase; a failure here is a connection failure, not retried locally.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		return nil
	}
	conn, _, err := c.wsDialer.DialContext(ctx, c.wsURL, nil)
	if err != nil {
		return errors.Wrapf(ErrConnection, "dial %s: %v", c.wsURL, err)
	}
	c.conn = conn
	return nil
}

// Subscribe registers for the instrument's ticker channel and starts the
// reader. The returned channel closes when the stream breaks or the
// subscription is cancelled; the controller decides what that means.
func (c *Client) Subscribe(ctx context.Context, instrument string) (<-chan models.Tick, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil, errors.Wrap(ErrConnection, "subscribe before connect")
	}
	if c.subscribed != "" {
		return nil, errors.Errorf("already subscribed to %s", c.subscribed)
	}

	sub := map[string]any{
		"op": "subscribe",
		"args": []map[string]string{
			{"channel": "tickers", "instId": instrument},
		},
	}
	if err := c.conn.WriteJSON(sub); err != nil {
		return nil, errors.Wrapf(ErrConnection, "subscribe %s: %v", instrument, err)
	}

	c.subscribed = instrument
	c.ticks = make(chan models.Tick, 1024)
	c.stopPing = make(chan struct{})

	// keepalive ping, the venue drops idle connections
	go c.pingLoop(c.conn, c.stopPing)
	go c.readLoop(ctx, c.conn, instrument, c.ticks)

	return c.ticks, nil
}

func (c *Client) pingLoop(conn *websocket.Conn, stop <-chan struct{}) {
	t := time.NewTicker(c.pingEvery)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			// the connection allows a single concurrent writer, so the
			// ping must serialize with subscribe/unsubscribe frames
			c.mu.Lock()
			if c.conn != conn {
				c.mu.Unlock()
				return
			}
			_ = conn.WriteJSON(map[string]string{"op": "ping"})
			c.mu.Unlock()
		}
	}
}

type tickerFrame struct {
	Arg struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data []struct {
		BidPx string `json:"bidPx"`
		AskPx string `json:"askPx"`
		Ts    string `json:"ts"`
	} `json:"data"`
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn, instrument string, out chan<- models.Tick) {
	defer close(out)
	for {
		var frame tickerFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() == nil {
				logger.Warn("quote stream %s read: %v", instrument, err)
			}
			return
		}
		if frame.Arg.Channel != "tickers" || frame.Arg.InstID != instrument || len(frame.Data) == 0 {
			continue
		}
		row := frame.Data[0]
		tick, err := decodeTick(row.BidPx, row.AskPx, row.Ts)
		if err != nil {
			logger.Warn("quote stream %s: %v", instrument, err)
			continue
		}
		select {
		case out <- tick:
		case <-ctx.Done():
			return
		}
	}
}

// decodeTick converts a ticker row. A one-sided book (empty bid or ask)
// yields a zero on that side; the aggregator drops such ticks.
func decodeTick(bidPx, askPx, ts string) (models.Tick, error) {
	var tick models.Tick
	ms, err := parseFloat("ts", ts)
	if err != nil {
		return tick, err
	}
	tick.Time = time.UnixMilli(int64(ms)).UTC()
	if bidPx != "" {
		if tick.Bid, err = parseFloat("bidPx", bidPx); err != nil {
			return tick, err
		}
	}
	if askPx != "" {
		if tick.Ask, err = parseFloat("askPx", askPx); err != nil {
			return tick, err
		}
	}
	return tick, nil
}

// CancelSubscription sends the unsubscribe op. Safe to call on any exit
// path, including before Subscribe succeeded.
func (c *Client) CancelSubscription() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil || c.subscribed == "" {
		return nil
	}
	unsub := map[string]any{
		"op": "unsubscribe",
		"args": []map[string]string{
			{"channel": "tickers", "instId": c.subscribed},
		},
	}
	err := c.conn.WriteJSON(unsub)
	c.subscribed = ""
	if c.stopPing != nil {
		close(c.stopPing)
		c.stopPing = nil
	}
	if err != nil {
		return errors.Wrapf(ErrConnection, "unsubscribe: %v", err)
	}
	return nil
}

// Disconnect closes the quote stream connection. Idempotent.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopPing != nil {
		close(c.stopPing)
		c.stopPing = nil
	}
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	c.subscribed = ""
	return err
}
