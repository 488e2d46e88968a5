// Package exchange implements the venue client: signed REST for orders
// and account state plus a websocket quote stream.
package exchange

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"fxbot/internal/models"
)

const (
	defaultBaseURL = "https://www.okx.com"
	defaultWSURL   = "wss://ws.okx.com:8443/ws/v5/public"
)

type Client struct {
	apiKey    string
	apiSecret string
	passph    string

	baseURL string
	wsURL   string

	http      *http.Client
	wsDialer  *websocket.Dialer
	pingEvery time.Duration

	mu         sync.Mutex
	conn       *websocket.Conn
	subscribed string
	ticks      chan models.Tick
	stopPing   chan struct{}
}

func NewClient() *Client {
	return &Client{
		baseURL:   defaultBaseURL,
		wsURL:     defaultWSURL,
		http:      &http.Client{Timeout: 10 * time.Second},
		wsDialer:  websocket.DefaultDialer,
		pingEvery: 20 * time.Second,
	}
}

func (c *Client) SetCreds(key, secret, passphrase string) {
	c.apiKey = key
	c.apiSecret = secret
	c.passph = passphrase
}

// SetEndpoints overrides the venue URLs; used by tests and staging.
func (c *Client) SetEndpoints(baseURL, wsURL string) {
	if baseURL != "" {
		c.baseURL = baseURL
	}
	if wsURL != "" {
		c.wsURL = wsURL
	}
}

func (c *Client) sign(ts, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(ts + method + requestPath + body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// envelope is the common REST response wrapper.
type envelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

// doSigned performs one signed REST call and decodes the data array into
// out. Malformed or rejecting responses come back as errors; nothing is
// silently defaulted at this boundary.
func (c *Client) doSigned(ctx context.Context, method, requestPath string, body any, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = sonic.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
	}

	ts := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	sign := c.sign(ts, method, requestPath, string(payload))

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+requestPath, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "new request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("OK-ACCESS-KEY", c.apiKey)
	req.Header.Set("OK-ACCESS-SIGN", sign)
	req.Header.Set("OK-ACCESS-TIMESTAMP", ts)
	req.Header.Set("OK-ACCESS-PASSPHRASE", c.passph)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(ErrConnection, "%s %s: %v", method, requestPath, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(ErrConnection, "read %s: %v", requestPath, err)
	}
	if resp.StatusCode/100 != 2 {
		return errors.Errorf("%s http %d: %s", requestPath, resp.StatusCode, string(data))
	}

	var env envelope
	if err := sonic.Unmarshal(data, &env); err != nil {
		return errors.Wrapf(err, "decode %s", requestPath)
	}
	if env.Code != "0" {
		return errors.Errorf("%s venue error: code=%s msg=%s", requestPath, env.Code, env.Msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := sonic.Unmarshal(env.Data, out); err != nil {
			return errors.Wrapf(err, "decode %s data", requestPath)
		}
	}
	return nil
}

// parseFloat rejects malformed venue numerics instead of defaulting.
func parseFloat(field, v string) (float64, error) {
	if v == "" {
		return 0, errors.Errorf("venue sent empty %s", field)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "venue sent malformed %s=%q", field, v)
	}
	return f, nil
}
