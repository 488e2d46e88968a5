package exchange

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"fxbot/internal/models"
)

func formatSize(size float64) string {
	return strconv.FormatFloat(size, 'f', -1, 64)
}

func formatPrice(px float64) string {
	return strconv.FormatFloat(px, 'f', -1, 64)
}

// CurrentPosition returns the net open position for the instrument.
// No rows or zero size means flat.
func (c *Client) CurrentPosition(ctx context.Context, instrument string) (models.Position, error) {
	var rows []struct {
		Pos     string `json:"pos"`
		PosSide string `json:"posSide"`
	}
	path := "/api/v5/account/positions?instId=" + url.QueryEscape(instrument)
	if err := c.doSigned(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return models.Position{}, err
	}
	if len(rows) == 0 {
		return models.Position{Side: models.PositionFlat}, nil
	}

	size, err := parseFloat("pos", rows[0].Pos)
	if err != nil {
		return models.Position{}, err
	}
	switch {
	case size > 0:
		return models.Position{Side: models.PositionLong, Size: size}, nil
	case size < 0:
		return models.Position{Side: models.PositionShort, Size: -size}, nil
	default:
		return models.Position{Side: models.PositionFlat}, nil
	}
}

// SubmitMarketOrder fires a plain market order. Used only to flatten an
// opposite position before a reversal entry; no fill confirmation is
// awaited (known race under partial fills).
func (c *Client) SubmitMarketOrder(ctx context.Context, instrument string, side models.Side, size float64, tif models.TimeInForce) error {
	if size <= 0 {
		return errors.Errorf("market order size must be positive: %v", size)
	}
	body := map[string]any{
		"instId":  instrument,
		"tdMode":  "cross",
		"side":    sideParam(side),
		"ordType": "market",
		"sz":      formatSize(size),
	}
	var rows []orderResult
	if err := c.doSigned(ctx, http.MethodPost, "/api/v5/trade/order", body, &rows); err != nil {
		return err
	}
	return checkOrderResult("market order", rows)
}

// SubmitBracketOrder places the entry limit with attached stop-loss and
// take-profit in a single request.
func (c *Client) SubmitBracketOrder(ctx context.Context, instrument string, order models.BracketOrder) error {
	body := map[string]any{
		"instId":  instrument,
		"tdMode":  "cross",
		"side":    sideParam(order.Side),
		"ordType": "limit",
		"px":      formatPrice(order.EntryPrice),
		"sz":      formatSize(order.Size),
		"attachAlgoOrds": []map[string]string{{
			"slTriggerPx":     formatPrice(order.StopLoss),
			"slOrdPx":         "-1",
			"slTriggerPxType": "last",
			"tpTriggerPx":     formatPrice(order.TakeProfit),
			"tpOrdPx":         "-1",
			"tpTriggerPxType": "last",
		}},
	}
	var rows []orderResult
	if err := c.doSigned(ctx, http.MethodPost, "/api/v5/trade/order", body, &rows); err != nil {
		return err
	}
	return checkOrderResult("bracket order", rows)
}

type orderResult struct {
	OrdID string `json:"ordId"`
	SCode string `json:"sCode"`
	SMsg  string `json:"sMsg"`
}

func checkOrderResult(what string, rows []orderResult) error {
	if len(rows) == 0 {
		return errors.Errorf("%s: empty venue response", what)
	}
	if rows[0].SCode != "0" {
		return errors.Errorf("%s reject: sCode=%s sMsg=%s", what, rows[0].SCode, rows[0].SMsg)
	}
	return nil
}

func sideParam(side models.Side) string {
	if side == models.SideSell {
		return "sell"
	}
	return "buy"
}

type historyRow struct {
	PosID  string `json:"posId"`
	Pnl    string `json:"pnl"`
	OpenPx string `json:"openAvgPx"`
	Pos    string `json:"closeTotalPos"`
	UTime  string `json:"uTime"`
}

// ClosedPositions lists closed round trips since inception, oldest first.
// Each row is decoded strictly; a malformed row fails the call rather
// than producing a defaulted record.
func (c *Client) ClosedPositions(ctx context.Context, instrument string) ([]models.ClosedPosition, error) {
	var rows []historyRow
	path := "/api/v5/account/positions-history?instId=" + url.QueryEscape(instrument)
	if err := c.doSigned(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]models.ClosedPosition, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- { // venue returns newest first
		row := rows[i]
		pnl, err := parseFloat("pnl", row.Pnl)
		if err != nil {
			return nil, err
		}
		ms, err := parseFloat("uTime", row.UTime)
		if err != nil {
			return nil, err
		}
		cp := models.ClosedPosition{
			ID:       row.PosID,
			Pnl:      pnl,
			ClosedAt: time.UnixMilli(int64(ms)).UTC(),
		}
		if row.OpenPx != "" && row.Pos != "" {
			px, err := parseFloat("openAvgPx", row.OpenPx)
			if err != nil {
				return nil, err
			}
			sz, err := parseFloat("closeTotalPos", row.Pos)
			if err != nil {
				return nil, err
			}
			cp.Notional = px * sz
		}
		out = append(out, cp)
	}
	return out, nil
}

// RealizedPnl sums pnl over closed positions for the instrument.
func (c *Client) RealizedPnl(ctx context.Context, instrument string) (float64, error) {
	closed, err := c.ClosedPositions(ctx, instrument)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, cp := range closed {
		total += cp.Pnl
	}
	return total, nil
}

// UnrealizedPnl reads the open position's mark-to-market pnl.
func (c *Client) UnrealizedPnl(ctx context.Context, instrument string) (float64, error) {
	var rows []struct {
		Upl string `json:"upl"`
	}
	path := "/api/v5/account/positions?instId=" + url.QueryEscape(instrument)
	if err := c.doSigned(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 || rows[0].Upl == "" {
		return 0, nil
	}
	return parseFloat("upl", rows[0].Upl)
}

// AccountBalance returns total account equity.
func (c *Client) AccountBalance(ctx context.Context) (float64, error) {
	var rows []struct {
		TotalEq string `json:"totalEq"`
	}
	if err := c.doSigned(ctx, http.MethodGet, "/api/v5/account/balance", nil, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, errors.New("balance: empty venue response")
	}
	return parseFloat("totalEq", rows[0].TotalEq)
}

// GetCandles fetches the most recent closed bars for warmup, oldest
// first. barParam is the venue timeframe string ("1m", "5m", ...).
func (c *Client) GetCandles(ctx context.Context, instrument, barParam string, limit int) ([]models.Bar, error) {
	var rows [][]string
	path := fmt.Sprintf("/api/v5/market/candles?instId=%s&bar=%s&limit=%d",
		url.QueryEscape(instrument), url.QueryEscape(barParam), limit)
	if err := c.doSigned(ctx, http.MethodGet, path, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Bar, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- { // newest first on the wire
		row := rows[i]
		if len(row) < 5 {
			return nil, errors.Errorf("candles: short row len=%d", len(row))
		}
		if len(row) >= 9 && row[8] != "1" {
			continue // unconfirmed bar
		}
		ms, err := parseFloat("ts", row[0])
		if err != nil {
			return nil, err
		}
		bar := models.Bar{Start: time.UnixMilli(int64(ms)).UTC()}
		if bar.Open, err = parseFloat("open", row[1]); err != nil {
			return nil, err
		}
		if bar.High, err = parseFloat("high", row[2]); err != nil {
			return nil, err
		}
		if bar.Low, err = parseFloat("low", row[3]); err != nil {
			return nil, err
		}
		if bar.Close, err = parseFloat("close", row[4]); err != nil {
			return nil, err
		}
		out = append(out, bar)
	}
	return out, nil
}
