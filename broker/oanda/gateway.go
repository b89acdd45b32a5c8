package oanda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rustyeddy/supertrend/broker"
	"github.com/rustyeddy/supertrend/market"
)

// Gateway places market orders on one OANDA account. Positions are OANDA
// trades; the owning label is kept in the trade's client extension tag.
type Gateway struct {
	Client *Client
	Meta   market.InstrumentMeta

	mu        sync.Mutex
	lastClose float64
}

func NewGateway(c *Client, meta market.InstrumentMeta) (*Gateway, error) {
	if c == nil {
		return nil, errors.New("oanda: nil client")
	}
	if c.AccountID == "" {
		return nil, errors.New("oanda: missing account id")
	}
	if meta.Name == "" {
		return nil, errors.New("oanda: missing instrument")
	}
	return &Gateway{Client: c, Meta: meta}, nil
}

// UpdateBar remembers the last close, used to place take-profit prices.
func (g *Gateway) UpdateBar(b market.Bar) error {
	g.mu.Lock()
	g.lastClose = b.Close
	g.mu.Unlock()
	return nil
}

type clientExtensions struct {
	ID      string `json:"id,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Comment string `json:"comment,omitempty"`
}

type stopLossDetails struct {
	Distance string `json:"distance"`
}

type takeProfitDetails struct {
	Price string `json:"price"`
}

type marketOrder struct {
	Type                  string             `json:"type"`
	Instrument            string             `json:"instrument"`
	Units                 string             `json:"units"`
	TimeInForce           string             `json:"timeInForce"`
	PositionFill          string             `json:"positionFill"`
	StopLossOnFill        *stopLossDetails   `json:"stopLossOnFill,omitempty"`
	TakeProfitOnFill      *takeProfitDetails `json:"takeProfitOnFill,omitempty"`
	TradeClientExtensions *clientExtensions  `json:"tradeClientExtensions,omitempty"`
}

type transaction struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Reason      string    `json:"reason"`
	Time        time.Time `json:"time"`
	Price       string    `json:"price"`
	PL          string    `json:"pl"`
	Financing   string    `json:"financing"`
	Commission  string    `json:"commission"`
	TradeOpened *struct {
		TradeID string `json:"tradeID"`
		Units   string `json:"units"`
		Price   string `json:"price"`
	} `json:"tradeOpened"`
}

type orderResponse struct {
	OrderFillTransaction   *transaction `json:"orderFillTransaction"`
	OrderCancelTransaction *transaction `json:"orderCancelTransaction"`
	OrderRejectTransaction *transaction `json:"orderRejectTransaction"`
	ErrorMessage           string       `json:"errorMessage"`
}

func (g *Gateway) SubmitMarketOrder(ctx context.Context, req broker.OrderRequest) (broker.OrderFill, error) {
	if err := req.Validate(); err != nil {
		return broker.OrderFill{}, err
	}
	if req.Instrument != g.Meta.Name {
		return broker.OrderFill{}, fmt.Errorf("%w: gateway trades %s, not %s", broker.ErrOrderRejected, g.Meta.Name, req.Instrument)
	}

	pip := g.Meta.PipSize()
	order := marketOrder{
		Type:         "MARKET",
		Instrument:   req.Instrument,
		Units:        g.formatUnits(req.Side.Sign() * req.Units),
		TimeInForce:  "FOK",
		PositionFill: "DEFAULT",
		StopLossOnFill: &stopLossDetails{
			Distance: g.formatPrice(req.StopLossPips * pip),
		},
		TradeClientExtensions: &clientExtensions{Tag: req.Label},
	}

	// v20 take profit is a price, placed from the last seen close. A target
	// that would be at or below zero is left off.
	g.mu.Lock()
	ref := g.lastClose
	g.mu.Unlock()
	if ref > 0 && req.TakeProfitPips > 0 {
		if tp := ref + req.Side.Sign()*req.TakeProfitPips*pip; tp > 0 {
			order.TakeProfitOnFill = &takeProfitDetails{Price: g.formatPrice(tp)}
		}
	}

	var resp orderResponse
	path := fmt.Sprintf("/v3/accounts/%s/orders", g.Client.AccountID)
	body, err := g.Client.do(ctx, "POST", path, nil, map[string]any{"order": order}, &resp)
	if err != nil {
		// 400/404 bodies carry the reject transaction.
		if len(body) > 0 && json.Unmarshal(body, &resp) == nil && resp.OrderRejectTransaction != nil {
			return broker.OrderFill{}, fmt.Errorf("%w: %s", broker.ErrOrderRejected, resp.OrderRejectTransaction.Reason)
		}
		return broker.OrderFill{}, err
	}

	if c := resp.OrderCancelTransaction; c != nil {
		return broker.OrderFill{}, fmt.Errorf("%w: %s", broker.ErrOrderRejected, c.Reason)
	}
	fill := resp.OrderFillTransaction
	if fill == nil || fill.TradeOpened == nil {
		return broker.OrderFill{}, fmt.Errorf("%w: no trade opened", broker.ErrOrderRejected)
	}

	price, _ := strconv.ParseFloat(fill.TradeOpened.Price, 64)
	if price == 0 {
		price, _ = strconv.ParseFloat(fill.Price, 64)
	}
	units, _ := strconv.ParseFloat(fill.TradeOpened.Units, 64)

	return broker.OrderFill{
		PositionID: fill.TradeOpened.TradeID,
		Instrument: req.Instrument,
		Side:       req.Side,
		Units:      math.Abs(units),
		Price:      price,
		Time:       fill.Time,
	}, nil
}

type openTrade struct {
	ID               string           `json:"id"`
	Instrument       string           `json:"instrument"`
	Price            string           `json:"price"`
	OpenTime         time.Time        `json:"openTime"`
	CurrentUnits     string           `json:"currentUnits"`
	UnrealizedPL     string           `json:"unrealizedPL"`
	ClientExtensions clientExtensions `json:"clientExtensions"`
	StopLossOrder    *struct {
		Price    string `json:"price"`
		Distance string `json:"distance"`
	} `json:"stopLossOrder"`
	TakeProfitOrder *struct {
		Price string `json:"price"`
	} `json:"takeProfitOrder"`
}

// Positions lists the account's open trades on the gateway instrument whose
// tag is label. An empty label returns all of them.
func (g *Gateway) Positions(ctx context.Context, label string) ([]broker.Position, error) {
	var resp struct {
		Trades []openTrade `json:"trades"`
	}
	path := fmt.Sprintf("/v3/accounts/%s/openTrades", g.Client.AccountID)
	if _, err := g.Client.do(ctx, "GET", path, nil, nil, &resp); err != nil {
		return nil, err
	}

	pip := g.Meta.PipSize()
	var out []broker.Position
	for _, t := range resp.Trades {
		if t.Instrument != g.Meta.Name {
			continue
		}
		if label != "" && t.ClientExtensions.Tag != label {
			continue
		}
		units, err := strconv.ParseFloat(t.CurrentUnits, 64)
		if err != nil {
			return nil, fmt.Errorf("oanda: trade %s units %q: %w", t.ID, t.CurrentUnits, err)
		}
		entry, _ := strconv.ParseFloat(t.Price, 64)
		pl, _ := strconv.ParseFloat(t.UnrealizedPL, 64)

		p := broker.Position{
			ID:         t.ID,
			Instrument: t.Instrument,
			Label:      t.ClientExtensions.Tag,
			Side:       market.Long,
			Units:      math.Abs(units),
			EntryPrice: entry,
			OpenTime:   t.OpenTime,
			NetProfit:  pl,
		}
		if units < 0 {
			p.Side = market.Short
		}
		if sl := t.StopLossOrder; sl != nil {
			if d, err := strconv.ParseFloat(sl.Distance, 64); err == nil && d > 0 {
				p.StopLossPips = d / pip
			} else if px, err := strconv.ParseFloat(sl.Price, 64); err == nil && px > 0 {
				p.StopLossPips = math.Abs(entry-px) / pip
			}
		}
		if tp := t.TakeProfitOrder; tp != nil {
			if px, err := strconv.ParseFloat(tp.Price, 64); err == nil && px > 0 {
				p.TakeProfitPips = math.Abs(px-entry) / pip
			}
		}
		out = append(out, p)
	}
	// v20 lists newest first.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// ClosePosition closes the whole trade. The realized P/L includes
// financing; v20 reports commission as a positive charge.
func (g *Gateway) ClosePosition(ctx context.Context, positionID string) (broker.CloseReport, error) {
	var resp orderResponse
	path := fmt.Sprintf("/v3/accounts/%s/trades/%s/close", g.Client.AccountID, url.PathEscape(positionID))
	_, err := g.Client.do(ctx, "PUT", path, nil, map[string]string{"units": "ALL"}, &resp)
	if errors.Is(err, ErrNotFound) {
		return broker.CloseReport{}, fmt.Errorf("%w: %s", broker.ErrPositionNotFound, positionID)
	}
	if err != nil {
		return broker.CloseReport{}, err
	}
	if c := resp.OrderCancelTransaction; c != nil {
		return broker.CloseReport{}, fmt.Errorf("%w: close %s: %s", broker.ErrOrderRejected, positionID, c.Reason)
	}
	fill := resp.OrderFillTransaction
	if fill == nil {
		return broker.CloseReport{}, fmt.Errorf("%w: close %s: no fill", broker.ErrOrderRejected, positionID)
	}

	price, _ := strconv.ParseFloat(fill.Price, 64)
	return broker.CloseReport{
		PositionID: positionID,
		Price:      price,
		Time:       fill.Time,
		NetProfit:  num(fill.PL) + num(fill.Financing) - num(fill.Commission),
	}, nil
}

// num parses an optional decimal field; missing is zero.
func num(s string) float64 {
	v, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v
}

func (g *Gateway) formatUnits(u float64) string {
	return strconv.FormatFloat(u, 'f', g.Meta.TradeUnitsPrecision, 64)
}

// formatPrice renders to one digit past the pip.
func (g *Gateway) formatPrice(p float64) string {
	prec := -g.Meta.PipLocation + 1
	if prec < 0 {
		prec = 0
	}
	return strconv.FormatFloat(p, 'f', prec, 64)
}
