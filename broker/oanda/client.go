package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const PracticeURL = "https://api-fxpractice.oanda.com"

var ErrNotFound = errors.New("oanda: not found")

// Client talks to the v20 REST API.
type Client struct {
	BaseURL   string // e.g. https://api-fxpractice.oanda.com
	Token     string
	AccountID string
	HTTP      *http.Client
}

func BaseURL(env string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "demo", "":
		return PracticeURL, nil
	case "live":
		// return "https://api-fxtrade.oanda.com", nil
		return "", errors.New("oanda: live trading is not allowed")
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}

func NewClient(env, token, accountID string) (*Client, error) {
	base, err := BaseURL(env)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, errors.New("oanda: missing token")
	}
	return &Client{
		BaseURL:   base,
		Token:     token,
		AccountID: accountID,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// apiError is the v20 error body.
type apiError struct {
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}

// do sends a JSON request and decodes a 2xx response into out. Non-2xx
// responses are returned as errors carrying the body, with 404 wrapping
// ErrNotFound. body is returned raw for callers that inspect rejections.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) ([]byte, error) {
	if c.BaseURL == "" {
		return nil, errors.New("oanda: missing base url")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	u.Path = path
	u.RawQuery = query.Encode()

	var rd io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("oanda: encode %s: %w", path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Datetime-Format", "RFC3339")

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oanda %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode/100 != 2 {
		var ae apiError
		_ = json.Unmarshal(body, &ae)
		msg := ae.ErrorMessage
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		if resp.StatusCode == http.StatusNotFound {
			return body, fmt.Errorf("%w: %s %s: %s", ErrNotFound, method, path, msg)
		}
		return body, fmt.Errorf("oanda %s %s http %d: %s", method, path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return body, fmt.Errorf("oanda: decode %s: %w", path, err)
		}
	}
	return body, nil
}
