// Package remote reaches a rules oracle running as a sidecar process
// over plain JSON/HTTP. The oracle owns the game; this client only
// ferries blobs back and forth.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	apperrors "ludarena/errors"
	"ludarena/rules"

	"ludarena/domain"
)

const dialAttempts = 20
const dialInterval = 500 * time.Millisecond

type Client struct {
	base       string
	httpClient *http.Client
	log        *slog.Logger
}

type applyRequest struct {
	State json.RawMessage `json:"state"`
	Move  string          `json:"move"`
}

type applyResponse struct {
	Accepted bool            `json:"accepted"`
	NewState json.RawMessage `json:"newState,omitempty"`
	Terminal bool            `json:"isTerminal,omitempty"`
	Outcome  string          `json:"outcome,omitempty"`
}

type initialResponse struct {
	State json.RawMessage `json:"state"`
}

func NewClient(baseURL string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		base:       baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Dial probes the oracle's health endpoint until it answers, to handle
// sidecar startup latency. Mirrors how slow-booting companion processes
// are awaited elsewhere in the system.
func (c *Client) Dial(ctx context.Context) error {
	for i := 0; i < dialAttempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
		if err != nil {
			return err
		}
		resp, err := c.httpClient.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(dialInterval):
		}
	}
	return fmt.Errorf("%w: no answer at %s after %d attempts", apperrors.ErrOracleUnreachable, c.base, dialAttempts)
}

func (c *Client) Initial(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/initial", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrOracleUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %s", apperrors.ErrOracleUnreachable, resp.Status)
	}
	var out initialResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode oracle answer: %w", err)
	}
	return out.State, nil
}

func (c *Client) Apply(ctx context.Context, state []byte, move string) (rules.Verdict, error) {
	body, err := json.Marshal(applyRequest{State: state, Move: move})
	if err != nil {
		return rules.Verdict{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/apply", bytes.NewReader(body))
	if err != nil {
		return rules.Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return rules.Verdict{}, fmt.Errorf("%w: %v", apperrors.ErrOracleUnreachable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return rules.Verdict{}, fmt.Errorf("%w: status %s", apperrors.ErrOracleUnreachable, resp.Status)
	}

	var out applyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return rules.Verdict{}, fmt.Errorf("decode oracle answer: %w", err)
	}
	return rules.Verdict{
		Accepted: out.Accepted,
		NewState: out.NewState,
		Terminal: out.Terminal,
		Outcome:  domain.Outcome(out.Outcome),
	}, nil
}
