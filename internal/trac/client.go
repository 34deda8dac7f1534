package trac

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tktflow/tkt/internal/types"
)

// Client talks to a Trac instance through its JSON-RPC endpoint
// (typically <base>/jsonrpc, or <base>/login/jsonrpc when authenticated).
type Client struct {
	URL        string
	Username   string
	Token      string
	HTTPClient *http.Client
}

// NewClient creates a Trac client for the given endpoint URL.
func NewClient(url, username, token string) *Client {
	return &Client{
		URL:      strings.TrimSuffix(url, "/"),
		Username: username,
		Token:    token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RPCError is an application-level error returned by the tracker's RPC
// endpoint (as opposed to a transport failure).
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("tracker RPC error %d: %s", e.Code, e.Message)
}

// CreateTicket implements Tracker.
func (c *Client) CreateTicket(ctx context.Context, summary, description string) (types.TicketID, error) {
	var id int
	err := c.call(ctx, "ticket.create", []interface{}{summary, description, map[string]string{}}, &id)
	if err != nil {
		return 0, fmt.Errorf("create ticket: %w", err)
	}
	return types.TicketID(id), nil
}

// ExistsTicket implements Tracker. A "ticket does not exist" RPC error maps
// to (false, nil); anything else is a tracker failure.
func (c *Client) ExistsTicket(ctx context.Context, ticket types.TicketID) (bool, error) {
	_, err := c.Attributes(ctx, ticket)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) && strings.Contains(strings.ToLower(rpcErr.Message), "does not exist") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Attributes implements Tracker. Trac's ticket.get returns
// [id, time_created, time_changed, attributes].
func (c *Client) Attributes(ctx context.Context, ticket types.TicketID) (map[string]string, error) {
	var result []json.RawMessage
	if err := c.call(ctx, "ticket.get", []interface{}{int(ticket)}, &result); err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", ticket, err)
	}
	if len(result) < 4 {
		return nil, fmt.Errorf("get ticket %s: malformed response (%d elements)", ticket, len(result))
	}
	var attrs map[string]string
	if err := json.Unmarshal(result[3], &attrs); err != nil {
		return nil, fmt.Errorf("get ticket %s: parse attributes: %w", ticket, err)
	}
	return attrs, nil
}

// UpdateAttributes implements Tracker.
func (c *Client) UpdateAttributes(ctx context.Context, ticket types.TicketID, comment string, attrs map[string]string) error {
	current, err := c.Attributes(ctx, ticket)
	if err != nil {
		return err
	}
	for key, value := range attrs {
		current[key] = value
	}
	// notify=false: attribute bookkeeping should not trigger e-mail.
	params := []interface{}{int(ticket), comment, current, false}
	if err := c.call(ctx, "ticket.update", params, nil); err != nil {
		return fmt.Errorf("update ticket %s: %w", ticket, err)
	}
	return nil
}

// AddComment implements Tracker.
func (c *Client) AddComment(ctx context.Context, ticket types.TicketID, comment string) error {
	params := []interface{}{int(ticket), comment, map[string]string{}, true}
	if err := c.call(ctx, "ticket.update", params, nil); err != nil {
		return fmt.Errorf("comment on ticket %s: %w", ticket, err)
	}
	return nil
}

type rpcRequest struct {
	Method string        `json:"method"`
	Params []interface{} `json:"params"`
	ID     int           `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
}

// call performs one JSON-RPC round trip, decoding the result into out when
// out is non-nil.
func (c *Client) call(ctx context.Context, method string, params []interface{}, out interface{}) error {
	if c.URL == "" {
		return fmt.Errorf("tracker URL not configured")
	}

	payload, err := json.Marshal(rpcRequest{Method: method, Params: params, ID: 1})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Username != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.Username + ":" + c.Token))
		req.Header.Set("Authorization", "Basic "+auth)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("tracker request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read tracker response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("tracker returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("parse tracker response: %w", err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if out != nil {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return fmt.Errorf("parse %s result: %w", method, err)
		}
	}
	return nil
}
