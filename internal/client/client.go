// Package client provides an HTTP client for the shepherd REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evcraddock/shepherd/internal/followup"
	"github.com/evcraddock/shepherd/internal/member"
	"github.com/evcraddock/shepherd/internal/validate"
)

// Client is an HTTP client for the shepherd API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is a non-2xx response that does not map to a domain error.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// CreateFollowUp creates a follow-up.
func (c *Client) CreateFollowUp(ctx context.Context, in followup.Input) (*followup.View, error) {
	var v followup.View
	if err := c.send(ctx, http.MethodPost, "/api/followups", followup.FormFrom(in), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetFollowUp returns a follow-up by ID.
func (c *Client) GetFollowUp(ctx context.Context, id string) (*followup.View, error) {
	var v followup.View
	if err := c.send(ctx, http.MethodGet, "/api/followups/"+url.PathEscape(id), nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// UpdateFollowUp replaces the writable fields of a follow-up.
func (c *Client) UpdateFollowUp(ctx context.Context, id string, in followup.Input) (*followup.View, error) {
	var v followup.View
	if err := c.send(ctx, http.MethodPut, "/api/followups/"+url.PathEscape(id), followup.FormFrom(in), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// DeleteFollowUp removes a follow-up.
func (c *Client) DeleteFollowUp(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/followups/"+url.PathEscape(id), nil, nil)
}

// ScheduleNext creates the follow-up that follow-up id asked for.
func (c *Client) ScheduleNext(ctx context.Context, id string) (*followup.View, error) {
	var v followup.View
	if err := c.send(ctx, http.MethodPost, "/api/followups/"+url.PathEscape(id)+"/next", nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListFollowUps returns one page of follow-ups matching f.
func (c *Client) ListFollowUps(ctx context.Context, f followup.Filter) (*followup.ListResult, error) {
	q := url.Values{}
	setIf := func(key, val string) {
		if val != "" {
			q.Set(key, val)
		}
	}
	setIf("search", f.Search)
	setIf("status", string(f.Status))
	setIf("priority", string(f.Priority))
	setIf("assigned_to_id", f.AssignedToID)
	setIf("member_id", f.MemberID)
	if f.Overdue {
		q.Set("overdue", "true")
	}
	if f.Skip != 0 {
		q.Set("skip", strconv.Itoa(f.Skip))
	}
	if f.Take != 0 {
		q.Set("take", strconv.Itoa(f.Take))
	}

	path := "/api/followups"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var res followup.ListResult
	if err := c.send(ctx, http.MethodGet, path, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Stats returns dashboard counts.
func (c *Client) Stats(ctx context.Context) (*followup.Stats, error) {
	var st followup.Stats
	if err := c.send(ctx, http.MethodGet, "/api/followups/stats", nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// AddMember adds a member to the directory.
func (c *Client) AddMember(ctx context.Context, m member.Member) (*member.Member, error) {
	var added member.Member
	if err := c.send(ctx, http.MethodPost, "/api/members", m, &added); err != nil {
		return nil, err
	}
	return &added, nil
}

// GetMember returns a member by ID.
func (c *Client) GetMember(ctx context.Context, id string) (*member.Member, error) {
	var m member.Member
	if err := c.send(ctx, http.MethodGet, "/api/members/"+url.PathEscape(id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListMembers returns members matching search.
func (c *Client) ListMembers(ctx context.Context, search string) ([]*member.Member, error) {
	path := "/api/members"
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}
	var members []*member.Member
	if err := c.send(ctx, http.MethodGet, path, nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// DeleteMember removes a member and their follow-ups.
func (c *Client) DeleteMember(ctx context.Context, id string) error {
	return c.send(ctx, http.MethodDelete, "/api/members/"+url.PathEscape(id), nil, nil)
}

// send performs a request with an optional JSON body and decodes the response.
func (c *Client) send(ctx context.Context, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// do executes an HTTP request and maps error responses back to domain errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("Closing response body failed", "error", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return responseError(req.URL.Path, resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

func responseError(path string, status int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
		Field string `json:"field"`
	}
	if json.Unmarshal(body, &errResp) != nil || errResp.Error == "" {
		errResp.Error = http.StatusText(status)
	}

	switch {
	case status == http.StatusBadRequest && errResp.Field != "":
		msg := strings.TrimPrefix(errResp.Error, errResp.Field+" ")
		return validate.Field(errResp.Field, msg)
	case status == http.StatusNotFound && strings.HasPrefix(path, "/api/members"):
		return notFound(errResp.Error, member.ErrNotFound)
	case status == http.StatusNotFound && strings.HasPrefix(path, "/api/followups"):
		return notFound(errResp.Error, followup.ErrNotFound)
	}
	return &APIError{StatusCode: status, Message: errResp.Error}
}

// notFound rewraps the server's message around the local sentinel.
func notFound(msg string, sentinel error) error {
	msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	return fmt.Errorf("%s: %w", msg, sentinel)
}
