package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// ErrNotAuthenticated is returned when no valid session exists. A 401 from
// the server clears the stored session before returning it.
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is a non-2xx response from the server
type APIError struct {
	Status  int
	Message string
	Issues  map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Issues) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	fields := make([]string, 0, len(e.Issues))
	for field := range e.Issues {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(e.Issues[field], ", ")))
	}
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// Client calls the work log API on behalf of the session in its store
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

func New(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Login authenticates and stores the resulting session
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	body := map[string]string{"username": username, "password": password}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", false, body, &s); err != nil {
		return nil, err
	}
	if err := c.store.Set(s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Logout forgets the stored session. Tokens are stateless, so the server
// is not contacted.
func (c *Client) Logout() error {
	return c.store.Clear()
}

// Session returns the stored session
func (c *Client) Session() (Session, error) {
	s, err := c.store.Get()
	if errors.Is(err, ErrNoSession) {
		return Session{}, ErrNotAuthenticated
	}
	return s, err
}

// Me returns the identity the server sees for the stored token
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", true, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Projects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/api/projects", true, nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

func (c *Client) CreateProject(ctx context.Context, name string) (*Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodPost, "/api/projects", true, map[string]string{"name": name}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Users(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/api/users", true, nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (c *Client) CreateUser(ctx context.Context, u NewUser) (*User, error) {
	var created User
	if err := c.do(ctx, http.MethodPost, "/api/users", true, u, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) WorkLogs(ctx context.Context, f Filter) ([]WorkLog, error) {
	var logs []WorkLog
	if err := c.do(ctx, http.MethodGet, "/api/work-logs"+f.query(), true, nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// CreateWorkLog records hours, defaulting UserID to the session's user
func (c *Client) CreateWorkLog(ctx context.Context, wl NewWorkLog) (*WorkLog, error) {
	if wl.UserID == "" {
		s, err := c.Session()
		if err != nil {
			return nil, err
		}
		wl.UserID = s.User.ID
	}
	var created WorkLog
	if err := c.do(ctx, http.MethodPost, "/api/work-logs", true, wl, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) DeleteWorkLog(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/work-logs/"+url.PathEscape(id), true, nil, nil)
}

// ExportWorkLogs returns the XML timesheet for f
func (c *Client) ExportWorkLogs(ctx context.Context, f Filter) ([]byte, error) {
	resp, err := c.send(ctx, http.MethodGet, "/api/work-logs/export"+f.query(), true, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, body, out any) error {
	resp, err := c.send(ctx, method, path, auth, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs the request and returns the response only for 2xx statuses
func (c *Client) send(ctx context.Context, method, path string, auth bool, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		s, err := c.Session()
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	if auth && resp.StatusCode == http.StatusUnauthorized {
		if err := c.store.Clear(); err != nil {
			return nil, err
		}
		return nil, ErrNotAuthenticated
	}
	return nil, decodeAPIError(resp)
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
		Issues  struct {
			FieldErrors map[string][]string `json:"fieldErrors"`
		} `json:"issues"`
	}
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Message != "" {
		apiErr.Message = body.Message
		apiErr.Issues = body.Issues.FieldErrors
	}
	return apiErr
}

func (f Filter) query() string {
	v := url.Values{}
	for key, val := range map[string]string{"from": f.From, "to": f.To, "projectId": f.ProjectID, "userId": f.UserID} {
		if val != "" {
			v.Set(key, val)
		}
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}
