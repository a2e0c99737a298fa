// Package client talks to the transport desk HTTP API and keeps the dispatcher session.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"transportdesk/internal/domain/models"

	"go.uber.org/zap"
)

const requesterTokenHeader = "X-Requester-Token"

// APIError is a non-2xx answer from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"error"`
	Redirect   string `json:"redirect"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s (%d %s)", msg, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("%s (%d)", msg, e.StatusCode)
}

// IsUnauthorized reports whether err means the caller must log in again.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// ErrNotLoggedIn is returned by dispatcher operations when no valid session is stored.
var ErrNotLoggedIn = errors.New("not logged in as dispatcher")

// NewRequest is the body of a new transport request.
type NewRequest struct {
	UnitName       string `json:"unitName"`
	PersonnelName  string `json:"personnelName"`
	PhoneNumber    string `json:"phoneNumber"`
	Notes          string `json:"notes,omitempty"`
	MissionDate    string `json:"missionDate,omitempty"`
	MissionTime    string `json:"missionTime,omitempty"`
	Destination    string `json:"destination,omitempty"`
	WithWheelchair bool   `json:"withWheelchair"`
	WithStretcher  bool   `json:"withStretcher"`
}

type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Sessions SessionStore
	Log      *zap.Logger
	Now      func() time.Time
}

func New(baseURL string, sessions SessionStore, log *zap.Logger) *Client {
	if sessions == nil {
		sessions = &MemorySessionStore{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{Timeout: 15 * time.Second},
		Sessions: sessions,
		Log:      log,
		Now:      time.Now,
	}
}

func (c *Client) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

// Login exchanges credentials for a session and persists it.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	var sess Session
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, nil, &sess); err != nil {
		return Session{}, err
	}
	if err := c.Sessions.Save(sess); err != nil {
		return sess, err
	}
	c.Log.Info("dispatcher session stored", zap.Time("expires_at", sess.ExpiresAt))
	return sess, nil
}

// Logout forgets the stored session. The server call is best effort.
func (c *Client) Logout(ctx context.Context) error {
	if state, sess, _ := CheckSession(c.Sessions, c.now()); state == SessionValid {
		if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, bearer(sess.Token), nil); err != nil {
			c.Log.Warn("logout call failed", zap.Error(err))
		}
	}
	return c.Sessions.Clear()
}

// Session reports the state of the stored session, clearing it once expired.
func (c *Client) Session() (SessionState, Session, error) {
	return CheckSession(c.Sessions, c.now())
}

func (c *Client) List(ctx context.Context) ([]models.TransportRequest, error) {
	var env struct {
		Data []models.TransportRequest `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/requests", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

func (c *Client) Get(ctx context.Context, id int64) (models.TransportRequest, error) {
	var env struct {
		Data models.TransportRequest `json:"data"`
	}
	err := c.do(ctx, http.MethodGet, requestPath(id), nil, nil, &env)
	return env.Data, err
}

// Create submits a request and returns it with the requester token needed to withdraw it.
func (c *Client) Create(ctx context.Context, in NewRequest) (models.TransportRequest, string, error) {
	var env struct {
		Data           models.TransportRequest `json:"data"`
		RequesterToken string                  `json:"requesterToken"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/requests", in, nil, &env); err != nil {
		return models.TransportRequest{}, "", err
	}
	return env.Data, env.RequesterToken, nil
}

// Transition sets the status of a request. Requires a dispatcher session.
func (c *Client) Transition(ctx context.Context, id int64, status models.Status) (models.TransportRequest, error) {
	headers, err := c.dispatcherHeaders()
	if err != nil {
		return models.TransportRequest{}, err
	}
	var env struct {
		Data models.TransportRequest `json:"data"`
	}
	err = c.do(ctx, http.MethodPatch, requestPath(id), map[string]string{"status": string(status)}, headers, &env)
	return env.Data, c.dropRejectedSession(err)
}

// Delete removes a request as dispatcher.
func (c *Client) Delete(ctx context.Context, id int64) error {
	headers, err := c.dispatcherHeaders()
	if err != nil {
		return err
	}
	return c.dropRejectedSession(c.do(ctx, http.MethodDelete, requestPath(id), nil, headers, nil))
}

// Withdraw deletes a still pending request with the token returned by Create.
func (c *Client) Withdraw(ctx context.Context, id int64, requesterToken string) error {
	return c.do(ctx, http.MethodDelete, requestPath(id), nil, map[string]string{requesterTokenHeader: requesterToken}, nil)
}

// TripSheet downloads the PDF trip sheet of an approved request.
func (c *Client) TripSheet(ctx context.Context, id int64) ([]byte, string, error) {
	headers, err := c.dispatcherHeaders()
	if err != nil {
		return nil, "", err
	}
	resp, err := c.send(ctx, http.MethodGet, requestPath(id)+"/trip-sheet", nil, headers)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, "", c.dropRejectedSession(readAPIError(resp))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read trip sheet: %w", err)
	}
	filename := fmt.Sprintf("trip-sheet-%d.pdf", id)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return data, filename, nil
}

func (c *Client) dispatcherHeaders() (map[string]string, error) {
	state, sess, err := CheckSession(c.Sessions, c.now())
	if err != nil {
		return nil, err
	}
	if state != SessionValid {
		return nil, ErrNotLoggedIn
	}
	return bearer(sess.Token), nil
}

// dropRejectedSession clears the stored session when the server refused it.
func (c *Client) dropRejectedSession(err error) error {
	if IsUnauthorized(err) {
		if clearErr := c.Sessions.Clear(); clearErr != nil {
			c.Log.Warn("failed to clear rejected session", zap.Error(clearErr))
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	resp, err := c.send(ctx, method, path, body, headers)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return readAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, headers map[string]string) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(data) > 0 {
		if err := json.Unmarshal(data, apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
	}
	apiErr.StatusCode = resp.StatusCode
	return apiErr
}

func requestPath(id int64) string {
	return "/api/requests/" + url.PathEscape(strconv.FormatInt(id, 10))
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}
