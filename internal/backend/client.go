package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// PrincipalHeader carries the identity-provider principal on directory calls
const PrincipalHeader = "X-Principal"

// Client is an HTTP client for the marketplace backend RPC surface
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new backend client
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

type loginAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginAdminResponse struct {
	Token string `json:"token"`
}

// LoginAdmin exchanges username and password for an opaque admin token
func (c *Client) LoginAdmin(ctx context.Context, username, password string) (string, error) {
	var resp loginAdminResponse
	err := c.call(ctx, "loginAdmin", callOpts{}, loginAdminRequest{Username: username, Password: password}, &resp)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
			return "", fmt.Errorf("%w: %s", ErrRejected, se.Message)
		}
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("loginAdmin returned an empty token")
	}
	return resp.Token, nil
}

// Connect returns an actor bound to token
func (c *Client) Connect(ctx context.Context, token string) (Conn, error) {
	return c.Actor(token)
}

// Actor returns the concrete token-bound actor with the full domain surface
func (c *Client) Actor(token string) (*Actor, error) {
	if token == "" {
		return nil, ErrNotReady
	}
	return &Actor{client: c, token: token}, nil
}

type profileResponse struct {
	Profile *Profile `json:"profile"`
}

// CallerProfile fetches the profile of an identity-provider user
func (c *Client) CallerProfile(ctx context.Context, principal string) (*Profile, error) {
	var resp profileResponse
	if err := c.call(ctx, "getCallerUserProfile", callOpts{principal: principal}, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Profile, nil
}

type roleResponse struct {
	Role Role `json:"role"`
}

// CallerRole fetches the marketplace role of an identity-provider user
func (c *Client) CallerRole(ctx context.Context, principal string) (Role, error) {
	var resp roleResponse
	if err := c.call(ctx, "getCallerUserRole", callOpts{principal: principal}, nil, &resp); err != nil {
		return "", err
	}
	return resp.Role, nil
}

type callOpts struct {
	token     string
	principal string
}

type errorResponse struct {
	Error string `json:"error"`
}

// call issues POST {baseURL}/rpc/{method} and decodes the JSON answer into out
func (c *Client) call(ctx context.Context, method string, opts callOpts, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		jsonData, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal %s request: %w", method, err)
		}
		body = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/rpc/%s", c.baseURL, method), body)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if opts.token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", opts.token))
	}
	if opts.principal != "" {
		req.Header.Set(PrincipalHeader, opts.principal)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		msg := strings.TrimSpace(string(raw))
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil && er.Error != "" {
			msg = er.Error
		}
		return &StatusError{Method: method, Code: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	return nil
}
