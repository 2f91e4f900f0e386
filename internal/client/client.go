// Package client talks to the storefront API on behalf of a front end. Every
// call takes the session token explicitly; the client keeps no shared
// authorization state.
package client

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

	"github.com/google/uuid"
)

const (
	defaultPathPrefix = "/api/v1/auth"
	defaultTimeout    = 10 * time.Second
)

// APIError is returned for non-2xx responses.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client is a storefront API client.
type Client struct {
	baseURL    string
	pathPrefix string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPathPrefix overrides the route prefix of the auth API.
func WithPathPrefix(prefix string) Option {
	return func(c *Client) { c.pathPrefix = "/" + strings.Trim(prefix, "/") }
}

// New returns a Client for the API served at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		pathPrefix: defaultPathPrefix,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// User is the public view of an account.
type User struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
	Role    int       `json:"role"`
}

// IsAdmin reports whether the account holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == 1
}

// RegisterInput is the registration payload.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Answer   string `json:"answer"`
}

// LoginResult carries the issued token and the account.
type LoginResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Product is a product reference inside an order.
type Product struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Slug  string    `json:"slug"`
	Price float64   `json:"price"`
}

// Order is an order as returned by the order listings.
type Order struct {
	ID       uuid.UUID `json:"id"`
	Products []Product `json:"products"`
	Payment  struct {
		Success   bool   `json:"success"`
		Reference string `json:"reference"`
	} `json:"payment"`
	Buyer *struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	} `json:"buyer"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", "", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserAuth asks the server whether token is a valid session.
func (c *Client) UserAuth(ctx context.Context, token string) (bool, error) {
	return c.checkAuth(ctx, "/user-auth", token)
}

// AdminAuth asks the server whether token belongs to an admin.
func (c *Client) AdminAuth(ctx context.Context, token string) (bool, error) {
	return c.checkAuth(ctx, "/admin-auth", token)
}

// Orders lists the orders of the token's owner.
func (c *Client) Orders(ctx context.Context, token string) ([]Order, error) {
	var out []Order
	if err := c.do(ctx, http.MethodGet, "/orders", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateOrderStatus sets an order's status. The token must belong to an admin.
// A nil order with a nil error means the server knows no such order.
func (c *Client) UpdateOrderStatus(ctx context.Context, token string, orderID uuid.UUID, status string) (*Order, error) {
	var out *Order
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPut, "/order-status/"+orderID.String(), token, body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) checkAuth(ctx context.Context, path, token string) (bool, error) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return false, err
	}
	return out.OK, nil
}

// do performs one request. token, when non-empty, is attached to this
// request only.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+c.pathPrefix+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Message = envelope.Message
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
