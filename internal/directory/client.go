package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"kittycore/internal/domain"
)

// Client talks to the coordinator's REST API. It holds the session
// token after Login and attaches it to every subsequent request.
type Client struct {
	base string
	http *http.Client

	mu    sync.RWMutex
	token domain.SessionToken
}

var _ domain.Directory = (*Client)(nil)

// New returns a client for the coordinator at base, e.g.
// "http://localhost:4000". A nil httpClient uses http.DefaultClient.
func New(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: strings.TrimRight(base, "/"), http: httpClient}
}

// SetToken installs a previously minted session token, letting a CLI
// invocation resume a session without logging in again.
func (c *Client) SetToken(token domain.SessionToken) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token.
func (c *Client) Token() domain.SessionToken {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// WebsocketURL derives the live transport endpoint, carrying the
// session token as a query parameter.
func (c *Client) WebsocketURL() (string, error) {
	u, err := url.Parse(c.base)
	if err != nil {
		return "", errors.Wrap(err, "parse server url")
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws"
	u.RawQuery = url.Values{"token": {c.Token().String()}}.Encode()
	return u.String(), nil
}

// Register creates an account and returns its server-assigned id.
func (c *Client) Register(ctx context.Context, name, password string) (domain.UserID, error) {
	var resp struct {
		UserID domain.UserID `json:"userId"`
	}
	body := map[string]string{"name": name, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/users", body, &resp); err != nil {
		return "", err
	}
	return resp.UserID, nil
}

// Login authenticates and stores the minted session token on the
// client.
func (c *Client) Login(ctx context.Context, name, password string) (domain.SessionToken, domain.UserID, error) {
	var resp struct {
		Token  domain.SessionToken `json:"token"`
		UserID domain.UserID       `json:"userId"`
	}
	body := map[string]string{"name": name, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", body, &resp); err != nil {
		return "", "", err
	}
	c.SetToken(resp.Token)
	return resp.Token, resp.UserID, nil
}

// SetPublicKey publishes the caller's static public key.
func (c *Client) SetPublicKey(ctx context.Context, pub domain.X25519Public) error {
	body := map[string]domain.X25519Public{"publicKey": pub}
	return c.do(ctx, http.MethodPut, "/api/users/me/key", body, nil)
}

// PublicKey fetches the published static key of user.
func (c *Client) PublicKey(ctx context.Context, user domain.UserID) (domain.X25519Public, error) {
	var resp struct {
		PublicKey domain.X25519Public `json:"publicKey"`
	}
	err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(user.String())+"/key", nil, &resp)
	return resp.PublicKey, err
}

// CreateOrGetRoom resolves the unique room with peer and returns the
// peer's static key alongside, saving a second round trip before the
// first encrypt.
func (c *Client) CreateOrGetRoom(ctx context.Context, peer domain.UserID) (domain.RoomID, domain.X25519Public, error) {
	var resp struct {
		RoomID        domain.RoomID       `json:"roomId"`
		PeerPublicKey domain.X25519Public `json:"peerPublicKey"`
	}
	body := map[string]domain.UserID{"peerId": peer}
	if err := c.do(ctx, http.MethodPost, "/api/rooms", body, &resp); err != nil {
		return "", domain.X25519Public{}, err
	}
	return resp.RoomID, resp.PeerPublicKey, nil
}

// ListPending fetches the room's undelivered envelopes in append order.
func (c *Client) ListPending(ctx context.Context, room domain.RoomID) ([]domain.Envelope, error) {
	var envs []domain.Envelope
	path := "/api/rooms/" + url.PathEscape(room.String()) + "/messages?status=pending"
	if err := c.do(ctx, http.MethodGet, path, nil, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// do runs one JSON request/response exchange against the coordinator.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok.String())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "coordinator request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// statusError maps the coordinator's status codes back onto domain
// errors, mirroring the server side's mapping.
func statusError(resp *http.Response) error {
	var payload struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&payload)

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrMissingPublicKey
	default:
		if payload.Message != "" {
			return errors.Errorf("coordinator: %s (status %d)", payload.Message, resp.StatusCode)
		}
		return errors.Errorf("coordinator: unexpected status %d", resp.StatusCode)
	}
}
