package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/config"
)

// Client talks to the Supabase auth (GoTrue) REST endpoint. It only exists
// so the CLI can resolve an owner id from credentials; the core pipeline
// never authenticates and only trusts the owner id it is handed.
type Client struct {
	baseURL string
	anonKey string
	client  *http.Client
}

// Session is the authenticated identity. UserID is the owner id used to
// scope every ingestion and retrieval call.
type Session struct {
	UserID      string
	Email       string
	AccessToken string
}

// Error carries the auth endpoint's HTTP status and message.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("auth: %d: %s", e.Status, e.Message)
}

func NewClient(cfg *config.AuthConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		anonKey: cfg.AnonKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SignUp registers a new user and returns the created session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	return c.post(ctx, "/auth/v1/signup", email, password)
}

// SignIn exchanges credentials for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	return c.post(ctx, "/auth/v1/token?grant_type=password", email, password)
}

func (c *Client) post(ctx context.Context, path, email, password string) (*Session, error) {
	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Message          string `json:"msg"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.Unmarshal(body, &errBody)
		msg := errBody.Message
		if msg == "" {
			msg = errBody.ErrorDescription
		}
		if msg == "" {
			msg = string(body)
		}
		return nil, &Error{Status: resp.StatusCode, Message: msg}
	}

	// Sign-in returns the user nested under "user"; sign-up without email
	// confirmation returns the user object directly.
	var out struct {
		AccessToken string `json:"access_token"`
		User        struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		} `json:"user"`
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("auth: decoding response: %w", err)
	}

	session := &Session{AccessToken: out.AccessToken, UserID: out.User.ID, Email: out.User.Email}
	if session.UserID == "" {
		session.UserID = out.ID
		session.Email = out.Email
	}
	if session.UserID == "" {
		return nil, &Error{Status: resp.StatusCode, Message: "response contained no user id"}
	}
	return session, nil
}
