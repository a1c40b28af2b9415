// Package gateway is the HTTP client for the NovaChat API. It owns the
// chat and agent wire types and translates transport failures into the
// typed errors the rest of the client reports to the user.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/novachat/novachat/internal/configuration"
)

// DefaultChatTitle is used when a chat is created without a title.
const DefaultChatTitle = "Nova conversa"

// Chat is a conversation thread bound to one agent. Owned by the API;
// the client only mirrors it.
type Chat struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	AgentID           string `json:"agent_id"`
	Title             string `json:"title"`
	CreationTimestamp int64  `json:"created_at"`
	UpdateTimestamp   int64  `json:"updated_at"`
}

// Agent is a configured AI persona. Read-only reference data: the API
// owns and validates it.
type Agent struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Avatar      string   `json:"avatar"`
	Description string   `json:"description"`
	Tone        string   `json:"tone"`
	Style       string   `json:"style"`
	Rules       []string `json:"rules"`
}

// Client talks to the NovaChat API.
type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
}

// New instantiates a gateway client from configuration.
func New(config *configuration.Config) *Client {
	return &Client{
		baseURL: config.APIHost,
		token:   config.APIToken,
		userID:  config.UserID,
		httpClient: &http.Client{
			Timeout: time.Duration(config.RequestTimeout) * time.Second,
		},
	}
}

// ListChats returns the user's chats, most recent first. The read path is
// best-effort: any failure yields an empty list rather than an error.
func (c *Client) ListChats(ctx context.Context) ([]*Chat, error) {
	body, statusCode, err := c.do(ctx, http.MethodGet, "/api/chats", nil)
	if err != nil || statusCode != http.StatusOK {
		return nil, nil
	}

	// The API wraps list responses in a data envelope; tolerate both.
	var envelope struct {
		Data []*Chat `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data, nil
	}
	var chats []*Chat
	if err := json.Unmarshal(body, &chats); err != nil {
		return nil, nil
	}
	return chats, nil
}

// CreateChat creates a chat bound to the given agent. An empty title
// defaults to DefaultChatTitle.
func (c *Client) CreateChat(ctx context.Context, agentID, title string) (*Chat, error) {
	if title == "" {
		title = DefaultChatTitle
	}
	request := map[string]string{
		"agent_id": agentID,
		"title":    title,
	}
	body, statusCode, err := c.do(ctx, http.MethodPost, "/api/chats", request)
	if err != nil {
		return nil, &ChatCreationError{Message: genericCreationMessage, cause: err}
	}
	if statusCode < 200 || statusCode >= 300 {
		return nil, &ChatCreationError{Message: extractErrorDetail(body)}
	}

	var envelope struct {
		Data *Chat `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Data != nil && envelope.Data.ID != "" {
		return envelope.Data, nil
	}
	chat := &Chat{}
	if err := json.Unmarshal(body, chat); err != nil || chat.ID == "" {
		return nil, &ChatCreationError{Message: genericCreationMessage}
	}
	return chat, nil
}

// ListAgents returns the agents available to the signed-in user.
func (c *Client) ListAgents(ctx context.Context) ([]*Agent, error) {
	path := "/api/agents?user_id=" + url.QueryEscape(c.userID)
	body, statusCode, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "listing agents")
	}
	if statusCode != http.StatusOK {
		return nil, &ChatTransportError{StatusCode: statusCode}
	}

	var envelope struct {
		Data []*Agent `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data, nil
	}
	var agents []*Agent
	if err := json.Unmarshal(body, &agents); err != nil {
		return nil, errors.Wrap(err, "unmarshaling agents")
	}
	return agents, nil
}

// do performs a request against the API and returns the raw body.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reader io.Reader
	if payload != nil {
		bytes_, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, errors.Wrap(err, "marshaling request")
		}
		reader = bytes.NewReader(bytes_)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building request")
	}
	request.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, 0, errors.Wrap(err, "performing request")
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, response.StatusCode, errors.Wrap(err, "reading response body")
	}
	return body, response.StatusCode, nil
}

// extractErrorDetail pulls a human-readable message out of an error
// response. The backend is inconsistent about where it puts it.
func extractErrorDetail(body []byte) string {
	var envelope struct {
		Details struct {
			Message string `json:"message"`
		} `json:"details"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		if envelope.Details.Message != "" {
			return envelope.Details.Message
		}
		if envelope.Message != "" {
			return envelope.Message
		}
	}
	return genericCreationMessage
}

const genericCreationMessage = "could not create chat, try again later"
