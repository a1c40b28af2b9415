package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

// SendMessage posts the user's message to a chat and returns the agent's
// reply text. 502/503/504 become a GatewayUnavailableError; a 402/429 or
// an insufficient_credits error code becomes a quota-exhausted transport
// error; everything else a plain ChatTransportError.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (string, error) {
	request := map[string]string{"content": text}
	body, statusCode, err := c.do(ctx, http.MethodPost, "/api/chats/"+chatID+"/messages", request)
	if err != nil {
		return "", &ChatTransportError{cause: err}
	}

	switch statusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return "", &GatewayUnavailableError{StatusCode: statusCode}
	case http.StatusPaymentRequired, http.StatusTooManyRequests:
		return "", &ChatTransportError{StatusCode: statusCode, QuotaExhausted: true}
	}
	if statusCode < 200 || statusCode >= 300 {
		if isQuotaExhaustedBody(body) {
			return "", &ChatTransportError{StatusCode: statusCode, QuotaExhausted: true}
		}
		return "", &ChatTransportError{StatusCode: statusCode}
	}

	return normalizeReply(body), nil
}

// replyBody is the set of reply envelope shapes the backend is known to
// produce. The same shapes may appear nested one level under "data".
type replyBody struct {
	AgentResponse struct {
		Content string `json:"content"`
	} `json:"agent_response"`
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Text string `json:"text"`

	Data *replyBody `json:"data"`
}

// normalizeReply extracts the reply text from a response envelope. The
// accepted shapes, in precedence order: agent_response.content,
// message.content, text. Each is tried at the top level, then under data.
// Returns "" when no shape yields a non-empty reply.
func normalizeReply(body []byte) string {
	envelope := &replyBody{}
	if err := json.Unmarshal(body, envelope); err != nil {
		return ""
	}
	for _, candidate := range []*replyBody{envelope, envelope.Data} {
		if candidate == nil {
			continue
		}
		for _, content := range []string{
			candidate.AgentResponse.Content,
			candidate.Message.Content,
			candidate.Text,
		} {
			if content != "" {
				return content
			}
		}
	}
	return ""
}

// isQuotaExhaustedBody checks the error body for an out-of-credits code.
func isQuotaExhaustedBody(body []byte) bool {
	var envelope struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return false
	}
	code := strings.ToLower(envelope.Code + " " + envelope.Error)
	return strings.Contains(code, "insufficient_credits") || strings.Contains(code, "quota")
}
