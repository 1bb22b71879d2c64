package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/portal-auth/internal/application/session"
)

// RemoteChecker validates sessions through the check-session endpoint.
type RemoteChecker struct {
	url    string
	client *http.Client
}

// NewRemoteChecker returns a checker posting to url. A nil client gets a
// default one with a 5s timeout.
func NewRemoteChecker(url string, client *http.Client) *RemoteChecker {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &RemoteChecker{url: url, client: client}
}

type checkRequest struct {
	SessionID string `json:"sessionId"`
}

type checkResponse struct {
	Valid     bool      `json:"valid"`
	Reason    string    `json:"reason"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (r *RemoteChecker) Check(ctx context.Context, sessionID string) (*session.Result, error) {
	body, err := json.Marshal(checkRequest{SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("check session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("check session: unexpected status %d", resp.StatusCode)
	}

	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode check-session response: %w", err)
	}
	return &session.Result{
		Valid:     out.Valid,
		Reason:    session.Reason(out.Reason),
		Email:     out.Email,
		ExpiresAt: out.ExpiresAt,
	}, nil
}
