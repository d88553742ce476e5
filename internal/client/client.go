// Package client HTTP клиент Career Compass API для терминального интерфейса.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/career-compass/internal/discovery"
	"github.com/ignatzorin/career-compass/internal/engagement"
	"github.com/ignatzorin/career-compass/internal/models"
)

// Capabilities набор действий, доступных токену.
type Capabilities struct {
	Authenticated bool     `json:"authenticated"`
	Role          string   `json:"role"`
	Actions       []string `json:"actions"`
}

func (c Capabilities) Can(action string) bool {
	for _, a := range c.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Booking подтверждение записи на сессию.
type Booking struct {
	Status        string     `json:"status"`
	SessionID     uuid.UUID  `json:"session_id"`
	OpportunityID uuid.UUID  `json:"opportunity_id"`
	Title         string     `json:"title"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
}

// Client клиент Career Compass API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New создаёт клиент. Пустой token означает анонимный доступ.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

var _ discovery.Fetcher = (*Client)(nil)

// Search выполняет поиск возможностей. Используется движком поиска как Fetcher.
func (c *Client) Search(ctx context.Context, filter models.OpportunityFilter) ([]models.Opportunity, error) {
	params := url.Values{}
	if filter.Search != "" {
		params.Set("q", filter.Search)
	}
	if filter.Format != "" {
		params.Set(discovery.FilterFormat, filter.Format)
	}
	if filter.Duration != "" {
		params.Set(discovery.FilterDuration, filter.Duration)
	}
	if filter.Department != "" {
		params.Set(discovery.FilterDepartment, filter.Department)
	}

	path := "/api/opportunities"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp struct {
		Opportunities []models.Opportunity `json:"opportunities"`
	}
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("client.Search: %w", err)
	}
	return resp.Opportunities, nil
}

// Capabilities возвращает действия, доступные текущему токену.
func (c *Client) Capabilities(ctx context.Context) (*Capabilities, error) {
	var caps Capabilities
	if err := c.get(ctx, "/api/me/capabilities", &caps); err != nil {
		return nil, fmt.Errorf("client.Capabilities: %w", err)
	}
	return &caps, nil
}

// Engagement возвращает закладки и сессии текущего пользователя.
func (c *Client) Engagement(ctx context.Context) (*engagement.Snapshot, error) {
	var snap engagement.Snapshot
	if err := c.get(ctx, "/api/me/engagement", &snap); err != nil {
		return nil, fmt.Errorf("client.Engagement: %w", err)
	}
	return &snap, nil
}

// Bookmark добавляет возможность в закладки.
func (c *Client) Bookmark(ctx context.Context, opportunityID uuid.UUID) (*models.Bookmark, error) {
	var b models.Bookmark
	if err := c.post(ctx, "/api/bookmarks", opportunityRef{OpportunityID: opportunityID}, &b); err != nil {
		return nil, fmt.Errorf("client.Bookmark: %w", err)
	}
	return &b, nil
}

// RemoveBookmark удаляет закладку.
func (c *Client) RemoveBookmark(ctx context.Context, bookmarkID, opportunityID uuid.UUID) error {
	if err := c.delete(ctx, "/api/bookmarks/"+bookmarkID.String()+"?opportunity_id="+opportunityID.String()); err != nil {
		return fmt.Errorf("client.RemoveBookmark: %w", err)
	}
	return nil
}

// Schedule записывает на сессию наблюдения.
func (c *Client) Schedule(ctx context.Context, opportunityID uuid.UUID) (*Booking, error) {
	var b Booking
	if err := c.post(ctx, "/api/sessions", opportunityRef{OpportunityID: opportunityID}, &b); err != nil {
		return nil, fmt.Errorf("client.Schedule: %w", err)
	}
	return &b, nil
}

// CancelSession отменяет запись.
func (c *Client) CancelSession(ctx context.Context, sessionID, opportunityID uuid.UUID) error {
	if err := c.delete(ctx, "/api/sessions/"+sessionID.String()+"?opportunity_id="+opportunityID.String()); err != nil {
		return fmt.Errorf("client.CancelSession: %w", err)
	}
	return nil
}

type opportunityRef struct {
	OpportunityID uuid.UUID `json:"opportunity_id"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.doRequest(ctx, http.MethodPost, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.doRequest(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Error      string `json:"error"`
			Code       string `json:"code"`
			FailedStep string `json:"failed_step"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			return &HTTPError{StatusCode: resp.StatusCode, Code: apiErr.Code, Message: apiErr.Error, FailedStep: apiErr.FailedStep}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
