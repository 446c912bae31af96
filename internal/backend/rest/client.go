// internal/backend/rest/client.go
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/CortezCreations/ck-ld-group-enroll/internal/backend"
	"github.com/CortezCreations/ck-ld-group-enroll/internal/config"
)

// Client talks to the learning backend over its REST surface. Every
// operation maps to one request; the backend enforces idempotency.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(cfg config.BackendConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return backend.ErrNotFound
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("backend returned status %d for %s %s", resp.StatusCode, method, path)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode backend response: %w", err)
		}
	}
	return nil
}

func (c *Client) ResolveUser(ctx context.Context, userID int64) (*backend.User, error) {
	var user backend.User
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", userID), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) LookupGroup(ctx context.Context, groupID int64) (*backend.Group, error) {
	var group backend.Group
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/groups/%d", groupID), nil, &group); err != nil {
		return nil, err
	}
	return &group, nil
}

func (c *Client) UserGroupIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/groups", userID), nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) SetGroupAccess(ctx context.Context, userID, groupID int64) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/groups/%d/users/%d", groupID, userID), nil, nil)
}

func (c *Client) IsUserInGroup(ctx context.Context, userID, groupID int64) (bool, error) {
	var out struct {
		Enrolled bool `json:"enrolled"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/groups/%d/users/%d", groupID, userID), nil, &out); err != nil {
		return false, err
	}
	return out.Enrolled, nil
}

func (c *Client) UserCourseIDs(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/%d/courses", userID), nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) SetCourseAccess(ctx context.Context, userID, courseID int64) (bool, error) {
	var out struct {
		Enrolled bool `json:"enrolled"`
	}
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/courses/%d/users/%d", courseID, userID), nil, &out); err != nil {
		return false, err
	}
	return out.Enrolled, nil
}

func (c *Client) IsCourseComplete(ctx context.Context, userID, courseID int64) (bool, error) {
	var out struct {
		Complete bool `json:"complete"`
	}
	path := fmt.Sprintf("/users/%d/courses/%d/complete", userID, courseID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Complete, nil
}

func (c *Client) IsStepComplete(ctx context.Context, userID, itemID, courseID int64, kind backend.StepKind) (bool, error) {
	var out struct {
		Complete bool `json:"complete"`
	}
	path := fmt.Sprintf("/users/%d/courses/%d/steps/%s/%d/complete", userID, courseID, kind, itemID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Complete, nil
}

func (c *Client) MarkComplete(ctx context.Context, userID, itemID, courseID int64) (bool, error) {
	var out struct {
		Complete bool `json:"complete"`
	}
	path := fmt.Sprintf("/users/%d/courses/%d/steps/%d/complete", userID, courseID, itemID)
	if err := c.do(ctx, http.MethodPost, path, nil, &out); err != nil {
		return false, err
	}
	return out.Complete, nil
}

func (c *Client) WriteQuizCompletion(ctx context.Context, userID, quizID, courseID int64, attempt backend.QuizAttempt) (bool, error) {
	var out struct {
		Written bool `json:"written"`
	}
	path := fmt.Sprintf("/users/%d/quiz-attempts", userID)
	if err := c.do(ctx, http.MethodPost, path, attempt, &out); err != nil {
		return false, err
	}
	return out.Written, nil
}

func (c *Client) GroupCourses(ctx context.Context, groupID int64) ([]int64, error) {
	var ids []int64
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/groups/%d/courses", groupID), nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (c *Client) CourseSteps(ctx context.Context, courseID int64, kind backend.StepKind) ([]int64, error) {
	var ids []int64
	path := fmt.Sprintf("/courses/%d/steps?kind=%s", courseID, kind)
	if err := c.do(ctx, http.MethodGet, path, nil, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}
