package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/models"
)

// API is the upstream favorites collaborator. The token is the caller's
// bearer token, forwarded as-is; identity provisioning is out of scope here.
type API interface {
	List(ctx context.Context, token string) ([]string, error)
	Add(ctx context.Context, token, productID string) error
	Remove(ctx context.Context, token, productID string) error
}

// Service keeps a per-user view of the favorites list and mutates it
// optimistically: the local change lands immediately, the remote call runs
// after, and a failure rolls the local change back.
type Service struct {
	api    API
	logger *zap.Logger

	mu     sync.Mutex
	byUser map[int][]string
	loaded map[int]bool
}

func NewService(api API, logger *zap.Logger) *Service {
	return &Service{
		api:    api,
		logger: logger,
		byUser: make(map[int][]string),
		loaded: make(map[int]bool),
	}
}

// List returns the user's favorite product ids, deduplicated, fetching from
// the upstream on first touch. A fetch failure degrades to an empty list.
func (s *Service) List(ctx context.Context, userID int, token string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLoaded(ctx, userID, token)
	return slices.Clone(s.byUser[userID])
}

// Add optimistically appends productID and syncs upstream.
func (s *Service) Add(ctx context.Context, userID int, token, productID string) error {
	return Optimistic(
		func() func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.ensureLoaded(ctx, userID, token)
			if slices.Contains(s.byUser[userID], productID) {
				return nil
			}
			s.byUser[userID] = append(s.byUser[userID], productID)
			return func() {
				s.mu.Lock()
				defer s.mu.Unlock()
				s.byUser[userID] = removeID(s.byUser[userID], productID)
			}
		},
		func() error { return s.api.Add(ctx, token, productID) },
	)
}

// Remove optimistically drops productID and syncs upstream.
func (s *Service) Remove(ctx context.Context, userID int, token, productID string) error {
	return Optimistic(
		func() func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.ensureLoaded(ctx, userID, token)
			idx := slices.Index(s.byUser[userID], productID)
			if idx < 0 {
				return nil
			}
			s.byUser[userID] = removeID(s.byUser[userID], productID)
			return func() {
				s.mu.Lock()
				defer s.mu.Unlock()
				if !slices.Contains(s.byUser[userID], productID) {
					s.byUser[userID] = slices.Insert(s.byUser[userID], min(idx, len(s.byUser[userID])), productID)
				}
			}
		},
		func() error { return s.api.Remove(ctx, token, productID) },
	)
}

func (s *Service) ensureLoaded(ctx context.Context, userID int, token string) {
	if s.loaded[userID] {
		return
	}
	s.loaded[userID] = true
	ids, err := s.api.List(ctx, token)
	if err != nil {
		s.logger.Warn("favorites fetch failed, starting empty", zap.Int("user_id", userID), zap.Error(err))
		return
	}
	seen := make(map[string]bool, len(ids))
	deduped := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			deduped = append(deduped, id)
		}
	}
	s.byUser[userID] = deduped
}

func removeID(ids []string, productID string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != productID {
			out = append(out, id)
		}
	}
	return out
}

// HTTPClient talks to the upstream favorites endpoints.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

func (c *HTTPClient) List(ctx context.Context, token string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/favorites", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("favorites: list: unexpected status %d", resp.StatusCode)
	}
	var payload []models.Favorite
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(payload))
	for _, f := range payload {
		ids = append(ids, f.ProductID)
	}
	return ids, nil
}

func (c *HTTPClient) Add(ctx context.Context, token, productID string) error {
	body := strings.NewReader(fmt.Sprintf(`{"product_id":%q}`, productID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/favorites", body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, token)
}

func (c *HTTPClient) Remove(ctx context.Context, token, productID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/favorites/"+productID, nil)
	if err != nil {
		return err
	}
	return c.do(req, token)
}

func (c *HTTPClient) do(req *http.Request, token string) error {
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("favorites: unexpected status %d", resp.StatusCode)
	}
	return nil
}
