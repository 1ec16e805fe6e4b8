package reviews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront/models"
)

// ErrDuplicate is returned when the user has already reviewed the product;
// the upstream allows one review per user per product.
var ErrDuplicate = errors.New("product already reviewed")

// ErrNotOwner is returned when deleting a review that belongs to someone else.
var ErrNotOwner = errors.New("not the review owner")

var ErrNotFound = errors.New("review not found")

// API is the upstream reviews collaborator. Reads are public; writes carry
// the caller's bearer token.
type API interface {
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	Create(ctx context.Context, token, productID string, rating int, comment string) (*models.Review, error)
	Delete(ctx context.Context, token string, reviewID int) error
}

// HTTPClient talks to the upstream reviews endpoints.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{baseURL: baseURL, http: &http.Client{Timeout: timeout}}
}

// rawReview tolerates numeric product ids; the upstream serves them both ways.
type rawReview struct {
	ID        int       `json:"id"`
	ProductID flexID    `json:"product_id"`
	UserID    int       `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (r rawReview) review() models.Review {
	return models.Review{
		ID:        r.ID,
		ProductID: string(r.ProductID),
		UserID:    r.UserID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

func (c *HTTPClient) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reviews/product/"+productID, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reviews: list: unexpected status %d", resp.StatusCode)
	}
	var raws []rawReview
	if err := json.NewDecoder(resp.Body).Decode(&raws); err != nil {
		return nil, err
	}
	out := make([]models.Review, 0, len(raws))
	for _, r := range raws {
		out = append(out, r.review())
	}
	return out, nil
}

func (c *HTTPClient) Create(ctx context.Context, token, productID string, rating int, comment string) (*models.Review, error) {
	payload, err := json.Marshal(map[string]any{
		"product_id": productID,
		"rating":     rating,
		"comment":    comment,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/reviews", strings.NewReader(string(payload)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
	case http.StatusBadRequest, http.StatusConflict:
		return nil, ErrDuplicate
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("reviews: create: unexpected status %d", resp.StatusCode)
	}
	var raw rawReview
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	rv := raw.review()
	return &rv, nil
}

func (c *HTTPClient) Delete(ctx context.Context, token string, reviewID int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/reviews/"+strconv.Itoa(reviewID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusForbidden:
		return ErrNotOwner
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("reviews: delete: unexpected status %d", resp.StatusCode)
	}
	return nil
}
