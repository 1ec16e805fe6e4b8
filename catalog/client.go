package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"storefront/models"
)

// Client reads the product catalog from the upstream storefront backend.
// The backend is an external collaborator; all we assume about it is the
// endpoint paths and the (messy) payload shapes handled in normalize.go.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Snapshot is a point-in-time view of the catalog: the fetch order for
// rendering plus an id index for reconciliation joins.
type Snapshot struct {
	Products []models.Product
	byID     map[string]*models.Product
}

func NewSnapshot(products []models.Product) *Snapshot {
	s := &Snapshot{Products: products, byID: make(map[string]*models.Product, len(products))}
	for i := range s.Products {
		s.byID[s.Products[i].ID] = &s.Products[i]
	}
	return s
}

// Lookup returns the product for id, or nil when the catalog no longer has it.
func (s *Snapshot) Lookup(id string) *models.Product {
	if s == nil {
		return nil
	}
	return s.byID[id]
}

func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Products)
}

// FetchProducts retrieves GET /products and normalizes every entry.
func (c *Client) FetchProducts(ctx context.Context) (*Snapshot, error) {
	var raws []rawProduct
	if err := c.getJSON(ctx, "/products", &raws); err != nil {
		return nil, err
	}
	products := make([]models.Product, 0, len(raws))
	for _, r := range raws {
		p := normalizeProduct(r)
		if p.ID == "" {
			c.logger.Warn("dropping catalog entry without id")
			continue
		}
		products = append(products, p)
	}
	return NewSnapshot(products), nil
}

// FetchCategories retrieves GET /categories.
func (c *Client) FetchCategories(ctx context.Context) ([]models.Category, error) {
	var cats []models.Category
	if err := c.getJSON(ctx, "/categories", &cats); err != nil {
		return nil, err
	}
	return cats, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog: GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// LoadShippingMethods reads the shipping method seed file (envios.json under
// the data dir) and normalizes it.
func LoadShippingMethods(dataDir string) ([]models.ShippingMethod, error) {
	var raws []rawShippingMethod
	if err := readSeed(filepath.Join(dataDir, "envios.json"), &raws); err != nil {
		return nil, err
	}
	methods := make([]models.ShippingMethod, 0, len(raws))
	for _, r := range raws {
		m := normalizeShippingMethod(r)
		if m.ID != "" {
			methods = append(methods, m)
		}
	}
	return methods, nil
}

// LoadCoupons reads the coupon seed file and indexes it by upper-cased code.
func LoadCoupons(dataDir string) (map[string]models.Coupon, error) {
	var raws []rawCoupon
	if err := readSeed(filepath.Join(dataDir, "cupones.json"), &raws); err != nil {
		return nil, err
	}
	coupons := make(map[string]models.Coupon, len(raws))
	for _, r := range raws {
		c := normalizeCoupon(r)
		if c.Code != "" {
			coupons[c.Code] = c
		}
	}
	return coupons, nil
}

func readSeed(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
