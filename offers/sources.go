package offers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"storefront/models"
)

// Source is one third-party marketplace. Results come back already
// normalized to the Offer shape with CLP prices.
type Source interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]models.Offer, error)
}

var nonAlnum = regexp.MustCompile(`[^a-zA-Z0-9\s]`)
var parens = regexp.MustCompile(`\(.*?\)`)
var spaces = regexp.MustCompile(`\s+`)

var accentFold = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "ü", "u",
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ñ", "N", "Ü", "U",
)

// sanitizeQuery folds accents and strips punctuation and parentheticals so
// local product names survive third-party search engines.
func sanitizeQuery(q string) string {
	q = accentFold.Replace(q)
	q = parens.ReplaceAllString(q, " ")
	q = nonAlnum.ReplaceAllString(q, " ")
	return strings.TrimSpace(spaces.ReplaceAllString(q, " "))
}

// englishDict maps the storefront's Spanish catalog terms to English for the
// English-only marketplaces. Unknown words pass through unchanged.
var englishDict = map[string]string{
	"audifonos": "headphones",
	"audifono":  "headphone",
	"lampara":   "lamp",
	"lamparas":  "lamps",
	"juguete":   "toy",
	"juguetes":  "toys",
	"teclado":   "keyboard",
	"mochila":   "backpack",
	"zapatilla": "sneaker",
	"polera":    "shirt",
}

func translateQuery(q string) string {
	words := strings.Fields(strings.ToLower(q))
	for i, w := range words {
		if en, ok := englishDict[w]; ok {
			words[i] = en
		}
	}
	return strings.Join(words, " ")
}

// usdToCLP converts a USD amount using the configured rate, half-up.
func usdToCLP(usd float64, rate float64) int64 {
	if usd <= 0 {
		return 0
	}
	return int64(math.Floor(usd*rate + 0.5))
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("offers: GET %s: unexpected status %d", rawURL, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// MercadoLibre searches one ML site (MLC, MLA, ...).
type MercadoLibre struct {
	BaseURL string
	Site    string
	Client  *http.Client
}

func (m *MercadoLibre) Name() string { return "Mercado Libre " + m.Site }

func (m *MercadoLibre) Search(ctx context.Context, query string, limit int) ([]models.Offer, error) {
	u := fmt.Sprintf("%s/sites/%s/search?q=%s&limit=%d",
		m.BaseURL, m.Site, url.QueryEscape(sanitizeQuery(query)), limit)
	var payload struct {
		Results []struct {
			ID         string  `json:"id"`
			Title      string  `json:"title"`
			Price      float64 `json:"price"`
			CurrencyID string  `json:"currency_id"`
			Thumbnail  string  `json:"thumbnail"`
			Permalink  string  `json:"permalink"`
		} `json:"results"`
	}
	if err := getJSON(ctx, m.Client, u, &payload); err != nil {
		return nil, err
	}
	out := make([]models.Offer, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, models.Offer{
			Source:    "Mercado Libre",
			ID:        r.ID,
			Title:     r.Title,
			Price:     int64(math.Floor(r.Price + 0.5)),
			Currency:  r.CurrencyID,
			Thumbnail: strings.Replace(r.Thumbnail, "http:", "https:", 1),
			Permalink: r.Permalink,
		})
	}
	return out, nil
}

// DummyJSON searches dummyjson.com; prices are USD.
type DummyJSON struct {
	BaseURL      string
	USDToCLPRate float64
	Client       *http.Client
}

func (d *DummyJSON) Name() string { return "Dummy" }

func (d *DummyJSON) Search(ctx context.Context, query string, limit int) ([]models.Offer, error) {
	q := translateQuery(sanitizeQuery(query))
	u := fmt.Sprintf("%s/products/search?q=%s&limit=%d", d.BaseURL, url.QueryEscape(q), limit)
	var payload struct {
		Products []struct {
			ID        int     `json:"id"`
			Title     string  `json:"title"`
			Price     float64 `json:"price"`
			Thumbnail string  `json:"thumbnail"`
		} `json:"products"`
	}
	if err := getJSON(ctx, d.Client, u, &payload); err != nil {
		return nil, err
	}
	out := make([]models.Offer, 0, len(payload.Products))
	for _, p := range payload.Products {
		out = append(out, models.Offer{
			Source:    "Dummy",
			ID:        strconv.Itoa(p.ID),
			Title:     p.Title,
			Price:     usdToCLP(p.Price, d.USDToCLPRate),
			Currency:  "CLP",
			Thumbnail: p.Thumbnail,
			Permalink: searchPermalink(p.Title),
		})
	}
	return out, nil
}

// FakeStore lists fakestoreapi.com products and filters locally; the API has
// no search endpoint. Prices are USD.
type FakeStore struct {
	BaseURL      string
	USDToCLPRate float64
	Client       *http.Client
}

func (f *FakeStore) Name() string { return "FakeStore" }

func (f *FakeStore) Search(ctx context.Context, query string, limit int) ([]models.Offer, error) {
	var payload []struct {
		ID    int     `json:"id"`
		Title string  `json:"title"`
		Price float64 `json:"price"`
		Image string  `json:"image"`
	}
	if err := getJSON(ctx, f.Client, f.BaseURL+"/products", &payload); err != nil {
		return nil, err
	}
	needle := strings.ToLower(translateQuery(sanitizeQuery(query)))
	out := make([]models.Offer, 0, limit)
	for _, p := range payload {
		if needle != "" && !strings.Contains(strings.ToLower(p.Title), needle) {
			continue
		}
		out = append(out, models.Offer{
			Source:    "FakeStore",
			ID:        strconv.Itoa(p.ID),
			Title:     p.Title,
			Price:     usdToCLP(p.Price, f.USDToCLPRate),
			Currency:  "CLP",
			Thumbnail: p.Image,
			Permalink: searchPermalink(p.Title),
		})
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

// searchPermalink points non-ML results at a Mercado Libre search for the
// item title, so every offer card has somewhere to click through to.
func searchPermalink(title string) string {
	return "https://listado.mercadolibre.cl/" + url.PathEscape(sanitizeQuery(title))
}
