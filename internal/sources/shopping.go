package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/vinoprice/pricesync/internal/domain"
	"github.com/vinoprice/pricesync/internal/pricing"
)

const defaultShoppingResultCount = 20

// ShoppingClient queries a SERP provider's shopping engine and extracts one
// price per structured result.
type ShoppingClient struct {
	BaseURL string
	APIKey  string
	Client  *http.Client

	// RawCap bounds the result list in raw mode (quick batch pricing).
	RawCap int
}

func NewShoppingClient(baseURL, apiKey string, timeout time.Duration) *ShoppingClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &ShoppingClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: timeout},
		RawCap:  10,
	}
}

type shoppingResponse struct {
	Error           string `json:"error"`
	ShoppingResults []struct {
		Price       string `json:"price"`
		Source      string `json:"source"`
		Link        string `json:"link"`
		ProductLink string `json:"product_link"`
	} `json:"shopping_results"`
}

// Fetch returns one observation per parseable shopping result.
func (c *ShoppingClient) Fetch(ctx context.Context, query string) ([]domain.PriceObservation, error) {
	return c.fetch(ctx, query, 0)
}

// FetchRaw caps the observation list for quick batch pricing.
func (c *ShoppingClient) FetchRaw(ctx context.Context, query string) ([]domain.PriceObservation, error) {
	cap := c.RawCap
	if cap <= 0 {
		cap = 10
	}
	return c.fetch(ctx, query, cap)
}

func (c *ShoppingClient) fetch(ctx context.Context, query string, limit int) ([]domain.PriceObservation, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("%w: shopping search key not configured", ErrSourceUnavailable)
	}

	q := url.Values{}
	q.Set("engine", "google_shopping")
	q.Set("q", query)
	q.Set("api_key", c.APIKey)
	q.Set("num", fmt.Sprintf("%d", defaultShoppingResultCount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: shopping search status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var body shoppingResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, body.Error)
	}

	var obs []domain.PriceObservation
	for _, item := range body.ShoppingResults {
		p, ok := pricing.ParsePrice(item.Price)
		if !ok {
			continue
		}

		link := item.ProductLink
		if link == "" {
			link = item.Link
		}

		obs = append(obs, domain.PriceObservation{
			Source: domain.SourceShopping,
			Price:  p,
			Query:  query,
			Link:   link,
			Domain: item.Source,
		})

		if limit > 0 && len(obs) >= limit {
			break
		}
	}

	return obs, nil
}
