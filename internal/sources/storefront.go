package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vinoprice/pricesync/internal/domain"
	"github.com/vinoprice/pricesync/internal/pricing"
)

const storefrontPageSize = 250

// StorefrontScanner walks a fixed list of competitor catalogs via their public
// product feed and fuzzy-matches listing titles against the target.
type StorefrontScanner struct {
	Domains []string
	Client  *http.Client

	// MaxPages caps the feed walk per domain; the first few hundred products
	// are usually enough.
	MaxPages int

	// MinSimilarity is the acceptance threshold for the single best title
	// match per domain.
	MinSimilarity float64

	UserAgent string
}

func NewStorefrontScanner(domains []string, timeout time.Duration) *StorefrontScanner {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StorefrontScanner{
		Domains:       domains,
		Client:        &http.Client{Timeout: timeout},
		MaxPages:      3,
		MinSimilarity: 0.4,
		UserAgent:     "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
	}
}

type competitorsFile struct {
	Domains []string `yaml:"domains"`
}

// LoadCompetitorDomains reads the competitor list from a YAML file and
// normalizes each entry to a scheme-qualified base URL. A missing file yields
// an empty list, which disables the storefront source.
func LoadCompetitorDomains(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var f competitorsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	out := make([]string, 0, len(f.Domains))
	for _, d := range f.Domains {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if !strings.HasPrefix(d, "http") {
			d = "https://" + d
		}
		out = append(out, strings.TrimRight(d, "/"))
	}
	return out, nil
}

type feedProduct struct {
	Title    string `json:"title"`
	Handle   string `json:"handle"`
	Variants []struct {
		Price string `json:"price"`
	} `json:"variants"`
}

type feedPage struct {
	Products []feedProduct `json:"products"`
}

// Fetch scans every configured domain for the closest title match and returns
// at most one observation per domain: the best match's lowest variant price.
// A domain that fails or yields no acceptable match contributes nothing.
func (s *StorefrontScanner) Fetch(ctx context.Context, title string) ([]domain.PriceObservation, error) {
	if len(s.Domains) == 0 {
		return nil, nil
	}

	target := CleanTitle(title)

	var obs []domain.PriceObservation
	for _, d := range s.Domains {
		match, ok := s.scanDomain(ctx, d, target)
		if !ok {
			continue
		}
		obs = append(obs, match)
	}
	return obs, nil
}

func (s *StorefrontScanner) scanDomain(ctx context.Context, base string, target string) (domain.PriceObservation, bool) {
	maxPages := s.MaxPages
	if maxPages <= 0 {
		maxPages = 3
	}

	var best feedProduct
	bestScore := 0.0

	for page := 1; page <= maxPages; page++ {
		products, err := s.fetchFeedPage(ctx, base, page)
		if err != nil || len(products) == 0 {
			break
		}

		for _, p := range products {
			score := Similarity(target, p.Title)
			if score > bestScore {
				bestScore = score
				best = p
			}
		}
	}

	if bestScore <= s.MinSimilarity || len(best.Variants) == 0 {
		return domain.PriceObservation{}, false
	}

	lowest := 0.0
	found := false
	for _, v := range best.Variants {
		p, ok := pricing.ParsePrice(v.Price)
		if !ok {
			continue
		}
		if !found || p < lowest {
			lowest = p
			found = true
		}
	}
	if !found {
		return domain.PriceObservation{}, false
	}

	return domain.PriceObservation{
		Source: domain.SourceStorefront,
		Price:  lowest,
		Query:  target,
		Link:   base + "/products/" + best.Handle,
		Domain: base,
	}, true
}

func (s *StorefrontScanner) fetchFeedPage(ctx context.Context, base string, page int) ([]feedProduct, error) {
	url := fmt.Sprintf("%s/products.json?limit=%d&page=%d", base, storefrontPageSize, page)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: feed status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var body feedPage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return body.Products, nil
}
