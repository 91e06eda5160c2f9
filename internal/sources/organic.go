package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// The organic adapter produces descriptive competitor text, not prices: it
// feeds the content pipeline. It lives here because it shares query
// normalization and the SERP transport with the price adapters.

const (
	organicResultCount = 10
	contextResultCount = 5
	contextTopLinks    = 3

	// Scrape quality thresholds.
	minSelectorChars = 80
	minBodyChars     = 50
	minScrapeChars   = 100
	minSnippetChars  = 20
	maxDescChars     = 1200
)

// Domains that never host a product page worth scraping.
var organicBlacklist = []string{
	"facebook.com", "instagram.com", "twitter.com", "youtube.com", "google.com",
}

// Content selectors tried in order, most specific first.
var descriptionSelectors = []string{
	".pipProductDescription_content",
	".product-description",
	".product-details__description",
	".view-more-text",
	".short-description",
	"[data-test-id='product-description']",
	"#productDescription",
	"div[itemprop='description']",
	"section#description",
	"article",
}

var whitespaceRun = regexp.MustCompile(`\s+`)

type OrganicClient struct {
	BaseURL string
	APIKey  string

	// Search and page-scrape use separate clients; scraping arbitrary pages
	// deserves a tighter timeout.
	SearchClient *http.Client
	ScrapeClient *http.Client

	UserAgent string
}

func NewOrganicClient(baseURL, apiKey string, searchTimeout, scrapeTimeout time.Duration) *OrganicClient {
	if searchTimeout <= 0 {
		searchTimeout = 15 * time.Second
	}
	if scrapeTimeout <= 0 {
		scrapeTimeout = 12 * time.Second
	}
	return &OrganicClient{
		BaseURL:      baseURL,
		APIKey:       apiKey,
		SearchClient: &http.Client{Timeout: searchTimeout},
		ScrapeClient: &http.Client{Timeout: scrapeTimeout},
		UserAgent:    "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

type organicResult struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

type organicResponse struct {
	Error          string          `json:"error"`
	OrganicResults []organicResult `json:"organic_results"`
}

// Links returns up to limit product-page links from an organic search
// restricted to product description/review intent, with non-product domains
// filtered out.
func (c *OrganicClient) Links(ctx context.Context, productName, vintage string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = contextTopLinks
	}

	results, err := c.search(ctx, productName, vintage, organicResultCount)
	if err != nil {
		return nil, err
	}

	var links []string
	for _, r := range results {
		if r.Link == "" || blacklisted(r.Link) {
			continue
		}
		links = append(links, r.Link)
		if len(links) >= limit {
			break
		}
	}
	return links, nil
}

// CompetitorContext assembles scraped competitor descriptions for the top
// organic results, substituting the search snippet when a page cannot be
// scraped or yields too little text.
func (c *OrganicClient) CompetitorContext(ctx context.Context, productName, vintage string) (string, error) {
	results, err := c.search(ctx, productName, vintage, contextResultCount)
	if err != nil {
		return "", err
	}

	var blocks []string
	for i, r := range results {
		if len(blocks) >= contextTopLinks {
			break
		}
		if r.Link == "" || strings.Contains(r.Link, "google.com") {
			continue
		}

		desc := c.ScrapeDescription(ctx, r.Link)

		var content, method string
		switch {
		case len(desc) > minScrapeChars:
			content = desc
			method = "FULL SCRAPE"
		case len(r.Snippet) > minSnippetChars:
			content = r.Title + ": " + r.Snippet
			method = "SNIPPET FALLBACK"
		default:
			continue
		}

		blocks = append(blocks, fmt.Sprintf("--- Competitor %d (%s) ---\n%s", i+1, method, content))
	}

	return strings.Join(blocks, "\n\n"), nil
}

// ScrapeDescription fetches a product page and extracts descriptive text:
// known content selectors first, then meta description tags, then a truncated
// cut of the page body. Returns "" when the page is unreachable or empty.
func (c *OrganicClient) ScrapeDescription(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.ScrapeClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return ""
	}

	description := ""
	for _, sel := range descriptionSelectors {
		if elem := doc.Find(sel).First(); elem.Length() > 0 {
			text := strings.TrimSpace(elem.Text())
			if len(text) > minSelectorChars {
				description = text
				break
			}
		}
	}

	if len(description) < minSelectorChars {
		meta := metaDescription(doc)
		if len(meta) > len(description) {
			description = meta
		}
	}

	if len(description) < minBodyChars {
		doc.Find("script, style, nav, footer, header, aside").Remove()
		text := strings.TrimSpace(doc.Find("body").Text())
		if len(text) > 100 {
			description = truncate(text, maxDescChars)
		}
	}

	description = strings.TrimSpace(whitespaceRun.ReplaceAllString(description, " "))
	return truncate(description, maxDescChars)
}

func (c *OrganicClient) search(ctx context.Context, productName, vintage string, num int) ([]organicResult, error) {
	if c.APIKey == "" {
		return nil, fmt.Errorf("%w: organic search key not configured", ErrSourceUnavailable)
	}

	query := BuildSearchQuery(productName, vintage) + " product description review"

	q := url.Values{}
	q.Set("engine", "google")
	q.Set("q", query)
	q.Set("api_key", c.APIKey)
	q.Set("num", fmt.Sprintf("%d", num))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.SearchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: organic search status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	var body organicResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("%w: %s", ErrSourceUnavailable, body.Error)
	}

	return body.OrganicResults, nil
}

func metaDescription(doc *goquery.Document) string {
	for _, sel := range []string{
		`meta[name="description"]`,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`,
	} {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if text := strings.TrimSpace(content); text != "" {
				return text
			}
		}
	}
	return ""
}

func blacklisted(link string) bool {
	for _, d := range organicBlacklist {
		if strings.Contains(link, d) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
