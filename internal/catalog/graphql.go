package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vinoprice/pricesync/internal/domain"
)

const (
	adminAPIPath    = "/admin/api/2024-01/graphql.json"
	accessTokenHdr  = "X-Shopify-Access-Token"
	variantPageSize = 10
)

// AdminClient talks to the catalog's admin GraphQL API.
type AdminClient struct {
	StoreURL    string
	AccessToken string
	Client      *http.Client
}

func NewAdminClient(storeURL, accessToken string, timeout time.Duration) (*AdminClient, error) {
	if strings.TrimSpace(storeURL) == "" || strings.TrimSpace(accessToken) == "" {
		return nil, ErrMissingCredentials
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AdminClient{
		StoreURL:    strings.TrimRight(storeURL, "/"),
		AccessToken: accessToken,
		Client:      &http.Client{Timeout: timeout},
	}, nil
}

const productsQuery = `
query ($first: Int!, $cursor: String) {
  products(first: $first, after: $cursor) {
    pageInfo { hasNextPage endCursor }
    edges {
      node {
        id
        title
        variants(first: %d) {
          edges {
            node {
              id
              sku
              price
              inventoryItem { unitCost { amount } }
            }
          }
        }
      }
    }
  }
}`

const variantUpdateMutation = `
mutation ($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    userErrors { field message }
  }
}`

type productsPayload struct {
	Data struct {
		Products struct {
			PageInfo struct {
				HasNextPage bool   `json:"hasNextPage"`
				EndCursor   string `json:"endCursor"`
			} `json:"pageInfo"`
			Edges []struct {
				Node struct {
					ID       string `json:"id"`
					Title    string `json:"title"`
					Variants struct {
						Edges []struct {
							Node struct {
								ID            string `json:"id"`
								SKU           string `json:"sku"`
								Price         string `json:"price"`
								InventoryItem *struct {
									UnitCost *struct {
										Amount string `json:"amount"`
									} `json:"unitCost"`
								} `json:"inventoryItem"`
							} `json:"node"`
						} `json:"edges"`
					} `json:"variants"`
				} `json:"node"`
			} `json:"edges"`
		} `json:"products"`
	} `json:"data"`
}

func (c *AdminClient) FetchVariants(ctx context.Context, limit int, cursor string) (Page, error) {
	if limit <= 0 {
		limit = 10
	}

	vars := map[string]any{"first": limit}
	if cursor != "" {
		vars["cursor"] = cursor
	}

	var payload productsPayload
	if err := c.execute(ctx, fmt.Sprintf(productsQuery, variantPageSize), vars, &payload); err != nil {
		return Page{}, err
	}

	page := Page{
		NextCursor: payload.Data.Products.PageInfo.EndCursor,
		HasMore:    payload.Data.Products.PageInfo.HasNextPage,
	}

	for _, pe := range payload.Data.Products.Edges {
		for _, ve := range pe.Node.Variants.Edges {
			t := domain.SyncTarget{
				ProductID: pe.Node.ID,
				VariantID: ve.Node.ID,
				SKU:       ve.Node.SKU,
				Title:     pe.Node.Title,
			}
			if p, err := strconv.ParseFloat(ve.Node.Price, 64); err == nil {
				t.CurrentPrice = &p
			}
			if ii := ve.Node.InventoryItem; ii != nil && ii.UnitCost != nil {
				if cost, err := strconv.ParseFloat(ii.UnitCost.Amount, 64); err == nil && cost > 0 {
					t.Cost = &cost
				}
			}
			page.Items = append(page.Items, t)
		}
	}

	return page, nil
}

type variantUpdatePayload struct {
	Data struct {
		ProductVariantsBulkUpdate struct {
			UserErrors []UserError `json:"userErrors"`
		} `json:"productVariantsBulkUpdate"`
	} `json:"data"`
}

func (c *AdminClient) UpdateVariantPrice(ctx context.Context, productID, variantID string, price float64) error {
	vars := map[string]any{
		"productId": productID,
		"variants": []map[string]any{
			{"id": variantID, "price": strconv.FormatFloat(price, 'f', 2, 64)},
		},
	}

	var payload variantUpdatePayload
	if err := c.execute(ctx, variantUpdateMutation, vars, &payload); err != nil {
		return err
	}

	if ue := payload.Data.ProductVariantsBulkUpdate.UserErrors; len(ue) > 0 {
		return &MutationError{Errors: ue}
	}
	return nil
}

func (c *AdminClient) execute(ctx context.Context, query string, variables map[string]any, out any) error {
	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.StoreURL+adminAPIPath, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(accessTokenHdr, c.AccessToken)

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("catalog request failed: status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
