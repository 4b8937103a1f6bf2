package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/hemloft/storefront/internal/domain"
	apperrors "github.com/hemloft/storefront/pkg/errors"
	"github.com/hemloft/storefront/pkg/httpclient"
)

// Client fetches products from the headless CMS backend. The storefront
// treats the CMS as the source of truth for titles and prices; shoppers never
// supply prices directly.
type Client struct {
	http    *httpclient.CircuitBreakerClient
	baseURL string
	apiKey  string
}

// NewClient creates a catalog client.
func NewClient(http *httpclient.CircuitBreakerClient, baseURL, apiKey string) *Client {
	return &Client{
		http:    http,
		baseURL: baseURL,
		apiKey:  apiKey,
	}
}

type productPayload struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	UnitPrice   int64  `json:"unit_price"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"image_url"`
	Category    string `json:"category"`
	InStock     bool   `json:"in_stock"`
}

type productListPayload struct {
	Products []productPayload `json:"products"`
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create catalog request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, apperrors.ServiceUnavailable("catalog service unavailable")
	}
	return resp, nil
}

// GetProduct fetches a single product by ID.
func (c *Client) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	resp, err := c.get(ctx, "/api/products/"+url.PathEscape(productID))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NotFound("product", productID)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var payload productPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode product: %w", err)
	}

	return toProduct(payload), nil
}

// ListProducts fetches the product listing, optionally filtered by category.
func (c *Client) ListProducts(ctx context.Context, category string) ([]*domain.Product, error) {
	path := "/api/products"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}

	resp, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "catalog")
	}

	var payload productListPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode product list: %w", err)
	}

	products := make([]*domain.Product, len(payload.Products))
	for i, p := range payload.Products {
		products[i] = toProduct(p)
	}
	return products, nil
}

func toProduct(p productPayload) *domain.Product {
	return &domain.Product{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		UnitPrice:   p.UnitPrice,
		Currency:    p.Currency,
		ImageURL:    p.ImageURL,
		Category:    p.Category,
		InStock:     p.InStock,
	}
}
