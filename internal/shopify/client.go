// Package shopify reads customers from the Shopify Admin GraphQL API.
package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/config"
	"github.com/Veraticus/partner-directory-sync/internal/httpclient"
	"github.com/Veraticus/partner-directory-sync/internal/model"
	"github.com/Veraticus/partner-directory-sync/internal/service"
	"golang.org/x/oauth2"
)

// AccessTokenHeader carries the Admin API access token.
const AccessTokenHeader = "X-Shopify-Access-Token"

// MaxPageSize is the largest page the Admin API serves.
const MaxPageSize = 250

// maxMetafields is how many metafields are requested per customer.
const maxMetafields = 50

const customersQuery = `query PartnerCustomers($first: Int!, $after: String, $query: String, $namespace: String!) {
  customers(first: $first, after: $after, query: $query) {
    pageInfo {
      hasNextPage
      endCursor
    }
    nodes {
      id
      firstName
      lastName
      email
      phone
      metafields(first: 50, namespace: $namespace) {
        nodes {
          key
          value
        }
      }
      orders(first: 250, sortKey: CREATED_AT, reverse: true) {
        nodes {
          createdAt
        }
      }
    }
  }
}`

// GraphQL wire types.
type graphQLRequest struct {
	Variables map[string]any `json:"variables"`
	Query     string         `json:"query"`
}

type graphQLResponse struct {
	Data   *customersData `json:"data"`
	Errors []graphQLError `json:"errors"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type customersData struct {
	Customers *customerConnection `json:"customers"`
}

type customerConnection struct {
	PageInfo pageInfo       `json:"pageInfo"`
	Nodes    []customerNode `json:"nodes"`
}

type pageInfo struct {
	EndCursor   *string `json:"endCursor"`
	HasNextPage bool    `json:"hasNextPage"`
}

type customerNode struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	ID         string  `json:"id"`
	Metafields struct {
		Nodes []metafieldNode `json:"nodes"`
	} `json:"metafields"`
	Orders struct {
		Nodes []orderNode `json:"nodes"`
	} `json:"orders"`
}

type metafieldNode struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type orderNode struct {
	CreatedAt string `json:"createdAt"`
}

// Client implements service.CustomerSource.
type Client struct {
	api       *httpclient.Client
	tokens    oauth2.TokenSource
	logger    *slog.Logger
	endpoint  string
	query     string
	namespace string
	pageSize  int
}

// Option customizes a Client.
type Option func(*Client)

// WithEndpoint overrides the GraphQL endpoint URL.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithHTTPClient replaces the retrying HTTP client.
func WithHTTPClient(hc *httpclient.Client) Option {
	return func(c *Client) {
		c.api = hc
	}
}

// Endpoint returns the Admin GraphQL URL for a shop and API version.
func Endpoint(domain, apiVersion string) string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", domain, apiVersion)
}

// NewClient creates a client for the configured shop.
func NewClient(cfg config.ShopConfig, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	if cfg.Domain == "" {
		return nil, fmt.Errorf("%w: shop domain", common.ErrMissingConfig)
	}
	if tokens == nil {
		return nil, fmt.Errorf("%w: shop access token", common.ErrMissingConfig)
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	version := cfg.APIVersion
	if version == "" {
		version = config.DefaultAPIVersion
	}

	c := &Client{
		api:       httpclient.New(service.CommerceRetryOptions()),
		tokens:    tokens,
		logger:    slog.Default().With("component", "shopify"),
		endpoint:  Endpoint(cfg.Domain, version),
		query:     cfg.CustomerQuery,
		namespace: cfg.MetafieldNamespace,
		pageSize:  pageSize,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// FetchCustomers implements service.CustomerSource.
func (c *Client) FetchCustomers(ctx context.Context, cursor string) (*model.CustomerPage, error) {
	variables := map[string]any{
		"first":     c.pageSize,
		"namespace": c.namespace,
	}
	if cursor != "" {
		variables["after"] = cursor
	}
	if c.query != "" {
		variables["query"] = c.query
	}

	payload, err := json.Marshal(graphQLRequest{Query: customersQuery, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode customers query: %w", err)
	}

	var resp graphQLResponse
	_, err = c.api.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		token, tokenErr := c.tokens.Token()
		if tokenErr != nil {
			return nil, fmt.Errorf("failed to obtain access token: %w", tokenErr)
		}
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
		if reqErr != nil {
			return nil, reqErr
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(AccessTokenHeader, token.AccessToken)
		return req, nil
	}, func(body []byte) error {
		resp = graphQLResponse{}
		return decodeResponse(body, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch customers page: %w", err)
	}

	page := toPage(resp.Data.Customers, c.logger)
	c.logger.Debug("Fetched customer page",
		"customers", len(page.Customers),
		"has_next", page.HasNext)
	return page, nil
}

// decodeResponse parses a GraphQL body. GraphQL errors are fatal protocol errors.
func decodeResponse(body []byte, resp *graphQLResponse) error {
	if err := json.Unmarshal(body, resp); err != nil {
		return &common.ProtocolError{Messages: []string{fmt.Sprintf("invalid JSON response: %v", err)}}
	}
	if len(resp.Errors) > 0 {
		messages := make([]string, 0, len(resp.Errors))
		for _, e := range resp.Errors {
			messages = append(messages, e.Message)
		}
		return &common.ProtocolError{Messages: messages}
	}
	if resp.Data == nil || resp.Data.Customers == nil {
		return &common.ProtocolError{Messages: []string{"response has no customers field"}}
	}
	return nil
}

func toPage(conn *customerConnection, logger *slog.Logger) *model.CustomerPage {
	page := &model.CustomerPage{
		Customers: make([]model.RawCustomer, 0, len(conn.Nodes)),
		HasNext:   conn.PageInfo.HasNextPage,
	}
	if conn.PageInfo.EndCursor != nil {
		page.EndCursor = *conn.PageInfo.EndCursor
	}

	for _, node := range conn.Nodes {
		page.Customers = append(page.Customers, toCustomer(node, logger))
	}
	return page
}

func toCustomer(node customerNode, logger *slog.Logger) model.RawCustomer {
	customer := model.RawCustomer{
		ID:         node.ID,
		FirstName:  deref(node.FirstName),
		LastName:   deref(node.LastName),
		Email:      deref(node.Email),
		Phone:      deref(node.Phone),
		Attributes: make(map[string]string, len(node.Metafields.Nodes)),
	}

	for i, mf := range node.Metafields.Nodes {
		if i == maxMetafields {
			break
		}
		customer.Attributes[mf.Key] = mf.Value
	}

	for _, order := range node.Orders.Nodes {
		if len(customer.OrderTimes) == model.MaxOrderTimes {
			break
		}
		createdAt, err := time.Parse(time.RFC3339, order.CreatedAt)
		if err != nil {
			logger.Debug("Skipping order with unparseable timestamp",
				"customer", node.ID,
				"created_at", order.CreatedAt)
			continue
		}
		customer.OrderTimes = append(customer.OrderTimes, createdAt)
	}

	return customer
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
