package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Raymond9734/estate-backoffice/internal/models"
)

// RESTConfig holds the hosted data API configuration
type RESTConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// RESTClient talks to a PostgREST-compatible data API (e.g. Supabase)
type RESTClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

// restError is the error body returned by PostgREST
type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

// NewRESTClient creates a new data API client
func NewRESTClient(cfg RESTConfig, logger *slog.Logger) *RESTClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// NewRESTBackend wires both tables to the data API
func NewRESTBackend(client *RESTClient) *Backend {
	return &Backend{
		Name:       "rest",
		Properties: &restPropertyRepository{client: client},
		Clients:    &restClientRepository{client: client},
		Health:     client,
		Close:      func() error { return nil },
	}
}

// doRequest performs a request with the project key headers set
func (c *RESTClient) doRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}

	return c.httpClient.Do(req)
}

func (c *RESTClient) tableURL(table string, query url.Values) string {
	endpoint := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return endpoint
}

// selectAll reads every row of table ordered by created_at descending
func (c *RESTClient) selectAll(ctx context.Context, table string, out interface{}) error {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("order", "created_at.desc")
	endpoint := c.tableURL(table, query)

	c.logger.Debug("selecting rows from data API",
		slog.String("table", table),
		slog.String("url", endpoint),
	)

	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to select %s: %w", table, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("failed to select %s: %w", table, err)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", table, err)
	}

	return nil
}

// insertOne inserts a single row into table
func (c *RESTClient) insertOne(ctx context.Context, table string, row interface{}) error {
	payload, err := json.Marshal([]interface{}{row})
	if err != nil {
		return fmt.Errorf("failed to marshal %s row: %w", table, err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, c.tableURL(table, nil), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}

	c.logger.Debug("row inserted through data API", slog.String("table", table))
	return nil
}

// Health checks that the data API answers for the properties table
func (c *RESTClient) Health(ctx context.Context) error {
	query := url.Values{}
	query.Set("select", "id")
	query.Set("limit", "1")

	resp, err := c.doRequest(ctx, http.MethodGet, c.tableURL(models.CollectionProperties, query), nil)
	if err != nil {
		return fmt.Errorf("data API health check failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkResponse(resp); err != nil {
		return fmt.Errorf("data API health check failed: %w", err)
	}
	return nil
}

// checkResponse turns a non-2xx response into an error carrying the API message
func checkResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiErr restError
	if err := json.Unmarshal(bodyBytes, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("data API returned status %d (%s): %s", resp.StatusCode, apiErr.Code, apiErr.Message)
	}

	return fmt.Errorf("data API returned status %d: %s", resp.StatusCode, string(bodyBytes))
}

type restPropertyRepository struct {
	client *RESTClient
}

func (r *restPropertyRepository) List(ctx context.Context) ([]*models.Property, error) {
	properties := []*models.Property{}
	if err := r.client.selectAll(ctx, models.CollectionProperties, &properties); err != nil {
		return nil, err
	}
	return properties, nil
}

func (r *restPropertyRepository) Insert(ctx context.Context, row *models.PropertyInsert) error {
	return r.client.insertOne(ctx, models.CollectionProperties, row)
}

type restClientRepository struct {
	client *RESTClient
}

func (r *restClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	clients := []*models.Client{}
	if err := r.client.selectAll(ctx, models.CollectionClients, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *restClientRepository) Insert(ctx context.Context, row *models.ClientInsert) error {
	return r.client.insertOne(ctx, models.CollectionClients, row)
}
