package postgrest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/jackc/pgerrcode"

	domainErrors "github.com/polkiloo/pathway/internal/domain/errors"
	"github.com/polkiloo/pathway/internal/domain/model"
	"github.com/polkiloo/pathway/internal/domain/repository"
)

// ErrMultipleRows indicates an equality lookup matched more than one record.
var ErrMultipleRows = errors.New("lookup matched multiple rows")

const userColumns = "name,email,password"

// StoreError is a non-successful answer from the hosted store.
type StoreError struct {
	Status  int
	Code    string
	Message string
}

func (e *StoreError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("store error: %s", http.StatusText(e.Status))
	}
	return e.Message
}

// HTTPClient implements repository.UserRepository over the PostgREST API of
// a hosted database.
type HTTPClient struct {
	baseURL    *url.URL
	apiKey     string
	table      string
	httpClient *http.Client
	logger     *slog.Logger
}

// row mirrors a users table record as returned by the REST API.
type row struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// errorResponse mirrors the PostgREST error payload.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// NewHTTPClient creates REST user store client with default timeout.
func NewHTTPClient(baseURL, apiKey, table string, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse store url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("store url must be absolute")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("store api key must be provided")
	}
	if table == "" {
		return nil, fmt.Errorf("store table must be provided")
	}
	return &HTTPClient{
		baseURL: parsed,
		apiKey:  apiKey,
		table:   table,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}, nil
}

// FindByEmail filters the table by exact email match.
func (c *HTTPClient) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	query := url.Values{}
	query.Set("select", userColumns)
	query.Set("email", "eq."+email)
	query.Set("limit", "2")

	req, err := c.newRequest(ctx, http.MethodGet, query, nil)
	if err != nil {
		return nil, err
	}

	var rows []row
	if err := c.do(req, http.StatusOK, &rows); err != nil {
		return nil, err
	}

	switch len(rows) {
	case 0:
		return nil, domainErrors.ErrNotFound
	case 1:
		return rows[0].toModel(), nil
	default:
		return nil, ErrMultipleRows
	}
}

// Create inserts a new record. The table's unique constraint on email turns
// a concurrent duplicate into HTTP 409, reported as ErrAlreadyExists.
func (c *HTTPClient) Create(ctx context.Context, name, email, passwordHash string) (*model.User, error) {
	payload, err := json.Marshal(row{Name: name, Email: email, Password: passwordHash})
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("select", userColumns)
	req, err := c.newRequest(ctx, http.MethodPost, query, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=representation")

	var rows []row
	if err := c.do(req, http.StatusCreated, &rows); err != nil {
		var storeErr *StoreError
		if errors.As(err, &storeErr) && (storeErr.Status == http.StatusConflict || storeErr.Code == pgerrcode.UniqueViolation) {
			return nil, domainErrors.ErrAlreadyExists
		}
		return nil, err
	}
	if len(rows) == 0 {
		return &model.User{Name: name, Email: email, PasswordHash: passwordHash}, nil
	}
	return rows[0].toModel(), nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method string, query url.Values, body io.Reader) (*http.Request, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, "/rest/v1/", c.table)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return req, nil
}

func (c *HTTPClient) do(req *http.Request, wantStatus int, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != wantStatus {
		storeErr := &StoreError{Status: resp.StatusCode}
		var payload errorResponse
		if json.Unmarshal(body, &payload) == nil {
			storeErr.Code = payload.Code
			storeErr.Message = payload.Message
		}
		if resp.StatusCode != http.StatusConflict {
			c.logger.Error("store request failed",
				slog.String("method", req.Method),
				slog.Int("status", resp.StatusCode),
				slog.String("code", storeErr.Code),
				slog.String("body", string(body)),
			)
		}
		return storeErr
	}

	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (r row) toModel() *model.User {
	return &model.User{Name: r.Name, Email: r.Email, PasswordHash: r.Password}
}

var _ repository.UserRepository = (*HTTPClient)(nil)
