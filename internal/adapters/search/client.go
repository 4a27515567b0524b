package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"catalogsync/internal/domain"
	"catalogsync/internal/ports"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	defaultAPIVersion  = "2024-11-01-preview"
	vectorField        = "text_vector"

	// plainTop is the candidate count without a scoring profile
	plainTop = 10
	// scoredTop is the candidate count when a scoring profile ranks results
	scoredTop = 15
)

// Config captures the settings required to query the index.
type Config struct {
	Endpoint       string
	Index          string
	APIKey         string
	APIVersion     string
	ScoringProfile string
	TimeoutSeconds int
}

// Client queries a vector search index for pairing candidates.
type Client struct {
	cfg        Config
	httpClient *http.Client
	requestID  func() string
}

// Ensure Client implements CandidateSearcher
var _ ports.CandidateSearcher = (*Client)(nil)

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRequestID overrides how client request ids are generated.
func WithRequestID(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// NewClient constructs a search client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			Endpoint:       strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
			Index:          strings.TrimSpace(cfg.Index),
			APIKey:         strings.TrimSpace(cfg.APIKey),
			APIVersion:     strings.TrimSpace(cfg.APIVersion),
			ScoringProfile: strings.TrimSpace(cfg.ScoringProfile),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
		requestID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.APIVersion == "" {
		client.cfg.APIVersion = defaultAPIVersion
	}
	return client
}

// Top returns how many candidates one request asks for.
func (c *Client) Top() int {
	if c.cfg.ScoringProfile != "" {
		return scoredTop
	}
	return plainTop
}

type searchRequest struct {
	Select            string        `json:"select"`
	Filter            string        `json:"filter"`
	Top               int           `json:"top"`
	ScoringProfile    string        `json:"scoringProfile,omitempty"`
	ScoringParameters []string      `json:"scoringParameters,omitempty"`
	VectorQueries     []vectorQuery `json:"vectorQueries"`
}

type vectorQuery struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Fields string `json:"fields"`
}

type searchResponse struct {
	Value []struct {
		IDItem int      `json:"id_item"`
		Score  *float64 `json:"@search.score"`
	} `json:"value"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("search request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Search requests the candidates of one query, sorted by descending score.
// Results without a score count as zero.
func (c *Client) Search(ctx context.Context, query domain.CandidateQuery) ([]domain.Candidate, error) {
	if c.cfg.Endpoint == "" || c.cfg.Index == "" {
		return nil, errors.New("search: endpoint and index required")
	}
	if strings.TrimSpace(query.Text) == "" {
		return nil, nil
	}

	endpoint, err := url.JoinPath(c.cfg.Endpoint, "indexes", c.cfg.Index, "docs", "search")
	if err != nil {
		return nil, fmt.Errorf("search request: build url: %w", err)
	}
	endpoint += "?api-version=" + url.QueryEscape(c.cfg.APIVersion)

	encoded, err := json.Marshal(c.buildRequest(query))
	if err != nil {
		return nil, fmt.Errorf("search request: encode body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("search request: new request: %w", err)
	}
	req.Header.Set("api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-ms-client-request-id", c.requestID())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("search request: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("search request: decode body: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("search request: %s: %s", parsed.Error.Code, parsed.Error.Message)
	}

	candidates := make([]domain.Candidate, 0, len(parsed.Value))
	for _, v := range parsed.Value {
		cand := domain.Candidate{ID: v.IDItem}
		if v.Score != nil {
			cand.Score = *v.Score
		}
		candidates = append(candidates, cand)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates, nil
}

func (c *Client) buildRequest(q domain.CandidateQuery) searchRequest {
	req := searchRequest{
		Select: "id_item",
		Filter: fmt.Sprintf("id_database eq %d and id_subject eq %d and id_item_type eq %d", int(q.Catalog), q.SubjectID, q.ItemType),
		Top:    c.Top(),
		VectorQueries: []vectorQuery{{
			Kind:   "text",
			Text:   q.Text,
			Fields: vectorField,
		}},
	}
	if c.cfg.ScoringProfile != "" {
		req.ScoringProfile = c.cfg.ScoringProfile
		req.ScoringParameters = []string{
			fmt.Sprintf("packageId:%d", q.PackageID),
			fmt.Sprintf("themeId:%d", q.ThemeID),
			fmt.Sprintf("knowledgeTypeId:%d", q.KnowledgeTypeID),
		}
	}
	return req
}
