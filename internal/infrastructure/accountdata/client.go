package accountdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kiyon21/Finsight-AI/internal/metrics"
	"github.com/kiyon21/Finsight-AI/internal/model"
	"github.com/rs/zerolog"
)

// UserDataTransactionLimit UserData 只取最近的 100 笔交易
const UserDataTransactionLimit = 100

type Config struct {
	BaseURL string // 例如 "http://localhost:5000"
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	metrics    *metrics.Metrics
}

func NewClient(cfg Config, log zerolog.Logger, m *metrics.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "accountdata").Logger(),
		metrics:    m,
	}
}

var _ Fetcher = (*Client)(nil)

func (c *Client) Goals(ctx context.Context, userID, token string) []model.Goal {
	endpoint := fmt.Sprintf("/api/users/%s/goals", url.PathEscape(userID))
	return convert[model.Goal](c.getList(ctx, "goals", endpoint, token))
}

func (c *Client) Income(ctx context.Context, userID, token string) []model.IncomeSource {
	endpoint := fmt.Sprintf("/api/users/%s/income", url.PathEscape(userID))
	return convert[model.IncomeSource](c.getList(ctx, "income", endpoint, token))
}

func (c *Client) Transactions(ctx context.Context, userID, token string, q TransactionQuery) []model.Transaction {
	endpoint := fmt.Sprintf("/api/transactions/%s/transactions", url.PathEscape(userID))

	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.StartDate != "" {
		params.Set("startDate", q.StartDate)
	}
	if q.EndDate != "" {
		params.Set("endDate", q.EndDate)
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	return convert[model.Transaction](c.getList(ctx, "transactions", endpoint, token))
}

// UserData 依次拉取 goals、income 和最近的交易
func (c *Client) UserData(ctx context.Context, userID, token string) model.FinancialData {
	return model.FinancialData{
		Goals:        c.Goals(ctx, userID, token),
		Income:       c.Income(ctx, userID, token),
		Transactions: c.Transactions(ctx, userID, token, TransactionQuery{Limit: UserDataTransactionLimit}),
	}
}

// getList 发起 GET 请求并解码 JSON 对象数组。失败时只记日志并返回 nil。
func (c *Client) getList(ctx context.Context, resource, endpoint, token string) []map[string]any {
	reqURL := c.baseURL + endpoint
	log := c.log.With().Str("resource", resource).Str("url", reqURL).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		log.Error().Err(err).Msg("failed to build account-data request")
		c.metrics.AccountFetches.WithLabelValues(resource, "error").Inc()
		return nil
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("error fetching account data")
		c.metrics.AccountFetches.WithLabelValues(resource, "error").Inc()
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden {
		log.Warn().Msg("403 Forbidden: access denied, authentication may be required")
		if token == "" {
			log.Warn().Msg("hint: provide a bearer token (Firebase ID token) with the request")
		}
		c.metrics.AccountFetches.WithLabelValues(resource, "forbidden").Inc()
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		log.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("account-data API returned an error status")
		c.metrics.AccountFetches.WithLabelValues(resource, "error").Inc()
		return nil
	}

	var items []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		log.Error().Err(err).Msg("failed to decode account-data response")
		c.metrics.AccountFetches.WithLabelValues(resource, "error").Inc()
		return nil
	}
	c.metrics.AccountFetches.WithLabelValues(resource, "ok").Inc()
	return items
}

func convert[T ~map[string]any](items []map[string]any) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		out = append(out, T(it))
	}
	return out
}
