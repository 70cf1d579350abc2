// Package exchange provides the Bybit REST client for closed-PnL history.
package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"bybit-review/internal/errors"
	"bybit-review/internal/logging"
	"bybit-review/internal/models"
	"bybit-review/pkg/utils"
)

const (
	mainnetURL = "https://api.bybit.com"
	testnetURL = "https://api-testnet.bybit.com"

	closedPnLPath = "/v5/position/closed-pnl"
	recvWindow    = "5000"
	pageLimit     = 100

	// defaultMaxPages bounds pagination at 20k records per window.
	defaultMaxPages = 200
)

// Bybit v5 return codes that matter to the error taxonomy.
const (
	retCodeOK          = 0
	retCodeInvalidKey  = 10003
	retCodeInvalidSign = 10004
	retCodePermission  = 10005
	retCodeRateLimit   = 10006
)

// ClientConfig holds configuration for the Bybit client.
type ClientConfig struct {
	APIKey      string
	APISecret   string
	Category    string // linear or inverse
	Testnet     bool
	BaseURL     string // overrides the mainnet/testnet URL when set
	Timeout     time.Duration
	InsecureTLS bool
	MaxPages    int // pagination cap per fetch; 0 means the default
	Retry       utils.RetryConfig
}

// Client fetches closed-PnL records from Bybit.
type Client struct {
	http     *resty.Client
	apiKey   string
	secret   string
	category string
	maxPages int
	retry    utils.RetryConfig
	logger   zerolog.Logger
}

// NewClient creates a new Bybit client.
func NewClient(cfg ClientConfig, logger zerolog.Logger) *Client {
	baseURL := mainnetURL
	if cfg.Testnet {
		baseURL = testnetURL
	}
	if cfg.BaseURL != "" {
		baseURL = cfg.BaseURL
	}

	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(cfg.Timeout)

	if cfg.InsecureTLS {
		http.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
		logger.Warn().Msg("TLS certificate verification disabled")
	}

	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = utils.DefaultRetryConfig()
	}
	retry.Retryable = isRetryable

	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	return &Client{
		http:     http,
		apiKey:   cfg.APIKey,
		secret:   cfg.APISecret,
		category: cfg.Category,
		maxPages: maxPages,
		retry:    retry,
		logger:   logger,
	}
}

// closedPnLResponse mirrors the Bybit v5 closed-pnl envelope.
type closedPnLResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		Category       string            `json:"category"`
		List           []closedPnLRecord `json:"list"`
		NextPageCursor string            `json:"nextPageCursor"`
	} `json:"result"`
}

// closedPnLRecord is one raw record; Bybit reports decimals as strings.
type closedPnLRecord struct {
	Symbol        string `json:"symbol"`
	OrderID       string `json:"orderId"`
	Side          string `json:"side"`
	Qty           string `json:"qty"`
	ClosedSize    string `json:"closedSize"`
	AvgEntryPrice string `json:"avgEntryPrice"`
	AvgExitPrice  string `json:"avgExitPrice"`
	ClosedPnl     string `json:"closedPnl"`
	OpenFee       string `json:"openFee"`
	CloseFee      string `json:"closeFee"`
	Leverage      string `json:"leverage"`
	CreatedTime   string `json:"createdTime"`
	UpdatedTime   string `json:"updatedTime"`
	StopLoss      string `json:"stopLoss"`
	TakeProfit    string `json:"takeProfit"`
}

// FetchClosedPnL fetches all closed-PnL records in [start, end], paginating
// until the cursor is exhausted. The returned trades are ordered by exit
// time ascending. Malformed records are logged and skipped.
func (c *Client) FetchClosedPnL(ctx context.Context, start, end time.Time) ([]models.Trade, error) {
	if c.apiKey == "" || c.secret == "" {
		return nil, errors.NewFetchError(closedPnLPath, "missing API credentials", errors.ErrAuthFailed)
	}

	var trades []models.Trade
	cursor := ""

	for page := 0; page < c.maxPages; page++ {
		resp, err := c.fetchPage(ctx, start, end, cursor)
		if err != nil {
			return nil, err
		}

		logging.LogFetchPage(c.logger, closedPnLPath, page, len(resp.Result.List))

		if len(resp.Result.List) == 0 {
			cursor = ""
			break
		}

		for _, rec := range resp.Result.List {
			trade, err := rec.toTrade()
			if err != nil {
				symLogger := logging.WithSymbol(c.logger, rec.Symbol)
				symLogger.Warn().Err(err).Msg("Skipping malformed record")
				continue
			}
			trades = append(trades, trade)
		}

		cursor = resp.Result.NextPageCursor
		if cursor == "" {
			break
		}
	}

	if cursor != "" {
		c.logger.Warn().
			Int("pages", c.maxPages).
			Msg("Pagination cap reached; results for this window are truncated")
	}

	sort.Slice(trades, func(i, j int) bool {
		return trades[i].ExitTime.Before(trades[j].ExitTime)
	})

	return trades, nil
}

// fetchPage requests one page through the retry policy.
func (c *Client) fetchPage(ctx context.Context, start, end time.Time, cursor string) (*closedPnLResponse, error) {
	params := url.Values{}
	params.Set("category", c.category)
	params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	params.Set("limit", strconv.Itoa(pageLimit))
	if cursor != "" {
		params.Set("cursor", cursor)
	}

	return utils.RetryWithResult(ctx, c.retry, func() (*closedPnLResponse, error) {
		return c.doRequest(ctx, params)
	})
}

func (c *Client) doRequest(ctx context.Context, params url.Values) (*closedPnLResponse, error) {
	query := params.Encode()
	timestamp := strconv.FormatInt(time.Now().UnixMilli(), 10)

	started := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-BAPI-API-KEY", c.apiKey).
		SetHeader("X-BAPI-TIMESTAMP", timestamp).
		SetHeader("X-BAPI-RECV-WINDOW", recvWindow).
		SetHeader("X-BAPI-SIGN", c.sign(timestamp, query)).
		SetQueryParamsFromValues(params).
		Get(closedPnLPath)
	logging.LogAPICall(c.logger, "GET", closedPnLPath, time.Since(started), err)

	if err != nil {
		var nerr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
			return nil, errors.NewFetchError(closedPnLPath, "request timed out", errors.ErrTimeout)
		}
		return nil, errors.NewFetchError(closedPnLPath, "request failed", errors.ErrConnectionFailed)
	}

	if resp.StatusCode() == 429 || resp.StatusCode() == 403 {
		return nil, errors.NewFetchError(closedPnLPath, fmt.Sprintf("HTTP %d", resp.StatusCode()), errors.ErrRateLimited)
	}
	if resp.StatusCode() != 200 {
		return nil, errors.NewFetchError(closedPnLPath, fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), resp.String()), errors.ErrConnectionFailed)
	}

	var parsed closedPnLResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, errors.NewFetchError(closedPnLPath, "unparseable body", errors.ErrSchemaMismatch)
	}

	switch parsed.RetCode {
	case retCodeOK:
		return &parsed, nil
	case retCodeInvalidKey, retCodeInvalidSign, retCodePermission:
		return nil, errors.NewFetchError(closedPnLPath, parsed.RetMsg, errors.ErrAuthFailed)
	case retCodeRateLimit:
		return nil, errors.NewFetchError(closedPnLPath, parsed.RetMsg, errors.ErrRateLimited)
	default:
		return nil, errors.NewFetchError(closedPnLPath, fmt.Sprintf("retCode %d: %s", parsed.RetCode, parsed.RetMsg), errors.ErrSchemaMismatch)
	}
}

// sign computes the v5 HMAC signature over timestamp+apiKey+recvWindow+query.
func (c *Client) sign(timestamp, query string) string {
	mac := hmac.New(sha256.New, []byte(c.secret))
	mac.Write([]byte(timestamp + c.apiKey + recvWindow + query))
	return hex.EncodeToString(mac.Sum(nil))
}

// isRetryable limits retries to transport errors, timeouts, and rate
// limiting. Auth and schema failures will not fix themselves.
func isRetryable(err error) bool {
	return errors.Is(err, errors.ErrConnectionFailed) ||
		errors.Is(err, errors.ErrRateLimited) ||
		errors.Is(err, errors.ErrTimeout)
}

// toTrade normalizes a raw record into a Trade.
//
// On closed-pnl records the side field is the side of the closing order,
// so a Sell close means the position was long.
func (r closedPnLRecord) toTrade() (models.Trade, error) {
	var zero models.Trade

	pnl, err := strconv.ParseFloat(r.ClosedPnl, 64)
	if err != nil {
		return zero, errors.NewComputeError("closedPnl", r.ClosedPnl, "not a number")
	}

	entryMs, err := strconv.ParseInt(r.CreatedTime, 10, 64)
	if err != nil {
		return zero, errors.NewComputeError("createdTime", r.CreatedTime, "not a millisecond timestamp")
	}
	exitMs, err := strconv.ParseInt(r.UpdatedTime, 10, 64)
	if err != nil {
		return zero, errors.NewComputeError("updatedTime", r.UpdatedTime, "not a millisecond timestamp")
	}
	if exitMs < entryMs {
		return zero, errors.NewComputeError("updatedTime", r.UpdatedTime, "exit precedes entry")
	}

	var side models.Side
	switch r.Side {
	case "Sell":
		side = models.SideLong
	case "Buy":
		side = models.SideShort
	default:
		return zero, errors.NewComputeError("side", r.Side, "unknown side")
	}

	return models.Trade{
		Symbol:     r.Symbol,
		Side:       side,
		EntryTime:  time.UnixMilli(entryMs).UTC(),
		ExitTime:   time.UnixMilli(exitMs).UTC(),
		PnL:        pnl,
		EntryPrice: parseOptional(r.AvgEntryPrice),
		ExitPrice:  parseOptional(r.AvgExitPrice),
		Size:       parseOptional(r.Qty),
		Fees:       parseOptional(r.OpenFee) + parseOptional(r.CloseFee),
		Leverage:   parseOptional(r.Leverage),
		OrderID:    r.OrderID,
		StopLoss:   parseOptional(r.StopLoss),
		TakeProfit: parseOptional(r.TakeProfit),
	}, nil
}

// parseOptional parses an optional decimal string; empty or bad values are 0.
func parseOptional(s string) float64 {
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
