package geminiadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"dcabot/internal/domain"
	"dcabot/internal/shared/retry"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultBaseURL = "https://api.gemini.com"

// Client — REST-клиент Gemini: приватные POST с подписью и публичные GET.
// Кроме счётчика нонса в Signer изменяемого торгового состояния не держит.
type Client struct {
	baseURL string
	http    *http.Client
	signer  *Signer
	log     zerolog.Logger
}

// New собирает клиента с таймаутами «быстрый connect, длинное чтение»:
// висящий invocation хуже, чем оборванный.
func New(signer *Signer, log zerolog.Logger) *Client {
	dialer := &net.Dialer{Timeout: 5 * time.Second}
	return &Client{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 20 * time.Second,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
		signer: signer,
		log:    log,
	}
}

// WithBaseURL — подмена адреса для тестов.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

// privatePost отправляет подписанный запрос ровно один раз.
// Ретраев нет принципиально: повтор с тем же нонсом — replay,
// повтор ордера с новым нонсом — двойная покупка. Решает вызывающий.
func (c *Client) privatePost(ctx context.Context, endpoint string, extra map[string]any, out any) error {
	payloadB64, signature, nonce, err := c.signer.Sign(endpoint, extra)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("gemini: запрос %s: %w", endpoint, err)
	}
	req.Header.Set("X-GEMINI-APIKEY", c.signer.APIKey())
	req.Header.Set("X-GEMINI-PAYLOAD", payloadB64)
	req.Header.Set("X-GEMINI-SIGNATURE", signature)
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Cache-Control", "no-cache")

	c.log.Debug().Str("endpoint", endpoint).Int64("nonce", nonce).Msg("private request")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gemini: %s: %w", endpoint, err)
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("gemini: %s: чтение ответа: %w", endpoint, err)
	}
	if res.StatusCode/100 != 2 {
		return newExchangeError(res.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("gemini: %s: не-JSON ответ: %s", endpoint, string(body))
	}
	return nil
}

// publicGet — неподписанный GET; чтение идемпотентно, поэтому с ретраем.
func (c *Client) publicGet(ctx context.Context, endpoint string, out any) error {
	return retry.WithRetry(ctx, 2, 400*time.Millisecond, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
		if err != nil {
			return err
		}
		res, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = res.Body.Close() }()

		body, err := io.ReadAll(res.Body)
		if err != nil {
			return err
		}
		if res.StatusCode/100 != 2 {
			return newExchangeError(res.StatusCode, body)
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("gemini: %s: не-JSON ответ: %s", endpoint, string(body))
		}
		return nil
	})
}

func newExchangeError(status int, body []byte) *ExchangeError {
	var ae apiError
	_ = json.Unmarshal(body, &ae)
	return &ExchangeError{
		HTTPStatus: status,
		Reason:     ae.Reason,
		Message:    ae.Message,
		Body:       string(body),
	}
}

// ====== Реализация domain.Exchange ======

func (c *Client) AvailableBalance(ctx context.Context, currency string) (decimal.Decimal, error) {
	var entries []balanceEntry
	if err := c.privatePost(ctx, "/v1/balances", nil, &entries); err != nil {
		return decimal.Zero, err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Currency, currency) {
			return parseDecimal(e.Available, "available")
		}
	}
	// валюты нет в списке — остаток нулевой
	return decimal.Zero, nil
}

func (c *Client) Ticker(ctx context.Context, symbol string) (domain.Quote, error) {
	var t tickerResponse
	if err := c.publicGet(ctx, "/v2/ticker/"+strings.ToLower(symbol), &t); err != nil {
		return domain.Quote{}, err
	}
	bid, err := parseDecimal(t.Bid, "bid")
	if err != nil {
		return domain.Quote{}, err
	}
	ask, err := parseDecimal(t.Ask, "ask")
	if err != nil {
		return domain.Quote{}, err
	}
	return domain.Quote{Symbol: symbol, Bid: bid, Ask: ask}, nil
}

func (c *Client) NotionalVolume(ctx context.Context) (domain.NotionalVolume, error) {
	var nv notionalVolumeResponse
	if err := c.privatePost(ctx, "/v1/notionalvolume", nil, &nv); err != nil {
		return domain.NotionalVolume{}, err
	}
	return domain.NotionalVolume{
		MakerFeeBps: nv.APIMakerFeeBps,
		TakerFeeBps: nv.APITakerFeeBps,
	}, nil
}

func (c *Client) PlaceOrder(ctx context.Context, plan domain.OrderPlan) (*domain.OrderResult, error) {
	extra := map[string]any{
		"symbol":          plan.Symbol,
		"amount":          plan.Quantity.String(),
		"price":           plan.Price.StringFixed(2),
		"side":            plan.Side,
		"type":            "exchange limit",
		"client_order_id": uuid.NewString(),
	}
	if plan.PostOnly {
		extra["options"] = []string{"maker-or-cancel"}
	}

	var or orderResponse
	if err := c.privatePost(ctx, "/v1/order/new", extra, &or); err != nil {
		return nil, err
	}
	return toOrderResult(or)
}

func (c *Client) OrderStatus(ctx context.Context, orderID string) (*domain.OrderResult, error) {
	var or orderResponse
	if err := c.privatePost(ctx, "/v1/order/status", map[string]any{"order_id": orderID}, &or); err != nil {
		return nil, err
	}
	return toOrderResult(or)
}

func (c *Client) CancelOrder(ctx context.Context, orderID string) (*domain.OrderResult, error) {
	var or orderResponse
	if err := c.privatePost(ctx, "/v1/order/cancel", map[string]any{"order_id": orderID}, &or); err != nil {
		return nil, err
	}
	return toOrderResult(or)
}

// StakingRates возвращает условия стейкинга валюта → {providerId, ставка}.
// Биржа группирует ставки по UUID набора; наборы сплющиваем, первый
// встретившийся провайдер по валюте выигрывает.
func (c *Client) StakingRates(ctx context.Context) (map[string]domain.StakingRate, error) {
	var raw stakingRatesResponse
	if err := c.publicGet(ctx, "/v1/staking/rates", &raw); err != nil {
		return nil, err
	}

	rates := make(map[string]domain.StakingRate)
	for _, byCurrency := range raw {
		for currency, entry := range byCurrency {
			if _, seen := rates[currency]; seen {
				continue
			}
			apy, err := parseDecimalOrZero(entry.Rate)
			if err != nil {
				return nil, fmt.Errorf("gemini: staking rate %s=%q: %w", currency, entry.Rate, err)
			}
			rates[currency] = domain.StakingRate{ProviderID: entry.ProviderID, APY: apy}
		}
	}
	return rates, nil
}

func (c *Client) Stake(ctx context.Context, currency, providerID string, amount decimal.Decimal) (*domain.StakeResult, error) {
	extra := map[string]any{
		"currency":   currency,
		"amount":     amount.String(),
		"providerId": providerID,
	}
	var sr stakeResponse
	if err := c.privatePost(ctx, "/v1/staking/stake", extra, &sr); err != nil {
		return nil, err
	}
	staked, err := parseDecimalOrZero(sr.Amount)
	if err != nil {
		return nil, fmt.Errorf("gemini: staked amount %q: %w", sr.Amount, err)
	}
	return &domain.StakeResult{
		TransactionID: sr.TransactionID,
		Currency:      sr.Currency,
		Amount:        staked,
		Status:        sr.Status,
	}, nil
}

// ====== Маппинг ответов ======

func toOrderResult(or orderResponse) (*domain.OrderResult, error) {
	executed, err := parseDecimalOrZero(or.ExecutedAmount)
	if err != nil {
		return nil, fmt.Errorf("gemini: executed_amount %q: %w", or.ExecutedAmount, err)
	}
	remaining, err := parseDecimalOrZero(or.RemainingAmount)
	if err != nil {
		return nil, fmt.Errorf("gemini: remaining_amount %q: %w", or.RemainingAmount, err)
	}
	avg, err := parseDecimalOrZero(or.AvgExecutionPx)
	if err != nil {
		return nil, fmt.Errorf("gemini: avg_execution_price %q: %w", or.AvgExecutionPx, err)
	}
	return &domain.OrderResult{
		OrderID:         or.OrderID,
		ClientOrderID:   or.ClientOrderID,
		Symbol:          or.Symbol,
		IsLive:          or.IsLive,
		IsCancelled:     or.IsCancelled,
		CancelReason:    or.Reason,
		ExecutedAmount:  executed,
		RemainingAmount: remaining,
		AvgPrice:        avg,
	}, nil
}

func parseDecimal(s, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("gemini: поле %s=%q: %w", field, s, err)
	}
	return d, nil
}

func parseDecimalOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
