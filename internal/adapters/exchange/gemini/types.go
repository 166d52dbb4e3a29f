package geminiadapter

import "fmt"

// ExchangeError — нормализованный не-2xx ответ биржи.
// Сырое тело сохраняем целиком: при разборе инцидента код причины
// (например, ApiKeyIpFilteringFailure) важнее текста ошибки.
type ExchangeError struct {
	HTTPStatus int
	Reason     string
	Message    string
	Body       string
}

func (e *ExchangeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("gemini: http %d (%s): %s", e.HTTPStatus, e.Reason, e.Message)
	}
	return fmt.Sprintf("gemini: http %d: %s", e.HTTPStatus, e.Body)
}

// ====== Ответы API (поля — как в JSON биржи) ======

type apiError struct {
	Result  string `json:"result"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type balanceEntry struct {
	Currency  string `json:"currency"`
	Amount    string `json:"amount"`
	Available string `json:"available"`
}

type tickerResponse struct {
	Symbol string `json:"symbol"`
	Bid    string `json:"bid"`
	Ask    string `json:"ask"`
}

type notionalVolumeResponse struct {
	APIMakerFeeBps int `json:"api_maker_fee_bps"`
	APITakerFeeBps int `json:"api_taker_fee_bps"`
	WebMakerFeeBps int `json:"web_maker_fee_bps"`
	WebTakerFeeBps int `json:"web_taker_fee_bps"`
}

// Ответ /v1/staking/rates: внешний ключ — UUID набора ставок,
// внутренний — валюта.
type stakingRatesResponse map[string]map[string]stakingRateEntry

type stakingRateEntry struct {
	ProviderID string `json:"providerId"`
	Rate       string `json:"rate"`
}

type stakeResponse struct {
	TransactionID string `json:"transactionId"`
	Currency      string `json:"currency"`
	Amount        string `json:"amount"`
	Status        string `json:"status"`
}

type orderResponse struct {
	OrderID         string   `json:"order_id"`
	ClientOrderID   string   `json:"client_order_id"`
	Symbol          string   `json:"symbol"`
	Price           string   `json:"price"`
	Side            string   `json:"side"`
	IsLive          bool     `json:"is_live"`
	IsCancelled     bool     `json:"is_cancelled"`
	Reason          string   `json:"reason"`
	Options         []string `json:"options"`
	ExecutedAmount  string   `json:"executed_amount"`
	RemainingAmount string   `json:"remaining_amount"`
	AvgExecutionPx  string   `json:"avg_execution_price"`
	OriginalAmount  string   `json:"original_amount"`
}
