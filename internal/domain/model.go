package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Базовые доменные сущности.
// Все деньги и количества — decimal, float64 в денежных расчётах запрещён:
// биржа отклоняет значения с лишней точностью, а двоичное округление
// непредсказуемо ломает инвариант «итог не выше лимита».

// Quote — лучшие цены по паре. Тянется свежей перед каждым расчётом,
// между активами не кэшируется (цена и баланс успевают уехать).
type Quote struct {
	Symbol string
	Bid    decimal.Decimal
	Ask    decimal.Decimal
}

// AssetConfig — параметры одного актива в закупке. Неизменяемы в рамках запуска.
type AssetConfig struct {
	Asset          string          // тикер: BTC, ETH…
	Symbol         string          // пара на бирже: btcgusd
	TickSize       int32           // знаков после запятой в количестве
	MinQuantity    decimal.Decimal // минимальный размер ордера на бирже
	SlippageFactor decimal.Decimal // множитель к референсной цене (0.999 для покупки)
	Percentage     decimal.Decimal // доля от общего бюджета, в процентах
}

// OrderPlan — готовый к отправке план ордера. Создаётся движком расчёта,
// после создания не меняется, используется ровно один раз.
type OrderPlan struct {
	Asset     string
	Symbol    string
	Quantity  decimal.Decimal // кратно шагу TickSize
	Price     decimal.Decimal // цена исполнения, центы
	Cost      decimal.Decimal // цена * количество, округлено вниз до центов
	Fee       decimal.Decimal // комиссия, округлена ВВЕРХ до центов
	TotalCost decimal.Decimal // Cost + Fee; всегда <= выделенного лимита
	Side      string          // "buy" / "sell"
	PostOnly  bool            // maker-or-cancel
}

// OrderResult — ответ биржи на размещение ордера.
type OrderResult struct {
	OrderID         string
	ClientOrderID   string
	Symbol          string
	IsLive          bool
	IsCancelled     bool
	CancelReason    string
	ExecutedAmount  decimal.Decimal
	RemainingAmount decimal.Decimal
	AvgPrice        decimal.Decimal
}

// NotionalVolume — комиссии аккаунта (в базисных пунктах) по 30-дневному обороту.
type NotionalVolume struct {
	MakerFeeBps int
	TakerFeeBps int
}

// StakingRate — условия стейкинга по валюте: провайдер и годовая ставка.
type StakingRate struct {
	ProviderID string
	APY        decimal.Decimal
}

// StakeResult — ответ биржи на депозит в стейкинг.
type StakeResult struct {
	TransactionID string
	Currency      string
	Amount        decimal.Decimal
	Status        string
}

// Статус обработки одного актива в запуске.
type OutcomeStatus string

const (
	OutcomePlaced  OutcomeStatus = "placed"
	OutcomeSkipped OutcomeStatus = "skipped"
	OutcomeFailed  OutcomeStatus = "error"
)

// Outcome — результат по активу. Skipped — не ошибка, а осознанное «не покупаем»
// с причиной; Failed несёт ошибку транспорта/биржи и не прерывает остальные активы.
type Outcome struct {
	Asset  string
	Status OutcomeStatus
	Plan   *OrderPlan
	Result *OrderResult
	Reason string // для Skipped
	Err    error  // для Failed
}

// Контракт адаптера биржи
type Exchange interface {
	// AvailableBalance возвращает доступный остаток валюты.
	// Отсутствие валюты в списке балансов — это ноль, а не ошибка.
	AvailableBalance(ctx context.Context, currency string) (decimal.Decimal, error)
	// Ticker — публичная котировка (bid/ask) по паре.
	Ticker(ctx context.Context, symbol string) (Quote, error)
	// NotionalVolume — приватный запрос комиссий аккаунта.
	NotionalVolume(ctx context.Context) (NotionalVolume, error)
	// PlaceOrder отправляет ордер ровно один раз; ретраев внутри нет.
	PlaceOrder(ctx context.Context, plan OrderPlan) (*OrderResult, error)
	// OrderStatus / CancelOrder — служебные операции по ранее созданному ордеру.
	OrderStatus(ctx context.Context, orderID string) (*OrderResult, error)
	CancelOrder(ctx context.Context, orderID string) (*OrderResult, error)
	// StakingRates — условия стейкинга по валютам (валюта → провайдер/ставка).
	StakingRates(ctx context.Context) (map[string]StakingRate, error)
	// Stake отправляет депозит в стейкинг; как и ордер — ровно один раз.
	Stake(ctx context.Context, currency, providerID string, amount decimal.Decimal) (*StakeResult, error)
}
