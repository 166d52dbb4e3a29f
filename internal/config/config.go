package config

import (
	"fmt"
	"os"

	"dcabot/internal/domain"
	"dcabot/internal/shared/quant"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Конфигурация запуска: окружение (.env для локали) + необязательный
// yaml-файл со списком активов. Ошибки здесь — фатальные и ловятся
// до первого сетевого вызова.

var two = decimal.NewFromInt(2)

type Config struct {
	TotalDeposit  decimal.Decimal      // пополнение за период
	MaxBuy        decimal.Decimal      // бюджет одного запуска = половина пополнения
	Assets        []domain.AssetConfig // порядок = порядок обработки
	QuoteCurrency string
	MakerTaker    bool
	SNSTopicARN   string
	HTTPAddr      string
	CronSpec      string // расписание для cmd/app; пусто — одиночный запуск
}

// Load читает конфигурацию. Дефолты повторяют боевую закупку:
// $170 пополнения, половина в рынок, 66% BTC / 34% ETH.
func Load() (Config, error) {
	_ = godotenv.Load() // .env опционален

	cfg := Config{
		TotalDeposit:  decimal.NewFromInt(170),
		QuoteCurrency: "GUSD",
		MakerTaker:    os.Getenv("MAKER_TAKER") == "1",
		SNSTopicARN:   os.Getenv("SNS_TOPIC_ARN"),
		HTTPAddr:      envOr("HTTP_ADDR", ":8080"),
		CronSpec:      os.Getenv("CRON_SPEC"),
		Assets:        defaultAssets(),
	}

	if v := os.Getenv("TOTAL_DEPOSIT"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: TOTAL_DEPOSIT=%q: %w", v, err)
		}
		cfg.TotalDeposit = d
	}

	if path := assetsFile(); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if cfg.TotalDeposit.Sign() <= 0 {
		return Config{}, fmt.Errorf("config: TOTAL_DEPOSIT должен быть > 0")
	}
	cfg.MaxBuy = quant.Quantize(cfg.TotalDeposit.Div(two), 2, quant.HalfUp)

	if err := validateAssets(cfg.Assets); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultAssets() []domain.AssetConfig {
	return []domain.AssetConfig{
		{
			Asset:          "BTC",
			Symbol:         "btcgusd",
			TickSize:       8,
			MinQuantity:    decimal.RequireFromString("0.00001"),
			SlippageFactor: decimal.RequireFromString("0.999"),
			Percentage:     decimal.NewFromInt(66),
		},
		{
			Asset:          "ETH",
			Symbol:         "ethgusd",
			TickSize:       6,
			MinQuantity:    decimal.RequireFromString("0.001"),
			SlippageFactor: decimal.RequireFromString("0.998"),
			Percentage:     decimal.NewFromInt(34),
		},
	}
}

func assetsFile() string {
	if p := os.Getenv("ASSETS_FILE"); p != "" {
		return p
	}
	if _, err := os.Stat("assets.yaml"); err == nil {
		return "assets.yaml"
	}
	return ""
}

// ====== yaml-файл активов ======

// decimal в yaml читаем строками: yaml.v3 не знает про decimal.Decimal,
// а через float64 деньги не возим.
type fileAsset struct {
	Asset          string `yaml:"asset"`
	Symbol         string `yaml:"symbol"`
	TickSize       int32  `yaml:"tick_size"`
	MinQuantity    string `yaml:"min_quantity"`
	SlippageFactor string `yaml:"slippage_factor"`
	Percentage     string `yaml:"percentage"`
}

type fileConfig struct {
	TotalDeposit string      `yaml:"total_deposit"`
	MakerTaker   *bool       `yaml:"maker_taker"`
	Assets       []fileAsset `yaml:"assets"`
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}

	if fc.TotalDeposit != "" {
		d, err := decimal.NewFromString(fc.TotalDeposit)
		if err != nil {
			return fmt.Errorf("config: %s: total_deposit=%q: %w", path, fc.TotalDeposit, err)
		}
		c.TotalDeposit = d
	}
	if fc.MakerTaker != nil {
		c.MakerTaker = *fc.MakerTaker
	}
	if len(fc.Assets) == 0 {
		return nil
	}

	assets := make([]domain.AssetConfig, 0, len(fc.Assets))
	for _, fa := range fc.Assets {
		a, err := fa.toDomain()
		if err != nil {
			return fmt.Errorf("config: %s: %w", path, err)
		}
		assets = append(assets, a)
	}
	c.Assets = assets
	return nil
}

func (fa fileAsset) toDomain() (domain.AssetConfig, error) {
	if fa.Asset == "" || fa.Symbol == "" {
		return domain.AssetConfig{}, fmt.Errorf("актив без тикера или символа")
	}
	minQty, err := decimal.NewFromString(fa.MinQuantity)
	if err != nil {
		return domain.AssetConfig{}, fmt.Errorf("%s: min_quantity=%q: %w", fa.Asset, fa.MinQuantity, err)
	}
	slip, err := decimal.NewFromString(fa.SlippageFactor)
	if err != nil {
		return domain.AssetConfig{}, fmt.Errorf("%s: slippage_factor=%q: %w", fa.Asset, fa.SlippageFactor, err)
	}
	pct, err := decimal.NewFromString(fa.Percentage)
	if err != nil {
		return domain.AssetConfig{}, fmt.Errorf("%s: percentage=%q: %w", fa.Asset, fa.Percentage, err)
	}
	if fa.TickSize <= 0 {
		return domain.AssetConfig{}, fmt.Errorf("%s: tick_size должен быть > 0", fa.Asset)
	}
	return domain.AssetConfig{
		Asset:          fa.Asset,
		Symbol:         fa.Symbol,
		TickSize:       fa.TickSize,
		MinQuantity:    minQty,
		SlippageFactor: slip,
		Percentage:     pct,
	}, nil
}

func validateAssets(assets []domain.AssetConfig) error {
	if len(assets) == 0 {
		return fmt.Errorf("config: нет ни одного актива")
	}
	sum := decimal.Zero
	for _, a := range assets {
		if a.MinQuantity.Sign() <= 0 {
			return fmt.Errorf("config: %s: min_quantity должен быть > 0", a.Asset)
		}
		if a.SlippageFactor.Sign() <= 0 {
			return fmt.Errorf("config: %s: slippage_factor должен быть > 0", a.Asset)
		}
		sum = sum.Add(a.Percentage)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		return fmt.Errorf("config: сумма долей %s%% != 100%%", sum)
	}
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
