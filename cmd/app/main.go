package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	geminiadapter "dcabot/internal/adapters/exchange/gemini"
	"dcabot/internal/app/runner"
	"dcabot/internal/config"
	"dcabot/internal/infra/alerts"
	"dcabot/internal/infra/secrets"
	"dcabot/internal/transport/cli"
	"dcabot/internal/usecase/convert"
	"dcabot/internal/usecase/fees"
	"dcabot/internal/usecase/stake"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	keys, err := secrets.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка получения ключей: %v\n", err)
		os.Exit(1)
	}
	signer, err := geminiadapter.NewSigner(keys.APIKey, keys.APISecret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}

	ex := geminiadapter.New(signer, log)

	// `dcabot-app convert` — разовая конвертация остатка GUSD в USD
	if len(os.Args) > 1 && os.Args[1] == "convert" {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		res, err := convert.NewSweeper(ex, log).SweepGUSD(runCtx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка конвертации: %v\n", err)
			os.Exit(1)
		}
		if res == nil {
			fmt.Println("GUSD для конвертации нет.")
			return
		}
		fmt.Printf("Конвертация выставлена: order_id=%s live=%v\n", res.OrderID, res.IsLive)
		return
	}

	// `dcabot-app stake` — депозит всего доступного ETH в стейкинг
	if len(os.Args) > 1 && os.Args[1] == "stake" {
		runCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		res, err := stake.NewStaker(ex, log, "ETH", 6).Deposit(runCtx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка стейкинга: %v\n", err)
			os.Exit(1)
		}
		if res == nil {
			fmt.Println("ETH для стейкинга нет.")
			return
		}
		fmt.Printf("Стейкинг отправлен: tx=%s amount=%s %s\n",
			res.TransactionID, res.Amount, res.Currency)
		return
	}

	notifier := alerts.New(ctx, cfg.SNSTopicARN, log)
	feeSvc := fees.New(ex, notifier, log)
	run := runner.New(cfg, ex, feeSvc, notifier, log)
	pr := cli.NewPresenter()

	runOnce := func() {
		runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()
		report, err := run.Execute(runCtx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Ошибка выполнения: %v\n", err)
			return
		}
		pr.Show(report, cfg.Assets)
	}

	// Без расписания — одиночный запуск (под внешний планировщик)
	if cfg.CronSpec == "" {
		runOnce()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(cfg.CronSpec, runOnce); err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка расписания %q: %v\n", cfg.CronSpec, err)
		os.Exit(1)
	}
	log.Info().Str("spec", cfg.CronSpec).Msg("работаем по расписанию")
	c.Start()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("останавливаемся...")
	<-c.Stop().Done()
}
