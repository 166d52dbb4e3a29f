package webserver

import (
	"context"
	"fmt"

	geminiadapter "dcabot/internal/adapters/exchange/gemini"
	"dcabot/internal/app/runner"
	"dcabot/internal/config"
	"dcabot/internal/infra/alerts"
	"dcabot/internal/infra/secrets"
	"dcabot/internal/transport/httpapi"
	"dcabot/internal/usecase/fees"

	"github.com/rs/zerolog"
)

// Сборка веб-варианта: секреты → подписант → клиент биржи → раннер → HTTP.
func New(ctx context.Context, cfg config.Config, log zerolog.Logger) (*httpapi.Server, error) {
	keys, err := secrets.Load(ctx)
	if err != nil {
		return nil, err
	}
	signer, err := geminiadapter.NewSigner(keys.APIKey, keys.APISecret)
	if err != nil {
		return nil, fmt.Errorf("webserver: %w", err)
	}
	ex := geminiadapter.New(signer, log)
	notifier := alerts.New(ctx, cfg.SNSTopicARN, log)
	feeSvc := fees.New(ex, notifier, log)
	run := runner.New(cfg, ex, feeSvc, notifier, log)

	return httpapi.New(cfg.HTTPAddr, &httpapi.RunnerAdapter{R: run}, log), nil
}
