package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Ключи Gemini лежат в SSM Parameter Store одним SecureString-параметром
// с JSON вида {"API key": "...", "API Secret": "..."}.
// Для локального запуска достаточно переменных окружения — тогда в AWS не ходим.

const parameterName = "GeminiApiKeys"

type Keys struct {
	APIKey    string
	APISecret string
}

// Load возвращает ключи: сначала окружение (GEMINI_API_KEY / GEMINI_API_SECRET),
// затем Parameter Store. Ошибка здесь — конфигурационная, запуск прерывается
// до любого сетевого вызова к бирже.
func Load(ctx context.Context) (Keys, error) {
	if k, ok := fromEnv(); ok {
		return k, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return Keys{}, fmt.Errorf("secrets: aws config: %w", err)
	}
	client := ssm.NewFromConfig(cfg)

	withDecryption := true
	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           ptr(parameterName),
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return Keys{}, fmt.Errorf("secrets: параметр %s: %w", parameterName, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return Keys{}, fmt.Errorf("secrets: параметр %s пуст", parameterName)
	}

	var raw struct {
		APIKey    string `json:"API key"`
		APISecret string `json:"API Secret"`
	}
	if err := json.Unmarshal([]byte(*out.Parameter.Value), &raw); err != nil {
		return Keys{}, fmt.Errorf("secrets: разбор %s: %w", parameterName, err)
	}
	if raw.APIKey == "" || raw.APISecret == "" {
		return Keys{}, fmt.Errorf("secrets: в параметре %s нет ключей", parameterName)
	}
	return Keys{APIKey: raw.APIKey, APISecret: raw.APISecret}, nil
}

func fromEnv() (Keys, bool) {
	k := Keys{
		APIKey:    os.Getenv("GEMINI_API_KEY"),
		APISecret: os.Getenv("GEMINI_API_SECRET"),
	}
	return k, k.APIKey != "" && k.APISecret != ""
}

func ptr[T any](v T) *T { return &v }
