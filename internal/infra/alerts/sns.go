package alerts

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/rs/zerolog"
)

// Уведомления через SNS. Обёртка нарочно «мягкая»: недоставленный алерт
// логируется, но никогда не валит торговый запуск.

type Notifier struct {
	topicARN string
	client   *sns.Client
	log      zerolog.Logger
}

// New возвращает нотификатор; при пустом ARN — заглушку, которая только
// пишет в лог.
func New(ctx context.Context, topicARN string, log zerolog.Logger) *Notifier {
	n := &Notifier{topicARN: topicARN, log: log}
	if topicARN == "" {
		log.Warn().Msg("SNS topic ARN не задан, алерты только в лог")
		return n
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Error().Err(err).Msg("aws config для SNS не собрался, алерты только в лог")
		return n
	}
	n.client = sns.NewFromConfig(cfg)
	return n
}

// Send публикует алерт best-effort.
func (n *Notifier) Send(ctx context.Context, subject, message string) {
	if n == nil {
		return
	}
	n.log.Warn().Str("subject", subject).Str("message", message).Msg("alert")
	if n.client == nil {
		return
	}
	_, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &n.topicARN,
		Subject:  &subject,
		Message:  &message,
	})
	if err != nil {
		n.log.Error().Err(err).Str("subject", subject).Msg("не удалось отправить SNS-алерт")
		return
	}
	n.log.Info().Str("subject", subject).Msg("алерт отправлен")
}
