package geminiadapter

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Signer подписывает приватные запросы Gemini.
//
// Нонс — счётчик, засеянный миллисекундами на момент создания, +1 на каждый
// вызов. Чистая метка времени не годится: два запроса в одну миллисекунду
// дали бы одинаковый нонс, и биржа отвергла бы второй как replay.
// Состояние принадлежит ровно одному клиенту; из нескольких горутин
// без внешней синхронизации не дёргать.
type Signer struct {
	apiKey string
	secret []byte
	nonce  int64
}

func NewSigner(apiKey, apiSecret string) (*Signer, error) {
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("gemini: api key/secret не заданы")
	}
	return &Signer{
		apiKey: apiKey,
		secret: []byte(apiSecret),
		nonce:  time.Now().UnixMilli(),
	}, nil
}

func (s *Signer) nextNonce() int64 {
	s.nonce++
	return s.nonce
}

// Sign собирает канонический payload {request, nonce, extra...},
// кодирует его в base64 и считает HMAC-SHA384 hex поверх base64-строки —
// ровно то, что сервер пересчитает на своей стороне.
// encoding/json сортирует ключи map — представление байт-в-байт стабильно.
func (s *Signer) Sign(endpoint string, extra map[string]any) (payloadB64, signature string, nonce int64, err error) {
	nonce = s.nextNonce()

	payload := map[string]any{
		"request": endpoint,
		"nonce":   strconv.FormatInt(nonce, 10),
	}
	for k, v := range extra {
		payload[k] = v
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", 0, fmt.Errorf("gemini: payload marshal: %w", err)
	}
	payloadB64 = base64.StdEncoding.EncodeToString(raw)

	mac := hmac.New(sha512.New384, s.secret)
	mac.Write([]byte(payloadB64))
	signature = hex.EncodeToString(mac.Sum(nil))
	return payloadB64, signature, nonce, nil
}

// APIKey — публичный ключ для заголовка X-GEMINI-APIKEY.
func (s *Signer) APIKey() string { return s.apiKey }
