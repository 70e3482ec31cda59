package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// Verifier проверяет подлинность входящих webhook уведомлений по shared secret.
// Провайдер подписывает запрос заголовком x-signature вида
// "ts=<unix-seconds>,v1=<hex-digest>", где v1 = HMAC-SHA256 от канонического
// манифеста (request-id, timestamp, тело запроса).
type Verifier struct {
	secret string
}

// NewVerifier создаёт Verifier с указанным shared secret
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify проверяет подпись запроса.
// Возвращает false (никогда не panic/error) если secret не сконфигурирован,
// заголовок не распарсился или digest не совпал. Проверка должна выполняться
// до любой state-changing работы.
func (v *Verifier) Verify(rawBody []byte, signatureHeader, requestID string) bool {
	if v == nil || v.secret == "" {
		return false
	}
	ts, digest, ok := parseSignatureHeader(signatureHeader)
	if !ok {
		return false
	}

	expected := ComputeDigest(v.secret, requestID, ts, rawBody)

	// Сравнение за константное время, чтобы не утекал префикс digest по таймингу
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(digest))) == 1
}

// ComputeDigest вычисляет hex HMAC-SHA256 digest канонического манифеста.
// Экспортирован для тестов и для подписи запросов в sandbox-утилитах.
func ComputeDigest(secret, requestID, ts string, rawBody []byte) string {
	manifest := fmt.Sprintf("request-id:%s;ts:%s;body:%s;", requestID, ts, rawBody)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

// parseSignatureHeader разбирает заголовок вида "ts=1704908010,v1=618c8534...".
// Порядок пар не фиксирован, неизвестные ключи игнорируются.
func parseSignatureHeader(header string) (ts, digest string, ok bool) {
	if header == "" {
		return "", "", false
	}
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			ts = strings.TrimSpace(value)
		case "v1":
			digest = strings.TrimSpace(value)
		}
	}
	if ts == "" || digest == "" {
		return "", "", false
	}
	return ts, digest, true
}
