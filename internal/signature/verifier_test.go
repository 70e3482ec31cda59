package signature

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testSecret = "whsec_test"

func signedHeader(secret, requestID, ts string, body []byte) string {
	return fmt.Sprintf("ts=%s,v1=%s", ts, ComputeDigest(secret, requestID, ts, body))
}

func TestVerifier_ValidSignature(t *testing.T) {
	v := NewVerifier(testSecret)
	body := []byte(`{"type":"payment","data":{"id":"P1"}}`)

	header := signedHeader(testSecret, "req-1", "1704908010", body)

	assert.True(t, v.Verify(body, header, "req-1"))
}

func TestVerifier_TamperedBody(t *testing.T) {
	v := NewVerifier(testSecret)
	body := []byte(`{"type":"payment","data":{"id":"P1"}}`)

	header := signedHeader(testSecret, "req-1", "1704908010", body)

	// Подпись от другого тела не должна проходить
	tampered := []byte(`{"type":"payment","data":{"id":"P2"}}`)
	assert.False(t, v.Verify(tampered, header, "req-1"))
}

func TestVerifier_WrongRequestID(t *testing.T) {
	v := NewVerifier(testSecret)
	body := []byte(`{}`)

	header := signedHeader(testSecret, "req-1", "1704908010", body)

	assert.False(t, v.Verify(body, header, "req-2"))
}

func TestVerifier_WrongSecret(t *testing.T) {
	v := NewVerifier(testSecret)
	body := []byte(`{}`)

	header := signedHeader("another-secret", "req-1", "1704908010", body)

	assert.False(t, v.Verify(body, header, "req-1"))
}

func TestVerifier_MalformedHeader(t *testing.T) {
	v := NewVerifier(testSecret)
	body := []byte(`{}`)

	tests := []struct {
		name   string
		header string
	}{
		{"empty", ""},
		{"no pairs", "garbage"},
		{"missing v1", "ts=1704908010"},
		{"missing ts", "v1=abcdef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, v.Verify(body, tt.header, "req-1"))
		})
	}
}

func TestVerifier_UnconfiguredSecret(t *testing.T) {
	// Без secret проверка всегда отрицательна, даже для "валидной" подписи
	v := NewVerifier("")
	body := []byte(`{}`)

	header := signedHeader("", "req-1", "1704908010", body)

	assert.False(t, v.Verify(body, header, "req-1"))
}

func TestVerifier_PairOrderIndependent(t *testing.T) {
	v := NewVerifier(testSecret)
	body := []byte(`{}`)

	digest := ComputeDigest(testSecret, "req-1", "1704908010", body)
	header := fmt.Sprintf("v1=%s,ts=%s", digest, "1704908010")

	assert.True(t, v.Verify(body, header, "req-1"))
}
