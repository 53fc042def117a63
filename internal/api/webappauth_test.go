package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"
)

const testBotToken = "123456:TEST-TOKEN"

// signInitData builds a valid Telegram WebApp init-data query string for the
// given fields, mirroring the exact algorithm ValidateInitData checks.
func signInitData(t *testing.T, fields map[string]string) string {
	t.Helper()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+fields[k])
	}
	checkString := strings.Join(pairs, "\n")

	mac := hmac.New(sha256.New, hmacSHA256([]byte("WebAppData"), []byte(testBotToken)))
	mac.Write([]byte(checkString))
	hash := hex.EncodeToString(mac.Sum(nil))

	values := url.Values{}
	for k, v := range fields {
		values.Set(k, v)
	}
	values.Set("hash", hash)
	return values.Encode()
}

func TestValidateInitDataValid(t *testing.T) {
	authDate := strconv.FormatInt(time.Now().Unix(), 10)
	raw := signInitData(t, map[string]string{
		"auth_date": authDate,
		"user":      `{"id":555}`,
		"query_id":  "abc123",
	})

	auth, err := ValidateInitData(raw, testBotToken)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth.User.ID != 555 {
		t.Fatalf("user id = %d, want 555", auth.User.ID)
	}
}

func TestValidateInitDataBadSignature(t *testing.T) {
	authDate := strconv.FormatInt(time.Now().Unix(), 10)
	raw := signInitData(t, map[string]string{
		"auth_date": authDate,
		"user":      `{"id":555}`,
	})
	// tamper with the payload after signing
	tampered := strings.Replace(raw, "555", "999", 1)

	if _, err := ValidateInitData(tampered, testBotToken); err != ErrInvalidInitData {
		t.Fatalf("err = %v, want ErrInvalidInitData", err)
	}
}

func TestValidateInitDataMissingHash(t *testing.T) {
	if _, err := ValidateInitData("user=%7B%22id%22%3A1%7D", testBotToken); err != ErrInvalidInitData {
		t.Fatalf("err = %v, want ErrInvalidInitData", err)
	}
}

func TestValidateInitDataStale(t *testing.T) {
	stale := strconv.FormatInt(time.Now().Add(-48*time.Hour).Unix(), 10)
	raw := signInitData(t, map[string]string{
		"auth_date": stale,
		"user":      `{"id":555}`,
	})

	if _, err := ValidateInitData(raw, testBotToken); err != ErrInvalidInitData {
		t.Fatalf("err = %v, want ErrInvalidInitData for stale auth_date", err)
	}
}

func TestValidateInitDataMissingUser(t *testing.T) {
	authDate := strconv.FormatInt(time.Now().Unix(), 10)
	raw := signInitData(t, map[string]string{
		"auth_date": authDate,
	})

	if _, err := ValidateInitData(raw, testBotToken); err != ErrInvalidInitData {
		t.Fatalf("err = %v, want ErrInvalidInitData for missing user", err)
	}
}

func TestValidateInitDataMalformedUser(t *testing.T) {
	authDate := strconv.FormatInt(time.Now().Unix(), 10)
	raw := signInitData(t, map[string]string{
		"auth_date": authDate,
		"user":      `not-json`,
	})

	if _, err := ValidateInitData(raw, testBotToken); err != ErrInvalidInitData {
		t.Fatalf("err = %v, want ErrInvalidInitData for malformed user json", err)
	}
}

func TestValidateInitDataDifferentToken(t *testing.T) {
	authDate := strconv.FormatInt(time.Now().Unix(), 10)
	raw := signInitData(t, map[string]string{
		"auth_date": authDate,
		"user":      `{"id":555}`,
	})

	if _, err := ValidateInitData(raw, "other:token"); err != ErrInvalidInitData {
		t.Fatalf("err = %v, want ErrInvalidInitData for wrong bot token", err)
	}
}
