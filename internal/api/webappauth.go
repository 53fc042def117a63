// Package api exposes the admin/WebApp HTTP surface of §6 over
// gofiber/fiber/v2: plan/task/settings/reminder CRUD for the small front-end,
// plus the webhook ingress shared with the long-polling daemon.
package api

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidInitData marks any failure to validate a WebApp init-data string:
// missing hash, bad signature, stale auth_date, or malformed user payload.
var ErrInvalidInitData = errors.New("invalid webapp init data")

// WebAppUser is the user embedded in a validated init-data payload.
type WebAppUser struct {
	ID int64 `json:"id"`
}

// WebAppAuth is the result of successfully validating an init-data string.
type WebAppAuth struct {
	User     WebAppUser
	AuthDate time.Time
}

const maxInitDataAge = 24 * time.Hour

// ValidateInitData implements the five-step algorithm of §6 step for step,
// grounded on original_source/src/api/auth.py's validate_webapp_init_data:
// parse the query string, build a newline-joined check string over every
// pair but hash, HMAC it with HMAC-SHA256("WebAppData", botToken), compare
// constant-time, reject stale auth_date, and decode the embedded user JSON.
func ValidateInitData(initData, botToken string) (WebAppAuth, error) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return WebAppAuth{}, ErrInvalidInitData
	}

	receivedHash := values.Get("hash")
	if receivedHash == "" {
		return WebAppAuth{}, ErrInvalidInitData
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}
	checkString := strings.Join(pairs, "\n")

	secretKey := hmacSHA256([]byte("WebAppData"), []byte(botToken))
	calcHash := hex.EncodeToString(hmacSHA256(secretKey, []byte(checkString)))
	if !hmac.Equal([]byte(calcHash), []byte(receivedHash)) {
		return WebAppAuth{}, ErrInvalidInitData
	}

	authDateRaw := values.Get("auth_date")
	authDateUnix, err := strconv.ParseInt(authDateRaw, 10, 64)
	if err != nil {
		return WebAppAuth{}, ErrInvalidInitData
	}
	authDate := time.Unix(authDateUnix, 0).UTC()
	if time.Since(authDate) > maxInitDataAge {
		return WebAppAuth{}, ErrInvalidInitData
	}

	userRaw := values.Get("user")
	if userRaw == "" {
		return WebAppAuth{}, ErrInvalidInitData
	}
	var user WebAppUser
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil || user.ID == 0 {
		return WebAppAuth{}, ErrInvalidInitData
	}

	return WebAppAuth{User: user, AuthDate: authDate}, nil
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
