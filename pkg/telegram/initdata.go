package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

const webAppDataKey = "WebAppData"

var (
	ErrInitDataMissingHash = errors.New("init data hash is missing")
	ErrInitDataSignature   = errors.New("init data signature mismatch")
	ErrBotTokenRequired    = errors.New("bot token is required")
)

// InitData is a verified Mini App init-data payload.
type InitData struct {
	Values url.Values
	User   *User
}

// VerifyInitData checks the hash field of a Mini App init-data string
// against the bot token.
func VerifyInitData(raw, botToken string) (*InitData, error) {
	if botToken == "" {
		return nil, ErrBotTokenRequired
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("parse init data: %w", err)
	}
	hash := popHash(values)
	if hash == "" {
		return nil, ErrInitDataMissingHash
	}

	expected := signature(values, botToken)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(hash))) {
		return nil, ErrInitDataSignature
	}

	data := &InitData{Values: values}
	if rawUser := values.Get("user"); rawUser != "" {
		var user User
		if err := json.Unmarshal([]byte(rawUser), &user); err == nil {
			data.User = &user
		}
	}
	return data, nil
}

// SignInitData returns values encoded with a valid hash for botToken.
func SignInitData(values url.Values, botToken string) string {
	clean := url.Values{}
	for k, v := range values {
		if !strings.EqualFold(k, "hash") {
			clean[k] = v
		}
	}
	out := clean.Encode()
	sig := "hash=" + signature(clean, botToken)
	if out == "" {
		return sig
	}
	return out + "&" + sig
}

// popHash removes every key spelled "hash" in any case and returns the
// first non-empty value, preferring the lowercase key.
func popHash(values url.Values) string {
	hash := strings.TrimSpace(values.Get("hash"))
	for k := range values {
		if !strings.EqualFold(k, "hash") {
			continue
		}
		if hash == "" {
			hash = strings.TrimSpace(values.Get(k))
		}
		values.Del(k)
	}
	return hash
}

func signature(values url.Values, botToken string) string {
	pairs := make([]string, 0, len(values))
	for k, vs := range values {
		for _, v := range vs {
			pairs = append(pairs, k+"="+v)
		}
	}
	sort.Strings(pairs)
	checkString := strings.Join(pairs, "\n")

	secret := hmacSHA256([]byte(webAppDataKey), []byte(botToken))
	return hex.EncodeToString(hmacSHA256(secret, []byte(checkString)))
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
