// Package config parses the plugin configuration from loosely typed input.
package config

import (
	"net/url"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

const (
	DefaultBaseURL            = "http://127.0.0.1:8888"
	DefaultBankID             = "agent-recall"
	DefaultNamespace          = "default"
	DefaultMission            = "Long-term memory for a conversational agent: user preferences, durable facts and notable past interactions."
	DefaultRecallLimit        = 5
	DefaultCaptureMaxMessages = 10
)

// Config is the fully typed plugin configuration. It is never partially
// populated: every field carries either a parsed value or its default.
type Config struct {
	BaseURL            string `json:"baseUrl" yaml:"baseUrl"`
	BankID             string `json:"bankId" yaml:"bankId"`
	Namespace          string `json:"namespace" yaml:"namespace"`
	Mission            string `json:"mission" yaml:"mission"`
	AutoRecall         bool   `json:"autoRecall" yaml:"autoRecall"`
	AutoCapture        bool   `json:"autoCapture" yaml:"autoCapture"`
	RecallLimit        int    `json:"recallLimit" yaml:"recallLimit"`
	CaptureMaxMessages int    `json:"captureMaxMessages" yaml:"captureMaxMessages"`
}

// Canonical keys, lowercased with separators removed.
const (
	keyBaseURL            = "baseurl"
	keyBankID             = "bankid"
	keyNamespace          = "namespace"
	keyMission            = "mission"
	keyAutoRecall         = "autorecall"
	keyAutoCapture        = "autocapture"
	keyRecallLimit        = "recalllimit"
	keyCaptureMaxMessages = "capturemaxmessages"
)

// Default returns the configuration used when no input is given.
func Default() Config {
	return Config{
		BaseURL:            DefaultBaseURL,
		BankID:             DefaultBankID,
		Namespace:          DefaultNamespace,
		Mission:            DefaultMission,
		AutoRecall:         true,
		AutoCapture:        true,
		RecallLimit:        DefaultRecallLimit,
		CaptureMaxMessages: DefaultCaptureMaxMessages,
	}
}

// Parse maps an arbitrary untyped record onto Config. Malformed or missing
// values fall back to their defaults; Parse never fails.
//
// Keys match case-insensitively and ignore '_' and '-', so "baseUrl",
// "base_url" and "BASEURL" are the same key.
func Parse(raw map[string]any) Config {
	cfg := Default()
	vals := normalize(raw)

	if s, ok := stringValue(vals, keyBaseURL); ok && validBaseURL(s) {
		cfg.BaseURL = strings.TrimRight(s, "/")
	}
	if s, ok := stringValue(vals, keyBankID); ok {
		cfg.BankID = s
	}
	if s, ok := stringValue(vals, keyNamespace); ok {
		cfg.Namespace = s
	}
	if s, ok := stringValue(vals, keyMission); ok {
		cfg.Mission = s
	}
	cfg.AutoRecall = !explicitlyFalse(vals, keyAutoRecall)
	cfg.AutoCapture = !explicitlyFalse(vals, keyAutoCapture)
	cfg.RecallLimit = positiveInt(vals, keyRecallLimit, DefaultRecallLimit)
	cfg.CaptureMaxMessages = positiveInt(vals, keyCaptureMaxMessages, DefaultCaptureMaxMessages)

	return cfg
}

// CanonicalKey folds a config key to its comparison form.
func CanonicalKey(k string) string {
	k = strings.ToLower(strings.TrimSpace(k))
	return strings.NewReplacer("_", "", "-", "").Replace(k)
}

// normalize folds keys. Keys that fold to the same canonical form resolve in
// sorted order of the original key, last one wins.
func normalize(raw map[string]any) map[string]any {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(map[string]any, len(raw))
	for _, k := range keys {
		out[CanonicalKey(k)] = raw[k]
	}
	return out
}

func stringValue(vals map[string]any, key string) (string, bool) {
	v, ok := vals[key]
	if !ok || v == nil {
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func explicitlyFalse(vals map[string]any, key string) bool {
	v, ok := vals[key]
	if !ok || v == nil {
		return false
	}
	if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
		return false
	}
	b, err := cast.ToBoolE(v)
	return err == nil && !b
}

func positiveInt(vals map[string]any, key string, def int) int {
	v, ok := vals[key]
	if !ok || v == nil {
		return def
	}
	if _, isBool := v.(bool); isBool {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func validBaseURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
