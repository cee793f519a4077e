package config

import "testing"

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"provider": map[string]any{
			"url":     "",
			"anonKey": "",
		},
		"secretKey": map[string]any{
			"jwt": "",
		},
		"auth": map[string]any{
			"rateLimit": map[string]any{
				"requestsPerSecond": 5,
			},
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "PROVIDER_URL", want: "provider.url"},
		{envKey: "PROVIDER_ANONKEY", want: "provider.anonKey"},
		{envKey: "SECRETKEY_JWT", want: "secretKey.jwt"},
		{envKey: "AUTH_RATELIMIT_REQUESTSPERSECOND", want: "auth.rateLimit.requestsPerSecond"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			if got := canonicalizeEnvKey(tt.envKey, existing); got != tt.want {
				t.Fatalf("canonicalizeEnvKey(%q) = %q, want %q", tt.envKey, got, tt.want)
			}
		})
	}
}
