package model

import "testing"

func TestBridgeConfigBaseURL(t *testing.T) {
	t.Helper()

	tests := []struct {
		name string
		cfg  BridgeConfig
		want string
	}{
		{
			name: "empty host falls back to public api",
			cfg:  BridgeConfig{},
			want: "https://api.nuki.io",
		},
		{
			name: "plain host gets https scheme",
			cfg:  BridgeConfig{Host: "api.nuki.io"},
			want: "https://api.nuki.io",
		},
		{
			name: "host with explicit scheme keeps scheme",
			cfg:  BridgeConfig{Host: "http://localhost:8080"},
			want: "http://localhost:8080",
		},
		{
			name: "trailing slash is trimmed",
			cfg:  BridgeConfig{Host: "https://api.nuki.io/"},
			want: "https://api.nuki.io",
		},
		{
			name: "host with custom path keeps path",
			cfg:  BridgeConfig{Host: "https://proxy.local/nuki"},
			want: "https://proxy.local/nuki",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Helper()
			got := tt.cfg.BaseURL()
			if got != tt.want {
				t.Fatalf("BaseURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
