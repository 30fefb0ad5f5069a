package config_test

import (
	"testing"

	"github.com/Haisyam/SiMETA/internal/config"
)

func TestDomainAllowed(t *testing.T) {
	cfg := &config.Config{AllowedEmailDomains: []string{"gmail.com", "haisyam.my.id"}}

	cases := []struct {
		email string
		want  bool
	}{
		{"budi@gmail.com", true},
		{"budi@GMAIL.COM", true},
		{"dosen@haisyam.my.id", true},
		{"budi@yahoo.com", false},
		{"no-at-sign", false},
		{"trailing@", false},
		{"", false},
	}

	for _, tc := range cases {
		if got := cfg.DomainAllowed(tc.email); got != tc.want {
			t.Errorf("DomainAllowed(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestEmptyAllowListAcceptsEverything(t *testing.T) {
	cfg := &config.Config{}

	if !cfg.DomainAllowed("siapa@apapun.example") {
		t.Error("empty allow-list should accept any domain")
	}
}
