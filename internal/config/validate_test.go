package config

import (
	"testing"

	"github.com/rileyhilliard/sshmenu/internal/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Settings) {}},
		{
			name:    "empty ssh config path",
			mutate:  func(s *Settings) { s.Paths.SSHConfig = "" },
			wantErr: "paths.ssh_config is empty",
		},
		{
			name:    "negative default port",
			mutate:  func(s *Settings) { s.Defaults.Port = -1 },
			wantErr: "defaults.port -1 is out of range",
		},
		{
			name:    "per-host port too large",
			mutate:  func(s *Settings) { s.PerHostSettings["web"] = Values{Port: 65536} },
			wantErr: "per_host_settings.web.port 65536 is out of range",
		},
		{
			name:    "blank alias",
			mutate:  func(s *Settings) { s.PerHostSettings[" "] = Values{User: "x"} },
			wantErr: "empty alias",
		},
		{
			name:   "unset per-host port is fine",
			mutate: func(s *Settings) { s.PerHostSettings["web"] = Values{User: "x"} },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSettings()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
		})
	}
}

func TestUnknownAliases(t *testing.T) {
	cfg := &Settings{
		HostDescriptions: map[string]string{"web": "w", "typo-db": "d"},
		PerHostSettings:  map[string]Values{"web": {Port: 2}, "old": {User: "x"}},
	}

	assert.Equal(t, []string{"old", "typo-db"}, UnknownAliases(cfg, []string{"web", "db"}))
	assert.Empty(t, UnknownAliases(cfg, []string{"web", "typo-db", "old"}))
}
