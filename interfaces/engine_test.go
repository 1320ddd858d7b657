package interfaces

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEngineConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  EngineConfig
		wantErr error
	}{
		{
			name: "valid config with all fields",
			config: EngineConfig{
				ListenAddrs:        []string{"/ip4/0.0.0.0/tcp/0"},
				RelayAddrs:         []string{"/ip4/203.0.113.7/tcp/4001/p2p/12D3KooWRelay"},
				DialTimeout:        10 * time.Second,
				SendTimeout:        15 * time.Second,
				ReservationRefresh: 90 * time.Second,
				InboundPerMinute:   120,
			},
		},
		{name: "zero values are valid", config: EngineConfig{UseSimulation: true}},
		{name: "negative dial timeout", config: EngineConfig{DialTimeout: -time.Second}, wantErr: ErrInvalidTimeout},
		{name: "negative send timeout", config: EngineConfig{SendTimeout: -time.Second}, wantErr: ErrInvalidTimeout},
		{name: "negative refresh", config: EngineConfig{ReservationRefresh: -time.Second}, wantErr: ErrInvalidTimeout},
		{name: "negative rate", config: EngineConfig{InboundPerMinute: -1}, wantErr: ErrInvalidRateLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
