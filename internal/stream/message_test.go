package stream

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/mintid"
)

func TestParseMessage(t *testing.T) {
	mint := mintid.Synthetic("stream-test", 1)
	received := time.Date(2026, time.October, 15, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		wantErr error
		check   func(t *testing.T, c domain.Candidate)
	}{
		{
			name: "top level",
			raw:  fmt.Sprintf(`{"mint":%q,"name":" Alpha ","symbol":"ALP","uri":"https://ipfs.io/x","txType":"create"}`, mint),
			check: func(t *testing.T, c domain.Candidate) {
				if c.Identifier != mint || c.Name != "Alpha" || c.Symbol != "ALP" {
					t.Errorf("unexpected candidate: %+v", c)
				}
				if c.Origin != domain.OriginStream {
					t.Errorf("Origin = %s", c.Origin)
				}
				if !c.DiscoveredAt.Equal(received) {
					t.Errorf("DiscoveredAt = %v, want %v", c.DiscoveredAt, received)
				}
			},
		},
		{
			name: "nested data with ms timestamp",
			raw:  fmt.Sprintf(`{"type":"newToken","data":{"tokenAddress":%q,"symbol":"BET","timestamp":1760522400000}}`, mint),
			check: func(t *testing.T, c domain.Candidate) {
				if c.Identifier != mint || c.Symbol != "BET" {
					t.Errorf("unexpected candidate: %+v", c)
				}
				if !c.DiscoveredAt.Equal(time.UnixMilli(1760522400000)) {
					t.Errorf("DiscoveredAt = %v", c.DiscoveredAt)
				}
			},
		},
		{
			name: "seconds timestamp",
			raw:  fmt.Sprintf(`{"mint":%q,"timestamp":1760522400}`, mint),
			check: func(t *testing.T, c domain.Candidate) {
				if !c.DiscoveredAt.Equal(time.Unix(1760522400, 0)) {
					t.Errorf("DiscoveredAt = %v", c.DiscoveredAt)
				}
			},
		},
		{name: "subscribe ack", raw: `{"message":"Successfully subscribed to token creation events."}`, wantErr: errNoIdentifier},
		{name: "not json", raw: `hello`, wantErr: errMalformed},
		{name: "array", raw: `[1,2,3]`, wantErr: errMalformed},
		{name: "bad mint", raw: `{"mint":"0xdeadbeef"}`, wantErr: errBadIdentifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseMessage([]byte(tt.raw), received)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMessage: %v", err)
			}
			tt.check(t, c)
		})
	}
}
