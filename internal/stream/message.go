package stream

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"token-radar/internal/domain"
	"token-radar/internal/mintid"
)

var (
	errMalformed     = errors.New("malformed message")
	errNoIdentifier  = errors.New("message has no identifier")
	errBadIdentifier = errors.New("identifier is not a solana address")
)

// feedMessage covers the shapes seen on new-token feeds. Fields may be
// top-level or nested under "data".
type feedMessage struct {
	Mint         string          `json:"mint"`
	TokenAddress string          `json:"tokenAddress"`
	Name         string          `json:"name"`
	Symbol       string          `json:"symbol"`
	URI          string          `json:"uri"`
	Timestamp    json.Number     `json:"timestamp"`
	Data         json.RawMessage `json:"data"`
}

func (m feedMessage) identifier() string {
	if id := strings.TrimSpace(m.Mint); id != "" {
		return id
	}
	return strings.TrimSpace(m.TokenAddress)
}

// ParseMessage converts one raw feed message into a stream candidate.
// receivedAt is used when the message carries no timestamp.
func ParseMessage(raw []byte, receivedAt time.Time) (domain.Candidate, error) {
	msg, err := decodeFeedMessage(raw)
	if err != nil {
		return domain.Candidate{}, err
	}

	id := msg.identifier()
	if id == "" && len(msg.Data) > 0 {
		if inner, err := decodeFeedMessage(msg.Data); err == nil {
			msg = inner
			id = msg.identifier()
		}
	}
	if id == "" {
		return domain.Candidate{}, errNoIdentifier
	}
	if !mintid.IsSolanaAddress(id) {
		return domain.Candidate{}, errBadIdentifier
	}

	discovered := receivedAt.UTC()
	if ts, err := msg.Timestamp.Int64(); err == nil && ts > 0 {
		discovered = unixAuto(ts)
	}

	return domain.Candidate{
		Identifier:   id,
		Name:         strings.TrimSpace(msg.Name),
		Symbol:       strings.TrimSpace(msg.Symbol),
		DiscoveredAt: discovered,
		Origin:       domain.OriginStream,
		URI:          strings.TrimSpace(msg.URI),
	}, nil
}

func decodeFeedMessage(raw []byte) (feedMessage, error) {
	var msg feedMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return feedMessage{}, errMalformed
	}
	return msg, nil
}

// unixAuto accepts seconds or milliseconds.
func unixAuto(ts int64) time.Time {
	if ts > 1_000_000_000_000 {
		return time.UnixMilli(ts).UTC()
	}
	return time.Unix(ts, 0).UTC()
}
