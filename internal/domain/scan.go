package domain

import "time"

// ScanResult is the payload produced by one pipeline run and shared through the cache.
type ScanResult struct {
	ScanID      string         `json:"scanId"`
	GeneratedAt time.Time      `json:"generatedAt"`
	Tokens      []ScoredToken  `json:"tokens"`
	Cosmic      CosmicSnapshot `json:"cosmic"`
}

// RecallPage is the response of a recall lookup.
type RecallPage struct {
	Count  int           `json:"count"`
	Tokens []RecallEntry `json:"tokens"`
}
