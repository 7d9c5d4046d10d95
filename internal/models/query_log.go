package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// QueryResult is one matched member of a search
type QueryResult struct {
	UserID  string   `json:"user_id"`
	Score   float64  `json:"score"`
	Matched []string `json:"matched"` // member fields the query matched
}

// QueryMetadata describes how a search was interpreted
type QueryMetadata struct {
	SearchType string            `json:"search_type"`
	Filters    map[string]string `json:"filters,omitempty"`
	Location   string            `json:"location,omitempty"`
}

// QueryLog is the audit record of one completed search turn. Append-only.
type QueryLog struct {
	gorm.Model

	SessionID        string                            `json:"session_id" gorm:"index"`
	Query            string                            `json:"query" gorm:"type:text"`
	Intent           string                            `json:"intent"`
	Results          datatypes.JSONType[[]QueryResult] `json:"results"`
	Response         string                            `json:"response" gorm:"type:text"`
	Success          bool                              `json:"success"`
	ProcessingTimeMs int64                             `json:"processing_time_ms"`
	Metadata         datatypes.JSONType[QueryMetadata] `json:"metadata"`
}
