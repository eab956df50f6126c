package model

import "time"

// Direction is the side of a trading signal.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// Confidence grades how strongly the weighted score supports the signal.
type Confidence string

const (
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// RiskLevel classifies the derived risk parameters of a signal.
type RiskLevel string

const (
	RiskLow     RiskLevel = "LOW"
	RiskMedium  RiskLevel = "MEDIUM"
	RiskHigh    RiskLevel = "HIGH"
	RiskExtreme RiskLevel = "EXTREME"
)

// CategoryAnalysis records how one scoring category contributed to a signal.
type CategoryAnalysis struct {
	LongScore  float64  `json:"long_score"`
	ShortScore float64  `json:"short_score"`
	Weight     float64  `json:"weight"`
	Notes      []string `json:"notes,omitempty"`
}

// Signal is a scored directional trading signal. It is immutable once
// produced by the pipeline.
type Signal struct {
	Symbol     string                      `json:"symbol"`
	Direction  Direction                   `json:"direction"`
	Strength   float64                     `json:"strength"` // 0..100
	Confidence Confidence                  `json:"confidence"`
	RiskLevel  RiskLevel                   `json:"risk_level"`
	Warnings   []string                    `json:"warnings,omitempty"`
	Analysis   map[string]CategoryAnalysis `json:"analysis,omitempty"`
	CreatedAt  time.Time                   `json:"created_at"`
}
