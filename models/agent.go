package models

import "context"

// HealthStatus is the outcome of an Agent's self-check.
type HealthStatus struct {
	Healthy bool              `json:"healthy"`
	Details map[string]string `json:"details,omitempty"`
}

// Agent is the capability set shared by the News-and-Sentiment and
// Support/Resistance pipelines: Init, Process, HealthCheck. It is a plain
// interface, not a base type to embed: each orchestrator (NewsFetchAgent,
// LLMSentimentAgent, SentimentAggregator, SupportResistanceAgent) implements
// it directly with its own Process signature's concrete request/response
// types hidden behind the any parameters.
type Agent interface {
	Init(ctx context.Context) error
	Process(ctx context.Context, symbol string, params any) (any, error)
	HealthCheck(ctx context.Context) HealthStatus
}
