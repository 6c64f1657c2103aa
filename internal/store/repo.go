package store

import (
	"context"
	"time"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before (0 = no bound)
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	UserID string    // exact match when set
}

// LookupEventData describes one resolved (or unresolved) query.
type LookupEventData struct {
	UserID     string
	Query      string
	Normalized string
	Kind       string // exact, alias, semantic, suggestion, not_found
	Key        string
	Score      float64
	Detailed   bool
}

// AnswerEventData describes one scored quiz submission.
type AnswerEventData struct {
	UserID     string
	QuestionID string
	Flow       string // text or button
	Key        string
	Answer     string
	Outcome    string // correct, incorrect, expired
	Elapsed    time.Duration
	TimeLimit  time.Duration
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// EventMeta is shared by every stored event.
type EventMeta struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
}

// LookupEvent is a stored lookup.
type LookupEvent struct {
	EventMeta
	LookupEventData
}

// AnswerEvent is a stored quiz answer.
type AnswerEvent struct {
	EventMeta
	AnswerEventData
}

// LLMRequestEvent is a stored LLM call.
type LLMRequestEvent struct {
	EventMeta
	LLMRequestEventData
}

// TimelineEntry is one event of any type in global sequence order.
type TimelineEntry struct {
	EventMeta
	Type    string // lookup, answer, llm
	Summary string
}

// KindCount is the number of lookups that ended in one branch.
type KindCount struct {
	Kind  string
	Count int
}

// TermAnswerStats aggregates quiz outcomes for one term.
type TermAnswerStats struct {
	Key        string
	Correct    int
	Incorrect  int
	Expired    int
	AvgElapsed time.Duration
}

// Total returns the number of scored answers.
func (s TermAnswerStats) Total() int {
	return s.Correct + s.Incorrect + s.Expired
}

// LLMUsage aggregates token use for one purpose or model.
type LLMUsage struct {
	Purpose      string
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// EventRepo provides append and query access to the event log.
type EventRepo interface {
	AppendLookup(ctx context.Context, data LookupEventData) error
	AppendAnswer(ctx context.Context, data AnswerEventData) error
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	QueryLookups(ctx context.Context, opts QueryOpts) ([]LookupEvent, error)
	QueryAnswers(ctx context.Context, opts QueryOpts) ([]AnswerEvent, error)
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)
	// GetLLMEvent returns nil when no event has that ID.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)
	Timeline(ctx context.Context, opts QueryOpts) ([]TimelineEntry, error)

	LookupsByKind(ctx context.Context) ([]KindCount, error)
	AnswersByTerm(ctx context.Context) ([]TermAnswerStats, error)
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error)
	LLMUsageByModel(ctx context.Context) ([]LLMUsage, error)
}
