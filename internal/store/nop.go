package store

import "context"

// NopEventRepo discards appends and answers every query with nothing. It
// stands in when the event log is disabled.
type NopEventRepo struct{}

var _ EventRepo = NopEventRepo{}

func (NopEventRepo) AppendLookup(context.Context, LookupEventData) error { return nil }
func (NopEventRepo) AppendAnswer(context.Context, AnswerEventData) error { return nil }
func (NopEventRepo) AppendLLMRequest(context.Context, LLMRequestEventData) error { return nil }

func (NopEventRepo) QueryLookups(context.Context, QueryOpts) ([]LookupEvent, error) {
	return nil, nil
}

func (NopEventRepo) QueryAnswers(context.Context, QueryOpts) ([]AnswerEvent, error) {
	return nil, nil
}

func (NopEventRepo) QueryLLMEvents(context.Context, QueryOpts) ([]LLMRequestEvent, error) {
	return nil, nil
}

func (NopEventRepo) GetLLMEvent(context.Context, int) (*LLMRequestEvent, error) { return nil, nil }

func (NopEventRepo) Timeline(context.Context, QueryOpts) ([]TimelineEntry, error) {
	return nil, nil
}

func (NopEventRepo) LookupsByKind(context.Context) ([]KindCount, error) { return nil, nil }
func (NopEventRepo) AnswersByTerm(context.Context) ([]TermAnswerStats, error) { return nil, nil }
func (NopEventRepo) LLMUsageByPurpose(context.Context) ([]LLMUsage, error) { return nil, nil }
func (NopEventRepo) LLMUsageByModel(context.Context) ([]LLMUsage, error) { return nil, nil }
