package llm

import "context"

// Purposes label LLM and embedding calls in the event log.
const (
	PurposeEnrich     = "enrich"
	PurposeEmbedIndex = "embed-index"
	PurposeEmbedQuery = "embed-query"

	purposeUnknown = "unknown"
)

type purposeKey struct{}

// WithPurpose tags ctx so the logging decorators can attribute the call.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the tag set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p, _ := ctx.Value(purposeKey{}).(string); p != "" {
		return p
	}
	return purposeUnknown
}
