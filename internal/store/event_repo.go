package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// eventRepo implements EventRepo on plain SQL and the global sequence counter.
type eventRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *eventRepo) AppendLookup(ctx context.Context, data LookupEventData) error {
	err := r.seq.appendEvent(ctx, func(tx *sql.Tx, seq int64) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO lookup_events
			(sequence, timestamp, user_id, query, normalized, kind, term_key, score, detailed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			seq, time.Now().UnixMilli(), data.UserID, data.Query, data.Normalized,
			data.Kind, data.Key, data.Score, data.Detailed)
		return err
	})
	if err != nil {
		return fmt.Errorf("save lookup event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendAnswer(ctx context.Context, data AnswerEventData) error {
	err := r.seq.appendEvent(ctx, func(tx *sql.Tx, seq int64) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO answer_events
			(sequence, timestamp, user_id, question_id, flow, term_key, answer, outcome, elapsed_ms, time_limit_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			seq, time.Now().UnixMilli(), data.UserID, data.QuestionID, data.Flow, data.Key,
			data.Answer, data.Outcome, data.Elapsed.Milliseconds(), data.TimeLimit.Milliseconds())
		return err
	})
	if err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error {
	err := r.seq.appendEvent(ctx, func(tx *sql.Tx, seq int64) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO llm_request_events
			(sequence, timestamp, provider, model, purpose, input_tokens, output_tokens,
			 latency_ms, success, error_message, request_body, response_body)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			seq, time.Now().UnixMilli(), data.Provider, data.Model, data.Purpose,
			data.InputTokens, data.OutputTokens, data.LatencyMs, data.Success,
			data.ErrorMessage, data.RequestBody, data.ResponseBody)
		return err
	})
	if err != nil {
		return fmt.Errorf("save LLM request event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryLookups(ctx context.Context, opts QueryOpts) ([]LookupEvent, error) {
	where, args := buildWhere(opts, true)
	rows, err := r.db.QueryContext(ctx, `SELECT id, sequence, timestamp, user_id, query,
		normalized, kind, term_key, score, detailed
		FROM lookup_events`+where+` ORDER BY sequence DESC`+limitClause(opts), args...)
	if err != nil {
		return nil, fmt.Errorf("query lookup events: %w", err)
	}
	defer rows.Close()

	var out []LookupEvent
	for rows.Next() {
		var e LookupEvent
		var ts int64
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.UserID, &e.Query, &e.Normalized,
			&e.Kind, &e.Key, &e.Score, &e.Detailed); err != nil {
			return nil, fmt.Errorf("scan lookup event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) QueryAnswers(ctx context.Context, opts QueryOpts) ([]AnswerEvent, error) {
	where, args := buildWhere(opts, true)
	rows, err := r.db.QueryContext(ctx, `SELECT id, sequence, timestamp, user_id, question_id,
		flow, term_key, answer, outcome, elapsed_ms, time_limit_ms
		FROM answer_events`+where+` ORDER BY sequence DESC`+limitClause(opts), args...)
	if err != nil {
		return nil, fmt.Errorf("query answer events: %w", err)
	}
	defer rows.Close()

	var out []AnswerEvent
	for rows.Next() {
		var e AnswerEvent
		var ts, elapsed, limit int64
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.UserID, &e.QuestionID, &e.Flow,
			&e.Key, &e.Answer, &e.Outcome, &elapsed, &limit); err != nil {
			return nil, fmt.Errorf("scan answer event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		e.Elapsed = time.Duration(elapsed) * time.Millisecond
		e.TimeLimit = time.Duration(limit) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}

const llmColumns = `id, sequence, timestamp, provider, model, purpose, input_tokens,
	output_tokens, latency_ms, success, error_message, request_body, response_body`

func scanLLMEvent(row interface{ Scan(...any) error }) (LLMRequestEvent, error) {
	var e LLMRequestEvent
	var ts int64
	err := row.Scan(&e.ID, &e.Sequence, &ts, &e.Provider, &e.Model, &e.Purpose,
		&e.InputTokens, &e.OutputTokens, &e.LatencyMs, &e.Success, &e.ErrorMessage,
		&e.RequestBody, &e.ResponseBody)
	e.Timestamp = time.UnixMilli(ts)
	return e, err
}

func (r *eventRepo) QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error) {
	where, args := buildWhere(opts, false)
	rows, err := r.db.QueryContext(ctx, `SELECT `+llmColumns+`
		FROM llm_request_events`+where+` ORDER BY sequence DESC`+limitClause(opts), args...)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var out []LLMRequestEvent
	for rows.Next() {
		e, err := scanLLMEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error) {
	e, err := scanLLMEvent(r.db.QueryRowContext(ctx,
		`SELECT `+llmColumns+` FROM llm_request_events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event %d: %w", id, err)
	}
	return &e, nil
}

func (r *eventRepo) Timeline(ctx context.Context, opts QueryOpts) ([]TimelineEntry, error) {
	lw, la := buildWhere(opts, true)
	aw, aa := buildWhere(opts, true)
	mw, ma := buildWhere(opts, false)
	if opts.UserID != "" {
		// LLM calls are not attributed to a user.
		mw, ma = " WHERE 0", nil
	}

	query := `SELECT id, sequence, timestamp, type, summary FROM (
		SELECT id, sequence, timestamp, 'lookup' AS type,
			kind || ': ' || query || CASE WHEN term_key != '' THEN ' -> ' || term_key ELSE '' END AS summary
		FROM lookup_events` + lw + `
		UNION ALL
		SELECT id, sequence, timestamp, 'answer' AS type,
			outcome || ': ' || term_key || ' (' || flow || ', ' || elapsed_ms || 'ms)' AS summary
		FROM answer_events` + aw + `
		UNION ALL
		SELECT id, sequence, timestamp, 'llm' AS type,
			purpose || ': ' || model || CASE WHEN success THEN '' ELSE ' (failed)' END AS summary
		FROM llm_request_events` + mw + `
	) ORDER BY sequence DESC` + limitClause(opts)

	args := append(append(la, aa...), ma...)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query timeline: %w", err)
	}
	defer rows.Close()

	var out []TimelineEntry
	for rows.Next() {
		var e TimelineEntry
		var ts int64
		if err := rows.Scan(&e.ID, &e.Sequence, &ts, &e.Type, &e.Summary); err != nil {
			return nil, fmt.Errorf("scan timeline entry: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *eventRepo) LookupsByKind(ctx context.Context) ([]KindCount, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, COUNT(*) FROM lookup_events GROUP BY kind ORDER BY COUNT(*) DESC, kind`)
	if err != nil {
		return nil, fmt.Errorf("query lookups by kind: %w", err)
	}
	defer rows.Close()

	var out []KindCount
	for rows.Next() {
		var kc KindCount
		if err := rows.Scan(&kc.Kind, &kc.Count); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		out = append(out, kc)
	}
	return out, rows.Err()
}

func (r *eventRepo) AnswersByTerm(ctx context.Context) ([]TermAnswerStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT term_key,
			SUM(outcome = 'correct'), SUM(outcome = 'incorrect'), SUM(outcome = 'expired'),
			CAST(AVG(elapsed_ms) AS INTEGER)
		FROM answer_events GROUP BY term_key ORDER BY term_key`)
	if err != nil {
		return nil, fmt.Errorf("query answers by term: %w", err)
	}
	defer rows.Close()

	var out []TermAnswerStats
	for rows.Next() {
		var s TermAnswerStats
		var avg int64
		if err := rows.Scan(&s.Key, &s.Correct, &s.Incorrect, &s.Expired, &avg); err != nil {
			return nil, fmt.Errorf("scan answer stats: %w", err)
		}
		s.AvgElapsed = time.Duration(avg) * time.Millisecond
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *eventRepo) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "purpose")
}

func (r *eventRepo) LLMUsageByModel(ctx context.Context) ([]LLMUsage, error) {
	return r.llmUsage(ctx, "model")
}

// llmUsage groups by column, which is one of two fixed identifiers.
func (r *eventRepo) llmUsage(ctx context.Context, column string) ([]LLMUsage, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+column+`, COUNT(*),
			SUM(input_tokens), SUM(output_tokens), CAST(AVG(latency_ms) AS INTEGER)
		FROM llm_request_events GROUP BY `+column+` ORDER BY `+column)
	if err != nil {
		return nil, fmt.Errorf("query LLM usage by %s: %w", column, err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var u LLMUsage
		var group string
		if err := rows.Scan(&group, &u.Calls, &u.InputTokens, &u.OutputTokens, &u.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan LLM usage: %w", err)
		}
		if column == "purpose" {
			u.Purpose = group
		} else {
			u.Model = group
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func buildWhere(opts QueryOpts, hasUser bool) (string, []any) {
	var conds []string
	var args []any
	if opts.After > 0 {
		conds = append(conds, "sequence > ?")
		args = append(args, opts.After)
	}
	if opts.Before > 0 {
		conds = append(conds, "sequence < ?")
		args = append(args, opts.Before)
	}
	if !opts.From.IsZero() {
		conds = append(conds, "timestamp >= ?")
		args = append(args, opts.From.UnixMilli())
	}
	if !opts.To.IsZero() {
		conds = append(conds, "timestamp <= ?")
		args = append(args, opts.To.UnixMilli())
	}
	if hasUser && opts.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, opts.UserID)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func limitClause(opts QueryOpts) string {
	if opts.Limit <= 0 {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d", opts.Limit)
}
