// Package archive records the outcome of grading runs in an external key-value store, so that
// course staff can collect results from many submissions in one place.
//
// Every backend stores the same thing: for each run, a flat map of string fields keyed by the
// run's key.
package archive

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/cs106l/autograder/framework"
	"github.com/cs106l/autograder/framework/grader"
)

const (
	FieldSubmission = "submission"
	FieldFinishedAt = "finishedAt"
	FieldOK         = "ok"
	FieldState      = "state"

	partFieldPrefix = "part:"
)

// Store is a backend that runs can be recorded into.
type Store interface {
	// DSN describes where the store is, in the form accepted by Open.
	DSN() string

	// Record writes all fields for one key, replacing any earlier values of the same fields.
	Record(ctx context.Context, key string, fields map[string]string) error
}

// PartField returns the name of the field that holds the result of the part at index.
func PartField(index int) string {
	return fmt.Sprintf("%s%02d", partFieldPrefix, index)
}

// Fields flattens the results of a run. Each part that was reached gets one field holding its
// JSON representation.
func Fields(results grader.Results, submission string, finishedAt time.Time) (map[string]string, error) {
	fields := map[string]string{
		FieldSubmission: submission,
		FieldFinishedAt: finishedAt.UTC().Format(time.RFC3339),
		FieldOK:         strconv.FormatBool(results.OK()),
		FieldState:      results.State.String(),
	}
	for _, p := range results.Parts {
		data, err := grader.PartResultJSON(p)
		if err != nil {
			return nil, err
		}
		fields[PartField(p.ID.Index)] = string(data)
	}
	return fields, nil
}

// Open connects to the store described by dsn. Supported forms are:
//
//	redis://[:password@]host:port[/db]
//	consul://host:port[/prefix]
//	dynamodb://table[?region=...&endpoint=...]
func Open(dsn string) (Store, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid archive DSN %q: %w", dsn, err)
	}
	switch u.Scheme {
	case "redis", "rediss":
		return NewRedisStore(dsn)
	case "consul":
		return NewConsulStore(u.Host, u.Path)
	case "dynamodb":
		return NewDynamoDBStore(u.Host, u.Query().Get("region"), u.Query().Get("endpoint"))
	default:
		return nil, fmt.Errorf("unsupported archive DSN scheme %q (expected redis, consul or dynamodb)", u.Scheme)
	}
}

// Logger is a grader.PartLogger that records the run into a Store when it finishes.
type Logger struct {
	Store      Store
	Key        string
	Submission string
	Context    context.Context
	Debug      framework.Logger
}

func (l Logger) PartStarted(grader.PartID)                                               {}
func (l Logger) PartError(grader.PartID, error)                                          {}
func (l Logger) PartFinished(grader.PartID, grader.PartResult, framework.CapturedOutput) {}
func (l Logger) PartSkipped(grader.PartID, string)                                       {}

func (l Logger) RunFinished(results grader.Results) error {
	fields, err := Fields(results, l.Submission, time.Now())
	if err != nil {
		return err
	}
	ctx := l.Context
	if ctx == nil {
		ctx = context.Background()
	}
	if err := l.Store.Record(ctx, l.Key, fields); err != nil {
		return fmt.Errorf("failed to archive results to %s: %w", l.Store.DSN(), err)
	}
	if l.Debug != nil {
		l.Debug.Printf("archived %d fields for %q to %s", len(fields), l.Key, l.Store.DSN())
	}
	return nil
}
