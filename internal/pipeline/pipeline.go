// Package pipeline sequences the question-to-answer stages: cache lookup,
// schema fetch, prompt build, SQL generation, normalization, safety check,
// execution, interpretation, and cache write. Each request runs the stages
// strictly in that order and keeps no state between calls except the cache.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hubia/hubia/internal/archive"
	"github.com/hubia/hubia/internal/cache"
	"github.com/hubia/hubia/internal/llm"
	"github.com/hubia/hubia/internal/observability"
	"github.com/hubia/hubia/internal/prompt"
	"github.com/hubia/hubia/internal/query"
	"github.com/hubia/hubia/internal/safety"
	"github.com/hubia/hubia/internal/schema"
	"github.com/hubia/hubia/internal/sqlfix"
)

type FailureKind string

const (
	FailureSchemaUnavailable  FailureKind = "schema_unavailable"
	FailureGeneration         FailureKind = "generation_failure"
	FailureGenerationTimeout  FailureKind = "generation_timeout"
	FailureNotReadOnly        FailureKind = "not_read_only"
	FailureForbiddenOperation FailureKind = "forbidden_operation"
	FailureExecution          FailureKind = "execution_error"
	FailureNoCompatibleData   FailureKind = "no_compatible_data"
)

// Failure is the terminal outcome of a request that could not be answered.
// It is request-scoped and never fatal to the process.
type Failure struct {
	Kind    FailureKind
	Message string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

func AsFailure(err error) (*Failure, bool) {
	var failure *Failure
	if errors.As(err, &failure) {
		return failure, true
	}
	return nil, false
}

type Answer struct {
	Interpretation string
	SQL            string
	Columns        []string
	Rows           [][]any
	FromCache      bool
}

// SchemaReader is the metadata surface the pipeline needs from the store.
type SchemaReader interface {
	ListTables(ctx context.Context) ([]string, error)
	DescribeTable(ctx context.Context, name string) (schema.Table, error)
	Snapshot(ctx context.Context) ([]schema.Table, error)
}

type Service struct {
	Schema      SchemaReader
	Prompts     *prompt.Builder
	Generator   llm.Client
	Interpreter llm.Client
	Cache       cache.Store
	Engine      query.Engine
	Archive     *archive.Archiver
	Logger      *slog.Logger

	GenerateTimeout  time.Duration
	InterpretTimeout time.Duration
	Clock            func() time.Time
}

// Answer runs the full pipeline for one question.
func (s *Service) Answer(ctx context.Context, question string) (Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Answer{}, fmt.Errorf("question is required")
	}

	if err := safety.CheckQuestion(question); err != nil {
		observability.ObserveBlockedStatement("question_keyword")
		return Answer{}, s.fail(ctx, FailureForbiddenOperation, err.Error())
	}

	if s.Cache != nil {
		cached, hit, err := s.Cache.Get(ctx, question)
		observability.ObserveCacheLookup(hit && err == nil)
		switch {
		case err != nil:
			s.log(ctx, slog.LevelWarn, "cache lookup failed", slog.Any("error", err))
		case hit:
			observability.ObserveAnswer("cached")
			s.record(archive.Record{Question: question, Answer: cached, Outcome: "cached", FromCache: true})
			return Answer{Interpretation: cached, FromCache: true}, nil
		}
	}

	generated, err := s.generateSQL(ctx, question)
	if err != nil {
		return Answer{}, err
	}

	sqlText := sqlfix.Normalize(generated)
	if prompt.IsNoData(sqlText) {
		return Answer{}, s.noCompatibleData(ctx, question)
	}

	if err := safety.CheckSQL(sqlText); err != nil {
		kind := FailureForbiddenOperation
		rule := "forbidden_keyword"
		if errors.Is(err, safety.ErrNotReadOnly) {
			kind = FailureNotReadOnly
			rule = "not_read_only"
		}
		observability.ObserveBlockedStatement(rule)
		return Answer{}, s.fail(ctx, kind, err.Error())
	}

	result, err := s.Engine.Execute(ctx, sqlText)
	if err != nil {
		if execErr, ok := query.AsExecutionError(err); ok {
			return Answer{}, s.fail(ctx, FailureExecution, execErr.Message)
		}
		return Answer{}, s.fail(ctx, FailureExecution, err.Error())
	}
	observability.ObserveQueryDuration(result.Duration)

	interpretation, err := s.interpret(ctx, question, result)
	if err != nil {
		return Answer{}, err
	}

	if s.Cache != nil {
		if err := s.Cache.Put(ctx, question, interpretation); err != nil {
			s.log(ctx, slog.LevelWarn, "cache write failed", slog.Any("error", err))
		}
	}

	observability.ObserveAnswer("answered")
	s.record(archive.Record{
		Question: question,
		SQL:      sqlText,
		Answer:   interpretation,
		Outcome:  "answered",
		RowCount: int64(len(result.Rows)),
	})
	return Answer{
		Interpretation: interpretation,
		SQL:            sqlText,
		Columns:        result.Columns,
		Rows:           result.Rows,
	}, nil
}

// Translate runs generation and the safety gate without executing, returning
// the sanitized SQL the pipeline would have run.
func (s *Service) Translate(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("question is required")
	}

	if err := safety.CheckQuestion(question); err != nil {
		observability.ObserveBlockedStatement("question_keyword")
		return "", &Failure{Kind: FailureForbiddenOperation, Message: err.Error()}
	}

	generated, err := s.generateSQL(ctx, question)
	if err != nil {
		return "", err
	}

	sqlText := sqlfix.Normalize(generated)
	if prompt.IsNoData(sqlText) {
		return "", s.noCompatibleData(ctx, question)
	}

	if err := safety.CheckSQL(sqlText); err != nil {
		kind := FailureForbiddenOperation
		if errors.Is(err, safety.ErrNotReadOnly) {
			kind = FailureNotReadOnly
		}
		return "", &Failure{Kind: kind, Message: err.Error()}
	}
	return sqlText, nil
}

func (s *Service) generateSQL(ctx context.Context, question string) (string, error) {
	tables, err := s.Schema.ListTables(ctx)
	if err != nil {
		return "", s.fail(ctx, FailureSchemaUnavailable, err.Error())
	}

	var promptText string
	if name, found := tableInQuestion(question, tables); found {
		table, err := s.Schema.DescribeTable(ctx, name)
		if err != nil {
			return "", s.fail(ctx, FailureSchemaUnavailable, err.Error())
		}
		promptText = s.Prompts.Scoped(table)
	} else {
		snapshot, err := s.Schema.Snapshot(ctx)
		if err != nil {
			return "", s.fail(ctx, FailureSchemaUnavailable, err.Error())
		}
		promptText = s.Prompts.Catalog(snapshot)
	}

	generated, err := s.callModel(ctx, s.Generator, s.GenerateTimeout, "generate",
		promptText+"\n\nPergunta do usuário: \""+question+"\"")
	if err != nil {
		return "", err
	}
	return generated, nil
}

func (s *Service) interpret(ctx context.Context, question string, result query.Result) (string, error) {
	client := s.Interpreter
	if client == nil {
		client = s.Generator
	}
	return s.callModel(ctx, client, s.InterpretTimeout, "interpret",
		s.Prompts.Interpretation(question, result.Columns, result.Rows))
}

func (s *Service) callModel(ctx context.Context, client llm.Client, timeout time.Duration, kind, promptText string) (string, error) {
	callCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := s.now()
	text, err := client.Generate(callCtx, promptText)
	observability.ObserveModelCall(kind, s.now().Sub(started))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", s.fail(ctx, FailureGenerationTimeout, fmt.Sprintf("%s call exceeded deadline", kind))
		}
		return "", s.fail(ctx, FailureGeneration, err.Error())
	}
	return text, nil
}

// noCompatibleData surfaces the sentinel outcome, listing the available
// tables so the caller can point the user somewhere useful.
func (s *Service) noCompatibleData(ctx context.Context, question string) error {
	message := "nenhuma tabela compatível com a pergunta"
	if tables, err := s.Schema.ListTables(ctx); err == nil && len(tables) > 0 {
		message = fmt.Sprintf("%s; tabelas disponíveis: %s", message, strings.Join(tables, ", "))
	}
	s.record(archive.Record{Question: question, Outcome: string(FailureNoCompatibleData)})
	return s.fail(ctx, FailureNoCompatibleData, message)
}

func (s *Service) fail(ctx context.Context, kind FailureKind, message string) error {
	observability.ObserveAnswer(string(kind))
	s.log(ctx, slog.LevelInfo, "request failed",
		slog.String("kind", string(kind)),
		slog.String("message", message))
	return &Failure{Kind: kind, Message: message}
}

func (s *Service) record(record archive.Record) {
	if s.Archive == nil {
		return
	}
	record.AnsweredAt = s.now()
	s.Archive.Append(record)
}

func (s *Service) log(ctx context.Context, level slog.Level, msg string, attrs ...any) {
	if s.Logger == nil {
		return
	}
	s.Logger.Log(ctx, level, msg, attrs...)
}

func (s *Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

// tableInQuestion reports the first table whose name appears verbatim in the
// question, ignoring case. A match selects the cheaper scoped prompt.
func tableInQuestion(question string, tables []string) (string, bool) {
	lowered := strings.ToLower(question)
	for _, table := range tables {
		if table == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(table)) {
			return table, true
		}
	}
	return "", false
}
