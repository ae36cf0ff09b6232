package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hubia/hubia/internal/pipeline"
)

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Interpretation string   `json:"interpretation"`
	SQL            string   `json:"sql,omitempty"`
	Columns        []string `json:"columns,omitempty"`
	Rows           [][]any  `json:"rows,omitempty"`
	FromCache      bool     `json:"from_cache"`
}

type translateResponse struct {
	SQL string `json:"sql"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline is not configured", false, nil)
		return
	}

	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}

	answer, err := deps.Pipeline.Answer(r.Context(), question)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Interpretation: answer.Interpretation,
		SQL:            answer.SQL,
		Columns:        answer.Columns,
		Rows:           answer.Rows,
		FromCache:      answer.FromCache,
	})
}

func handleTranslate(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Pipeline == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "PIPELINE_NOT_CONFIGURED", "pipeline is not configured", false, nil)
		return
	}

	question, ok := decodeQuestion(w, r)
	if !ok {
		return
	}

	sqlText, err := deps.Pipeline.Translate(r.Context(), question)
	if err != nil {
		writeFailure(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, translateResponse{SQL: sqlText})
}

func decodeQuestion(w http.ResponseWriter, r *http.Request) (string, bool) {
	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid request body", false, map[string]any{"details": err.Error()})
		return "", false
	}
	question := strings.TrimSpace(request.Question)
	if question == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return "", false
	}
	return question, true
}

// writeFailure maps a pipeline outcome to an HTTP status. Safety refusals
// keep the rule description in the message so the caller sees why the
// request was blocked.
func writeFailure(ctx context.Context, w http.ResponseWriter, err error) {
	failure, ok := pipeline.AsFailure(err)
	if !ok {
		writeError(ctx, w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), false, nil)
		return
	}

	switch failure.Kind {
	case pipeline.FailureSchemaUnavailable:
		writeError(ctx, w, http.StatusServiceUnavailable, "SCHEMA_UNAVAILABLE", failure.Message, true, nil)
	case pipeline.FailureGeneration:
		writeError(ctx, w, http.StatusBadGateway, "GENERATION_FAILED", failure.Message, true, nil)
	case pipeline.FailureGenerationTimeout:
		writeError(ctx, w, http.StatusGatewayTimeout, "GENERATION_TIMEOUT", failure.Message, true, nil)
	case pipeline.FailureNotReadOnly:
		writeError(ctx, w, http.StatusBadRequest, "NOT_READ_ONLY", failure.Message, false, nil)
	case pipeline.FailureForbiddenOperation:
		writeError(ctx, w, http.StatusBadRequest, "FORBIDDEN_OPERATION", failure.Message, false, nil)
	case pipeline.FailureExecution:
		writeError(ctx, w, http.StatusBadRequest, "QUERY_EXECUTION_FAILED", failure.Message, false, nil)
	case pipeline.FailureNoCompatibleData:
		writeError(ctx, w, http.StatusNotFound, "NO_COMPATIBLE_DATA", failure.Message, false, nil)
	default:
		writeError(ctx, w, http.StatusInternalServerError, "PIPELINE_FAILED", failure.Message, true, nil)
	}
}
