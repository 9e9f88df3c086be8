// Package handler adapts generation runs to AWS Lambda invocations.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"sentence-generator/internal/domain"
	"sentence-generator/internal/usecase"
)

// shutdownMargin is reserved before the Lambda deadline so in-flight items
// can be persisted and the summary returned.
const shutdownMargin = 15 * time.Second

// Runner runs one generation batch.
type Runner interface {
	Run(ctx context.Context, source string) (usecase.Summary, error)
	RunItems(ctx context.Context, items []domain.VocabularyItem) (usecase.Summary, error)
}

// Request is the invocation payload. Words take precedence over Vocabulary;
// each word may use the "key<TAB>text" form.
type Request struct {
	Vocabulary string   `json:"vocabulary"`
	Words      []string `json:"words"`
}

type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

type Handler struct {
	runner Runner
	logger *slog.Logger
}

func NewHandler(runner Runner, logger *slog.Logger) (*Handler, error) {
	if runner == nil {
		return nil, errors.New("handler: runner must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{runner: runner, logger: logger}, nil
}

// Handle runs the requested batch and returns its summary. Per-item failures
// still produce a 200; only input and ledger errors map to error statuses.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	var req Request
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			return h.errorResponse(&usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_json", Err: err}), nil
		}
	}

	ctx, cancel := withShutdownMargin(ctx)
	defer cancel()

	var (
		summary usecase.Summary
		err     error
	)
	switch {
	case len(req.Words) > 0:
		var items []domain.VocabularyItem
		items, err = usecase.ParseVocabulary([]byte(strings.Join(req.Words, "\n")), false)
		if err == nil {
			summary, err = h.runner.RunItems(ctx, items)
		}
	case strings.TrimSpace(req.Vocabulary) != "":
		summary, err = h.runner.Run(ctx, req.Vocabulary)
	default:
		err = &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_request"}
	}
	if err != nil {
		return h.errorResponse(err), nil
	}

	body, err := json.Marshal(summary)
	if err != nil {
		return h.errorResponse(err), nil
	}
	return Response{
		StatusCode: http.StatusOK,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Run-Id":     summary.RunID,
		},
		Body: string(body),
	}, nil
}

func withShutdownMargin(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) <= 2*shutdownMargin {
		return context.WithCancel(ctx)
	}
	return context.WithDeadline(ctx, deadline.Add(-shutdownMargin))
}

func (h *Handler) errorResponse(err error) Response {
	status := http.StatusInternalServerError
	out := errorResponse{Error: "INTERNAL"}

	var ue *usecase.Error
	if errors.As(err, &ue) {
		out = errorResponse{Error: string(ue.Code), Reason: ue.Reason}
		switch ue.Code {
		case usecase.ErrorInvalidInput:
			status = http.StatusBadRequest
		case usecase.ErrorStorageUnavailable:
			status = http.StatusServiceUnavailable
		}
	}
	h.logger.Error("generation run failed", "status", status, "err", err)

	body, _ := json.Marshal(out)
	return Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
	}
}
