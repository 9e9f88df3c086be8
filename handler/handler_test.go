package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sentence-generator/internal/domain"
	"sentence-generator/internal/usecase"
)

type stubRunner struct {
	summary usecase.Summary
	err     error

	source   string
	items    []domain.VocabularyItem
	deadline time.Time
}

func (s *stubRunner) Run(ctx context.Context, source string) (usecase.Summary, error) {
	s.source = source
	s.deadline, _ = ctx.Deadline()
	return s.summary, s.err
}

func (s *stubRunner) RunItems(ctx context.Context, items []domain.VocabularyItem) (usecase.Summary, error) {
	s.items = items
	s.deadline, _ = ctx.Deadline()
	return s.summary, s.err
}

func newTestHandler(t *testing.T, r Runner) *Handler {
	t.Helper()
	h, err := NewHandler(r, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return h
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func TestNewHandler_ValidatesDependency(t *testing.T) {
	_, err := NewHandler(nil, nil)
	require.Error(t, err)
}

func TestHandle_Vocabulary(t *testing.T) {
	r := &stubRunner{summary: usecase.Summary{RunID: "run-1", Succeeded: 2}}
	h := newTestHandler(t, r)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"vocabulary":"s3://vocab/hsk1.txt"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "s3://vocab/hsk1.txt", r.source)
	require.Equal(t, "run-1", resp.Headers["X-Run-Id"])

	out := parseBody[usecase.Summary](t, resp.Body)
	require.Equal(t, "run-1", out.RunID)
	require.Equal(t, 2, out.Succeeded)
}

func TestHandle_WordsTakePrecedence(t *testing.T) {
	r := &stubRunner{summary: usecase.Summary{RunID: "run-2"}}
	h := newTestHandler(t, r)

	resp, err := h.Handle(context.Background(), json.RawMessage(`{"vocabulary":"ignored.txt","words":["爱","k1\t八","爱"]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, r.source)
	require.Equal(t, []domain.VocabularyItem{{ID: "爱", Text: "爱"}, {ID: "k1", Text: "八"}}, r.items)
}

func TestHandle_InvalidRequests(t *testing.T) {
	cases := map[string]string{
		"not json":     `not-json`,
		"empty object": `{}`,
		"blank words":  `{"words":["", "  "]}`,
		"blank source": `{"vocabulary":"  "}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			h := newTestHandler(t, &stubRunner{})
			resp, err := h.Handle(context.Background(), json.RawMessage(body))
			require.NoError(t, err)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, string(usecase.ErrorInvalidInput), out.Error)
		})
	}
}

func TestHandle_MapsRunErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "read_failed"}, status: http.StatusBadRequest, code: string(usecase.ErrorInvalidInput)},
		{name: "storage unavailable", err: &usecase.Error{Code: usecase.ErrorStorageUnavailable, Reason: "ledger_list_failed"}, status: http.StatusServiceUnavailable, code: string(usecase.ErrorStorageUnavailable)},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, code: "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestHandler(t, &stubRunner{err: tc.err})

			resp, err := h.Handle(context.Background(), json.RawMessage(`{"vocabulary":"words.txt"}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)

			out := parseBody[errorResponse](t, resp.Body)
			require.Equal(t, tc.code, out.Error)
		})
	}
}

func TestHandle_ReservesShutdownMargin(t *testing.T) {
	r := &stubRunner{}
	h := newTestHandler(t, r)

	deadline := time.Now().Add(5 * time.Minute)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	_, err := h.Handle(ctx, json.RawMessage(`{"vocabulary":"words.txt"}`))
	require.NoError(t, err)
	require.WithinDuration(t, deadline.Add(-shutdownMargin), r.deadline, time.Millisecond)
}

func TestHandle_ShortDeadlineIsKept(t *testing.T) {
	r := &stubRunner{}
	h := newTestHandler(t, r)

	deadline := time.Now().Add(10 * time.Second)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	_, err := h.Handle(ctx, json.RawMessage(`{"vocabulary":"words.txt"}`))
	require.NoError(t, err)
	require.Equal(t, deadline, r.deadline)
}
