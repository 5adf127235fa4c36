package natsrpc

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"

	"github.com/sakif/exam-ide/internal/executor"
	"github.com/sakif/exam-ide/internal/service"
)

type stubEngine struct {
	got executor.ExecutionRequest
}

func (s *stubEngine) Execute(_ context.Context, req executor.ExecutionRequest) executor.Result {
	s.got = req
	return executor.Succeeded("ran " + req.Language)
}

func (s *stubEngine) Languages() []executor.Language { return executor.Languages }

func (s *stubEngine) InFlight() int64 { return 0 }

func newTestWorker(engine *stubEngine) *Worker {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	svc := service.NewExecutionService(engine, 16, logger)
	return NewWorker(nil, svc, "examide.execute", "examide-workers", 0, logger)
}

func TestWorker_Handle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid request", `{"code":"print(1)","language":"py"}`, `{"success":true,"output":"ran py","error":null}`},
		{"default language", `{"code":"print(1)"}`, `{"success":true,"output":"ran python","error":null}`},
		{"empty code", `{"code":"","language":"python"}`, `{"success":false,"output":null,"error":"code is required"}`},
		{"code too long", `{"code":"0123456789abcdefX","language":"python"}`, `{"success":false,"output":null,"error":"code exceeds the maximum length of 16 bytes"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorker(&stubEngine{})
			assert.JSONEq(t, tt.want, string(w.handle(context.Background(), []byte(tt.in))))
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		w := newTestWorker(&stubEngine{})
		res := decodeReply(w.handle(context.Background(), []byte(`{"code":`)), nil)
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "invalid request")
	})
}

func TestNewWorker_MinimumConcurrency(t *testing.T) {
	assert.Equal(t, 1, newTestWorker(&stubEngine{}).concurrency)
}

func TestDecodeReply(t *testing.T) {
	tests := []struct {
		name        string
		data        string
		err         error
		wantSuccess bool
		wantText    string
	}{
		{"success", `{"success":true,"output":"hi\n","error":null}`, nil, true, "hi\n"},
		{"failure", `{"success":false,"output":null,"error":"Compilation error"}`, nil, false, "Compilation error"},
		{"no responders", "", nats.ErrNoResponders, false, "no execution workers available"},
		{"timeout", "", context.DeadlineExceeded, false, "execution workers did not answer in time"},
		{"other transport error", "", errors.New("nats: connection closed"), false, "nats: connection closed"},
		{"garbage", "<html>", nil, false, "malformed worker reply"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := decodeReply([]byte(tt.data), tt.err)
			assert.Equal(t, tt.wantSuccess, res.Success)
			if tt.wantSuccess {
				assert.Equal(t, tt.wantText, res.Output)
			} else {
				assert.Contains(t, res.Error, tt.wantText)
			}
		})
	}
}
