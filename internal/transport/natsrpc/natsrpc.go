// Package natsrpc serves executions over NATS request-reply so a pool of
// worker hosts can share the load behind one queue group.
//
// WIRE FORMAT:
//
//	request  subject <nats.subject>   {"code": "...", "language": "..."}
//	reply    inbox of the request     {"success": ..., "output": ..., "error": ...}
//
// An optional ParticipantHeader attributes the execution in worker logs.
// Every request gets exactly one reply; malformed requests are answered with
// a failure result rather than dropped.
package natsrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/sakif/exam-ide/internal/auth"
	"github.com/sakif/exam-ide/internal/executor"
	"github.com/sakif/exam-ide/internal/service"
)

// drainTimeout bounds how long Run waits for queued messages on shutdown.
const drainTimeout = 30 * time.Second

// ParticipantHeader carries the token subject of the requesting participant.
const ParticipantHeader = "Examide-Participant"

// Worker answers execution requests from a queue subscription.
type Worker struct {
	nc          *nats.Conn
	svc         *service.ExecutionService
	subject     string
	queue       string
	concurrency int
	logger      *slog.Logger
}

// NewWorker creates a Worker. concurrency bounds how many requests run at
// once on this host; values below one mean one.
func NewWorker(nc *nats.Conn, svc *service.ExecutionService, subject, queue string, concurrency int, logger *slog.Logger) *Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		nc:          nc,
		svc:         svc,
		subject:     subject,
		queue:       queue,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run serves until ctx is cancelled, then drains the subscription and waits
// for in-progress executions to reply.
func (w *Worker) Run(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(w.concurrency)

	sub, err := w.nc.QueueSubscribe(w.subject, w.queue, func(msg *nats.Msg) {
		// Blocks the dispatcher at the limit; later messages wait in the
		// subscription's pending buffer.
		g.Go(func() error {
			w.serve(ctx, msg)
			return nil
		})
	})
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", w.subject, err)
	}

	w.logger.Info("worker listening",
		slog.String("subject", w.subject),
		slog.String("queue", w.queue),
		slog.Int("concurrency", w.concurrency),
	)

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		w.logger.Warn("draining subscription", slog.String("error", err.Error()))
	}
	// Drain is asynchronous; callbacks may still be handing work to g.
	for deadline := time.Now().Add(drainTimeout); sub.IsValid() && time.Now().Before(deadline); {
		time.Sleep(50 * time.Millisecond)
	}
	return g.Wait()
}

func (w *Worker) serve(ctx context.Context, msg *nats.Msg) {
	if subject := msg.Header.Get(ParticipantHeader); subject != "" {
		ctx = auth.WithSubject(ctx, subject)
	}
	// Executions already running finish even when the worker is stopping.
	reply := w.handle(context.WithoutCancel(ctx), msg.Data)
	if err := msg.Respond(reply); err != nil {
		w.logger.Warn("failed to send reply", slog.String("error", err.Error()))
	}
}

// handle turns one request payload into one reply payload.
func (w *Worker) handle(ctx context.Context, data []byte) []byte {
	var res executor.Result
	var req executor.ExecutionRequest
	if err := json.Unmarshal(data, &req); err != nil {
		res = executor.Failed(executor.KindValidation, executor.PhaseDispatch, "invalid request: "+err.Error())
	} else {
		res, err = w.svc.Run(ctx, req.Code, req.Language)
		if err != nil {
			res = executor.Failed(executor.KindValidation, executor.PhaseDispatch, err.Error())
		}
	}

	out, err := json.Marshal(res)
	if err != nil {
		// Result only holds strings; this cannot happen.
		panic(err)
	}
	return out
}

// Client submits executions to a worker pool. It satisfies executor.Executor.
type Client struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

var _ executor.Executor = (*Client)(nil)

// NewClient creates a Client. timeout bounds each round trip and must cover
// a full compile-then-run pipeline on the worker.
func NewClient(nc *nats.Conn, subject string, timeout time.Duration) *Client {
	return &Client{nc: nc, subject: subject, timeout: timeout}
}

// Execute sends req and waits for the reply. Transport problems come back
// as internal failures.
func (c *Client) Execute(ctx context.Context, req executor.ExecutionRequest) executor.Result {
	data, err := json.Marshal(req)
	if err != nil {
		return executor.Failed(executor.KindInternal, executor.PhaseDispatch, err.Error())
	}

	msg := nats.NewMsg(c.subject)
	msg.Data = data
	if subject, ok := auth.SubjectFromContext(ctx); ok {
		msg.Header.Set(ParticipantHeader, subject)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reply, err := c.nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return decodeReply(nil, err)
	}
	return decodeReply(reply.Data, nil)
}

func decodeReply(data []byte, err error) executor.Result {
	switch {
	case errors.Is(err, nats.ErrNoResponders):
		return executor.Failed(executor.KindInternal, executor.PhaseDispatch, "no execution workers available")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
		return executor.Failed(executor.KindInternal, executor.PhaseDispatch, "execution workers did not answer in time")
	case err != nil:
		return executor.Failed(executor.KindInternal, executor.PhaseDispatch, err.Error())
	}

	var res executor.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return executor.Failed(executor.KindInternal, executor.PhaseDispatch, "malformed worker reply: "+err.Error())
	}
	return res
}
