package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/CTAG07/Sundew/pkg/site"
)

// BuildStatus is the outcome of the most recent build.
type BuildStatus struct {
	Report   *site.Report `json:"report,omitempty"`
	Error    string       `json:"error,omitempty"`
	Finished time.Time    `json:"finished"`
	Building bool         `json:"building"`
}

// buildWorker runs builds one at a time. Requests made while a build is
// running collapse into a single follow-up build.
type buildWorker struct {
	builder *site.Builder
	logger  *slog.Logger
	req     chan struct{}

	mu       sync.Mutex
	status   BuildStatus
	building bool
}

func newBuildWorker(builder *site.Builder, logger *slog.Logger) *buildWorker {
	return &buildWorker{
		builder: builder,
		logger:  logger,
		req:     make(chan struct{}, 1),
	}
}

// Request queues a build without waiting for it.
func (bw *buildWorker) Request() {
	select {
	case bw.req <- struct{}{}:
	default:
	}
}

// Run serves queued build requests until ctx is done.
func (bw *buildWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-bw.req:
			bw.logger.Info("Change detected; rebuilding site")
			_, _ = bw.BuildNow(ctx)
		}
	}
}

// BuildNow builds the site and records the outcome.
func (bw *buildWorker) BuildNow(ctx context.Context) (*site.Report, error) {
	bw.mu.Lock()
	bw.building = true
	bw.mu.Unlock()

	report, err := bw.builder.Build(ctx)
	if err != nil {
		bw.logger.Warn("Build finished with errors", "error", err)
	}

	bw.mu.Lock()
	defer bw.mu.Unlock()
	bw.building = false
	bw.status = BuildStatus{Report: report, Finished: time.Now()}
	if err != nil {
		bw.status.Error = err.Error()
	}
	return report, err
}

// Status returns the outcome of the last finished build.
func (bw *buildWorker) Status() BuildStatus {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	st := bw.status
	st.Building = bw.building
	return st
}
