package async

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/invoice-ledger/constants"
	"github.com/joseph-ayodele/invoice-ledger/internal/core"
	"github.com/joseph-ayodele/invoice-ledger/internal/ingest"
	"github.com/joseph-ayodele/invoice-ledger/internal/ocr"
	"github.com/joseph-ayodele/invoice-ledger/internal/repository"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func invoicePayload(t *testing.T, number string) []byte {
	t.Helper()
	var blocks []ocr.Block
	for _, w := range []string{"Rechnungsnummer", number, "Zahlbetrag", "10,00"} {
		blocks = append(blocks, ocr.Block{Lines: []ocr.Line{{Words: []ocr.Word{{Value: w}}}}})
	}
	data, err := json.Marshal(ocr.Payload{Pages: []ocr.Page{{Blocks: blocks}}})
	require.NoError(t, err)
	return data
}

func TestProcessorQueueProcessesEveryJob(t *testing.T) {
	db, err := repository.Connect(context.Background(), repository.Config{}, true, discard)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, discard) })
	store := repository.NewStore(db.Driver, discard)
	proc := core.NewProcessor(store, nil, discard)

	var (
		mu      sync.Mutex
		results = map[string]core.Result{}
	)
	q := NewProcessorQueue(proc, store, discard,
		WithWorkers(2),
		WithQueueSize(1),
		WithProcessTimeout(time.Minute),
		WithResultHandler(func(job Job, res core.Result) {
			mu.Lock()
			defer mu.Unlock()
			results[job.Source.Name()] = res
		}),
	)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		src := ingest.BytesSource{Filename: fmt.Sprintf("doc-%d.json", i), Data: invoicePayload(t, fmt.Sprintf("INV-%d", i))}
		require.NoError(t, q.Enqueue(ctx, Job{Source: src, TraceID: fmt.Sprintf("trace-%d", i)}))
	}
	require.NoError(t, q.Enqueue(ctx, Job{Source: ingest.BytesSource{Filename: "bad.json", Data: []byte("{")}}))

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, results, 6)
	for i := 0; i < 5; i++ {
		res := results[fmt.Sprintf("doc-%d.json", i)]
		assert.Equal(t, constants.OutcomeSuccess, res.Outcome, res.Error)
		assert.Equal(t, fmt.Sprintf("INV-%d", i), res.InvoiceNumber)
	}
	assert.Equal(t, constants.OutcomeFailed, results["bad.json"].Outcome)

	err = q.Enqueue(ctx, Job{Source: ingest.BytesSource{Filename: "late.json"}})
	assert.ErrorIs(t, err, ErrQueueClosed)
	// a second shutdown is a no-op
	q.Shutdown(ctx)
}

func TestProcessorQueueEnqueueHonoursContext(t *testing.T) {
	// no workers and no buffer: the queue is always full
	q := &ProcessorQueue{logger: discard, ch: make(chan Job)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := q.Enqueue(ctx, Job{Source: ingest.BytesSource{Filename: "x.json"}})
	assert.ErrorIs(t, err, context.Canceled)
}

// stalledSource blocks in Load until its context ends.
type stalledSource struct{ name string }

func (s stalledSource) Name() string     { return s.name }
func (s stalledSource) Location() string { return "stalled/" + s.name }
func (s stalledSource) Bucket() string   { return "" }
func (s stalledSource) Load(ctx context.Context) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestProcessorQueueTimeoutRecordsFailure(t *testing.T) {
	db, err := repository.Connect(context.Background(), repository.Config{}, true, discard)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, discard) })
	store := repository.NewStore(db.Driver, discard)
	proc := core.NewProcessor(store, nil, discard)

	done := make(chan core.Result, 1)
	q := NewProcessorQueue(proc, store, discard,
		WithWorkers(1),
		WithProcessTimeout(20*time.Millisecond),
		WithResultHandler(func(_ Job, res core.Result) { done <- res }),
	)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{Source: stalledSource{name: "slow.json"}}))

	var res core.Result
	select {
	case res = <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for result")
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	q.Shutdown(shutdownCtx)

	assert.Equal(t, constants.OutcomeFailed, res.Outcome)
	assert.Contains(t, res.Error, "deadline exceeded")
	require.NotEqual(t, uuid.Nil, res.DocumentID)

	doc, err := store.Repos().Documents.GetByID(ctx, res.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, constants.DocumentFailed, doc.Status)
	jobs, err := store.Repos().Jobs.ListByDocument(ctx, res.DocumentID)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	require.NotNil(t, jobs[0].Success)
	assert.False(t, *jobs[0].Success)
}
