// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package consulta

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ManuGH/consultaprocesos/internal/radicado"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// fakeQuerier answers from a status table and can block until released.
type fakeQuerier struct {
	statuses map[radicado.Radicado]Status
	inFlight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
	onQuery  func(radicado.Radicado)
}

func (f *fakeQuerier) Query(ctx context.Context, r radicado.Radicado) (Record, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.onQuery != nil {
		f.onQuery(r)
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Record{}, ctx.Err()
		}
	}
	rec := NewRecord(r.String(), time.Time{})
	rec.Status = StatusSuccess
	if s, ok := f.statuses[r]; ok {
		rec.Status = s
	}
	return rec, nil
}

type memorySink struct {
	mu   sync.Mutex
	seqs []int
}

func (s *memorySink) SaveRecord(_ context.Context, _ string, seq int, _ Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seqs = append(s.seqs, seq)
	return nil
}

func rads(n int) []radicado.Radicado {
	out := make([]radicado.Radicado, n)
	for i := range out {
		out[i] = radicado.Radicado("1100131030012019001230" + string(rune('0'+i)))
	}
	return out
}

func TestRunnerPreservesOrderWithWorkers(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	input := rads(8)
	q := &fakeQuerier{
		statuses: map[radicado.Radicado]Status{input[2]: StatusPrivate, input[5]: StatusNotFound},
		delay:    5 * time.Millisecond,
	}
	sink := &memorySink{}
	var progress []int
	rn := &Runner{
		Querier:  q,
		Workers:  3,
		Sink:     sink,
		Progress: func(p Progress) { progress = append(progress, p.Done) },
	}

	res := rn.Run(context.Background(), "run-1", input)
	require.Len(t, res.Records, 8)
	for i, r := range res.Records {
		assert.Equal(t, input[i].String(), r.Radicado)
	}
	assert.False(t, res.Interrupted)
	assert.Equal(t, Stats{Total: 8, Success: 6, Private: 1, NotFound: 1}, res.Stats)
	assert.LessOrEqual(t, q.peak.Load(), int32(3))
	assert.Len(t, sink.seqs, 8)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, progress)
	assert.Equal(t, "run-1", res.RunID)
}

func TestRunnerPausesBetweenCases(t *testing.T) {
	var pauses []time.Duration
	rn := &Runner{
		Querier:   &fakeQuerier{},
		CaseDelay: 3 * time.Second,
		Pause: func(_ context.Context, d time.Duration) error {
			pauses = append(pauses, d)
			return nil
		},
	}

	res := rn.Run(context.Background(), "run-2", rads(3))
	assert.Len(t, res.Records, 3)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, pauses)
}

func TestRunnerCancellationStopsScheduling(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := rads(6)
	q := &fakeQuerier{}
	q.onQuery = func(r radicado.Radicado) {
		if r == input[1] {
			cancel()
		}
	}
	rn := &Runner{Querier: q, Workers: 1}

	res := rn.Run(ctx, "run-3", input)
	assert.True(t, res.Interrupted)
	require.NotEmpty(t, res.Records)
	assert.Less(t, len(res.Records), len(input))
	assert.Equal(t, input[0].String(), res.Records[0].Radicado)
}

func TestRunnerEmptyInput(t *testing.T) {
	res := (&Runner{Querier: &fakeQuerier{}}).Run(context.Background(), "run-4", nil)
	assert.Empty(t, res.Records)
	assert.False(t, res.Interrupted)
	assert.Zero(t, res.Stats.SuccessRate())
}
