package opengl

import (
	"time"

	"github.com/go-gl/gl/v3.3-core/gl"

	"github.com/pthm-cable/fluid/gpu"
)

// queryTimer measures GPU time with TIME_ELAPSED queries. Only one such
// query can be active, so spans never overlap.
type queryTimer struct {
	free    []uint32
	pending []issuedQuery
	open    bool
}

type issuedQuery struct {
	id    uint32
	step  uint64
	phase string
}

func (t *queryTimer) Mark(step uint64, phase string) {
	t.Close()
	id := t.query()
	gl.BeginQuery(gl.TIME_ELAPSED, id)
	t.pending = append(t.pending, issuedQuery{id: id, step: step, phase: phase})
	t.open = true
}

func (t *queryTimer) Close() {
	if t.open {
		gl.EndQuery(gl.TIME_ELAPSED)
		t.open = false
	}
}

// Collect reads results without stalling: it stops at the first query the
// driver has not resolved yet.
func (t *queryTimer) Collect(dst []gpu.Span) []gpu.Span {
	ready := len(t.pending)
	if t.open {
		ready--
	}
	n := 0
	for ; n < ready; n++ {
		q := t.pending[n]
		var available int32
		gl.GetQueryObjectiv(q.id, gl.QUERY_RESULT_AVAILABLE, &available)
		if available == 0 {
			break
		}
		var ns uint64
		gl.GetQueryObjectui64v(q.id, gl.QUERY_RESULT, &ns)
		dst = append(dst, gpu.Span{Step: q.step, Phase: q.phase, Elapsed: time.Duration(ns)})
		t.free = append(t.free, q.id)
	}
	t.pending = t.pending[:copy(t.pending, t.pending[n:])]
	return dst
}

func (t *queryTimer) query() uint32 {
	if n := len(t.free); n > 0 {
		id := t.free[n-1]
		t.free = t.free[:n-1]
		return id
	}
	var id uint32
	gl.GenQueries(1, &id)
	return id
}

func (t *queryTimer) release() {
	t.Close()
	for _, q := range t.pending {
		t.free = append(t.free, q.id)
	}
	t.pending = nil
	if len(t.free) > 0 {
		gl.DeleteQueries(int32(len(t.free)), &t.free[0])
	}
	t.free = nil
}
