package gpu

import (
	"testing"
	"time"
)

func TestWallTimerSplitsAtMarks(t *testing.T) {
	var clock time.Duration
	w := NewWallTimer(func() time.Duration { return clock })

	w.Mark(1, "advect")
	clock += 3 * time.Millisecond
	w.Mark(1, "pressure")
	clock += 5 * time.Millisecond
	w.Close()
	w.Close()

	spans := w.Collect(nil)
	want := []Span{
		{Step: 1, Phase: "advect", Elapsed: 3 * time.Millisecond},
		{Step: 1, Phase: "pressure", Elapsed: 5 * time.Millisecond},
	}
	if len(spans) != len(want) {
		t.Fatalf("spans = %+v", spans)
	}
	for i := range want {
		if spans[i] != want[i] {
			t.Errorf("span %d = %+v, want %+v", i, spans[i], want[i])
		}
	}
	if again := w.Collect(nil); len(again) != 0 {
		t.Errorf("spans reported twice: %+v", again)
	}
}
