package admm

import (
	"reflect"
	"testing"
	"time"
)

func TestTrackerSeries(t *testing.T) {
	tr := NewTracker(0)

	if _, ok := tr.Last(); ok {
		t.Fatal("empty tracker reported a last record")
	}

	for i := 1; i <= 3; i++ {
		tr.Append(IterationStats{
			Iter:       i,
			ObjFun:     float64(10 * i),
			PrimalRsdl: 1 / float64(i),
			DualRsdl:   2 / float64(i),
			Rho:        float64(i),
			Time:       time.Duration(i) * time.Millisecond,
		})
	}

	if tr.Len() != 3 {
		t.Fatalf("Len=%d", tr.Len())
	}

	if got := tr.ObjFun(); !reflect.DeepEqual(got, []float64{10, 20, 30}) {
		t.Fatalf("ObjFun=%v", got)
	}

	if got := tr.DualRsdl(); !reflect.DeepEqual(got, []float64{2, 1, 2.0 / 3}) {
		t.Fatalf("DualRsdl=%v", got)
	}

	if got := tr.Time(); got[2] != 3*time.Millisecond {
		t.Fatalf("Time=%v", got)
	}

	recs := tr.Records()
	recs[0].ObjFun = -1

	if tr.ObjFun()[0] != 10 {
		t.Fatal("Records returned a view into the log")
	}

	if last, _ := tr.Last(); last.Iter != 3 {
		t.Fatalf("Last=%+v", last)
	}
}

func TestTimerAccumulates(t *testing.T) {
	now := time.Unix(0, 0)
	tm := NewTimer()
	tm.now = func() time.Time { return now }

	tm.Start("solve")
	now = now.Add(2 * time.Second)
	tm.Start("solve")

	if lap := tm.Stop("solve"); lap != 2*time.Second {
		t.Fatalf("lap=%v", lap)
	}

	tm.Start("solve")
	now = now.Add(time.Second)

	if got := tm.Elapsed("solve"); got != 3*time.Second {
		t.Fatalf("running Elapsed=%v", got)
	}

	tm.Stop("solve")

	if got := tm.Stop("solve"); got != 0 {
		t.Fatalf("Stop on idle label=%v", got)
	}

	if got := tm.Elapsed("missing"); got != 0 {
		t.Fatalf("Elapsed(missing)=%v", got)
	}

	tm.Start("reconstruct")

	if got := tm.Labels(); !reflect.DeepEqual(got, []string{"reconstruct", "solve"}) {
		t.Fatalf("Labels=%v", got)
	}
}
