package ticker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/sunface/internal/looper"
)

func TestTicker_FiresOncePerPeriod(t *testing.T) {
	m := looper.NewManual(time.Unix(0, 0))
	fires := 0
	tk := New(m, time.Second, func() { fires++ })

	tk.Start()
	m.Advance(3500 * time.Millisecond)
	if fires != 4 {
		t.Fatalf("fires = %d, want 4 (t=0,1,2,3)", fires)
	}
	if !tk.Running() {
		t.Fatalf("Running() = false, want true")
	}
}

func TestTicker_DoubleStartDoesNotDoubleFire(t *testing.T) {
	m := looper.NewManual(time.Unix(0, 0))
	var fireTimes []time.Time
	tk := New(m, time.Second, func() { fireTimes = append(fireTimes, m.Now()) })

	tk.Start()
	tk.Start()
	m.Advance(5 * time.Second)

	if len(fireTimes) != 6 {
		t.Fatalf("fires = %d, want 6", len(fireTimes))
	}
	for i := 1; i < len(fireTimes); i++ {
		if gap := fireTimes[i].Sub(fireTimes[i-1]); gap < time.Second {
			t.Fatalf("fires %d and %d only %v apart", i-1, i, gap)
		}
	}
	if m.Pending() != 1 {
		t.Fatalf("Pending() = %d, want exactly one scheduled fire", m.Pending())
	}
}

func TestTicker_RestartMidPeriodReschedulesFromNow(t *testing.T) {
	m := looper.NewManual(time.Unix(0, 0))
	var fireTimes []time.Duration
	tk := New(m, time.Second, func() { fireTimes = append(fireTimes, m.Now().Sub(time.Unix(0, 0))) })

	tk.Start()
	m.Advance(1500 * time.Millisecond) // fires at 0s and 1s
	tk.Start()
	m.Advance(1200 * time.Millisecond) // fires at 1.5s and 2.5s

	want := []time.Duration{0, time.Second, 1500 * time.Millisecond, 2500 * time.Millisecond}
	if len(fireTimes) != len(want) {
		t.Fatalf("fire times = %v, want %v", fireTimes, want)
	}
	for i := range want {
		if fireTimes[i] != want[i] {
			t.Fatalf("fire times = %v, want %v", fireTimes, want)
		}
	}
}

func TestTicker_StopPreventsFurtherFires(t *testing.T) {
	m := looper.NewManual(time.Unix(0, 0))
	fires := 0
	tk := New(m, time.Second, func() { fires++ })

	tk.Start()
	m.Advance(1100 * time.Millisecond)
	tk.Stop()
	before := fires
	m.Advance(10 * time.Second)

	if fires != before {
		t.Fatalf("fires after Stop = %d, want %d", fires, before)
	}
	if tk.Running() {
		t.Fatalf("Running() = true after Stop")
	}
	if m.Pending() != 0 {
		t.Fatalf("Pending() = %d after Stop, want 0", m.Pending())
	}
}

func TestTicker_StopFromCallback(t *testing.T) {
	m := looper.NewManual(time.Unix(0, 0))
	fires := 0
	var tk *Ticker
	tk = New(m, time.Second, func() {
		fires++
		if fires == 2 {
			tk.Stop()
		}
	})
	tk.Start()
	m.Advance(10 * time.Second)
	if fires != 2 {
		t.Fatalf("fires = %d, want 2", fires)
	}
}

func TestTicker_RealLoopWithJitter(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	loop := looper.New()
	go func() { _ = loop.Run(ctx) }()

	const period = 40 * time.Millisecond
	var fires atomic.Int32
	var tk *Ticker
	if err := loop.Call(ctx, func() {
		tk = New(loop, period, func() { fires.Add(1) })
		tk.Start()
		tk.Start()
	}); err != nil {
		t.Fatalf("Call: %v", err)
	}

	time.Sleep(5*period + period/2)
	if err := loop.Call(ctx, tk.Stop); err != nil {
		t.Fatalf("Call: %v", err)
	}
	got := fires.Load()
	// Expect about six fires; a duplicated timer would produce about twelve.
	if got < 3 || got > 8 {
		t.Fatalf("fires = %d over 5.5 periods, want roughly 6", got)
	}

	time.Sleep(4 * period)
	if after := fires.Load(); after != got {
		t.Fatalf("fires after Stop = %d, want %d", after, got)
	}
}
