package state

import (
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/five82/sunface/internal/datalayer"
)

var epoch = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func colours(bg string) *datalayer.Payload {
	return datalayer.NewPayload().PutString("KEY_BACKGROUND_COLOUR", bg)
}

func background(t *testing.T, rec datalayer.Record) string {
	t.Helper()
	bg, ok := rec.Payload.String("KEY_BACKGROUND_COLOUR")
	if !ok {
		t.Fatalf("record %s has no background", rec.Path)
	}
	return bg
}

func TestStore_PutThenGet(t *testing.T) {
	s := NewStore(fixedClock(epoch))

	s.Put(datalayer.PathWatchFaceConfig, colours("#102030"))
	rec, ok := s.Get(datalayer.PathWatchFaceConfig)
	if !ok {
		t.Fatalf("Get() ok = false after Put")
	}
	if got := background(t, rec); got != "#102030" {
		t.Fatalf("background = %q, want #102030", got)
	}
	if !rec.Timestamp.Equal(epoch) {
		t.Fatalf("Timestamp = %v, want %v", rec.Timestamp, epoch)
	}

	// Returned records are independent of the stored one.
	rec.Payload.PutString("KEY_BACKGROUND_COLOUR", "#FFFFFF")
	again, _ := s.Get(datalayer.PathWatchFaceConfig)
	if got := background(t, again); got != "#102030" {
		t.Fatalf("Get should clone payload; got %q", got)
	}
}

func TestStore_PutReplacesWholesale(t *testing.T) {
	s := NewStore(nil)
	s.Put(datalayer.PathWeather, datalayer.NewPayload().PutInt("weather_id", 800).PutString("extra", "x"))
	s.Put(datalayer.PathWeather, datalayer.NewPayload().PutInt("weather_id", 500))

	rec, _ := s.Get(datalayer.PathWeather)
	if rec.Payload.Has("extra") {
		t.Fatalf("stale key survived a replacing Put")
	}
	if got := s.Paths(); !reflect.DeepEqual(got, []string{datalayer.PathWeather}) {
		t.Fatalf("Paths() = %v, want one path", got)
	}
}

func TestStore_ApplyRemoteLastTimestampWins(t *testing.T) {
	s := NewStore(nil)
	path := datalayer.PathWatchFaceConfig

	if !s.ApplyRemote(datalayer.Record{Path: path, Payload: colours("#000001"), Timestamp: epoch}) {
		t.Fatalf("first ApplyRemote reported no change")
	}
	if s.ApplyRemote(datalayer.Record{Path: path, Payload: colours("#000002"), Timestamp: epoch.Add(-time.Second)}) {
		t.Fatalf("older ApplyRemote reported a change")
	}
	rec, _ := s.Get(path)
	if got := background(t, rec); got != "#000001" {
		t.Fatalf("older record replaced current: %q", got)
	}

	if !s.ApplyRemote(datalayer.Record{Path: path, Payload: colours("#000003"), Timestamp: epoch}) {
		t.Fatalf("equal-timestamp ApplyRemote with new payload reported no change")
	}
	if s.ApplyRemote(datalayer.Record{Path: path, Payload: colours("#000003"), Timestamp: epoch}) {
		t.Fatalf("identical redelivery reported a change")
	}
	if !s.ApplyRemote(datalayer.Record{Path: path, Payload: colours("#000004"), Timestamp: epoch.Add(time.Minute)}) {
		t.Fatalf("newer ApplyRemote reported no change")
	}
	rec, _ = s.Get(path)
	if got := background(t, rec); got != "#000004" {
		t.Fatalf("background = %q, want #000004", got)
	}
}

func TestStore_SubscribePerPath(t *testing.T) {
	s := NewStore(nil)
	var config, weather []string
	s.Subscribe(datalayer.PathWatchFaceConfig, func(rec datalayer.Record) {
		config = append(config, background(t, rec))
	})
	unsubscribe := s.Subscribe(datalayer.PathWeather, func(rec datalayer.Record) {
		weather = append(weather, rec.Path)
	})

	s.Put(datalayer.PathWatchFaceConfig, colours("#000001"))
	s.Put(datalayer.PathWeather, datalayer.NewPayload().PutInt("weather_id", 1))
	unsubscribe()
	unsubscribe()
	s.Put(datalayer.PathWeather, datalayer.NewPayload().PutInt("weather_id", 2))

	if !reflect.DeepEqual(config, []string{"#000001"}) {
		t.Fatalf("config notifications = %v", config)
	}
	if len(weather) != 1 {
		t.Fatalf("weather notifications = %v, want 1 before unsubscribe", weather)
	}
}

func TestStore_NotificationsFIFOWhenListenerWrites(t *testing.T) {
	s := NewStore(nil)
	path := datalayer.PathWatchFaceConfig
	var seen []string
	s.Subscribe(path, func(rec datalayer.Record) {
		bg := background(t, rec)
		seen = append(seen, bg)
		if bg == "#000001" {
			// A nested write is queued behind the current delivery.
			s.Put(path, colours("#000002"))
		}
	})
	s.Subscribe(path, func(rec datalayer.Record) {
		seen = append(seen, "second:"+background(t, rec))
	})

	s.Put(path, colours("#000001"))
	want := []string{"#000001", "second:#000001", "#000002", "second:#000002"}
	if !reflect.DeepEqual(seen, want) {
		t.Fatalf("delivery order = %v, want %v", seen, want)
	}
}

func TestStore_ConcurrentWritersKeepPathOrder(t *testing.T) {
	s := NewStore(nil)
	path := datalayer.PathWeather
	var mu sync.Mutex
	var last int64 = -1
	ordered := true
	s.Subscribe(path, func(rec datalayer.Record) {
		id, _ := rec.Payload.Int("weather_id")
		mu.Lock()
		if id < last {
			ordered = false
		}
		last = id
		mu.Unlock()
	})

	var wg sync.WaitGroup
	var seq sync.Mutex
	next := int64(0)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				seq.Lock()
				id := next
				next++
				s.Put(path, datalayer.NewPayload().PutInt("weather_id", id))
				seq.Unlock()
			}
		}()
	}
	wg.Wait()
	if !ordered {
		t.Fatalf("notifications for one path were reordered")
	}
}

func TestStore_UnsynchronizedWritersNotifyInWriteOrder(t *testing.T) {
	tests := []struct {
		name  string
		write func(s *Store, id int64, stamp time.Time)
	}{
		{"put", func(s *Store, id int64, _ time.Time) {
			s.Put(datalayer.PathWeather, datalayer.NewPayload().PutInt("weather_id", id))
		}},
		{"apply remote", func(s *Store, id int64, stamp time.Time) {
			s.ApplyRemote(datalayer.Record{
				Path:      datalayer.PathWeather,
				Payload:   datalayer.NewPayload().PutInt("weather_id", id),
				Timestamp: stamp,
			})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(nil)
			var mu sync.Mutex
			var notified []int64
			s.Subscribe(datalayer.PathWeather, func(rec datalayer.Record) {
				id, _ := rec.Payload.Int("weather_id")
				mu.Lock()
				notified = append(notified, id)
				mu.Unlock()
			})

			var wg sync.WaitGroup
			for w := range 8 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range 100 {
						id := int64(w*1000 + i)
						tt.write(s, id, epoch.Add(time.Duration(i)*time.Millisecond))
					}
				}()
			}
			wg.Wait()

			stored, ok := s.Get(datalayer.PathWeather)
			if !ok {
				t.Fatalf("no record stored")
			}
			want, _ := stored.Payload.Int("weather_id")
			mu.Lock()
			defer mu.Unlock()
			if len(notified) == 0 {
				t.Fatalf("no notifications")
			}
			if got := notified[len(notified)-1]; got != want {
				t.Fatalf("last notification = %d, stored = %d", got, want)
			}
		})
	}
}

func TestTracker_UpdateAndFailures(t *testing.T) {
	var tr Tracker

	if tr.Status().IsOffline() {
		t.Fatal("IsOffline() = true, want false with 0 failures")
	}

	origErr := errors.New("dial tcp: refused")
	tr.Update(datalayer.Disconnected, origErr)
	tr.Update(datalayer.Disconnected, origErr)
	snap := tr.Status()
	if snap.ConsecutiveFailures != 2 || !snap.IsOffline() {
		t.Fatalf("status = %+v, want 2 failures and offline", snap)
	}
	if snap.LastError == nil || snap.LastError.Error() != origErr.Error() {
		t.Fatalf("LastError = %v, want %v", snap.LastError, origErr)
	}
	if reflect.ValueOf(snap.LastError).Pointer() == reflect.ValueOf(origErr).Pointer() {
		t.Fatalf("Status should clone error instance")
	}

	tr.Update(datalayer.Connected, nil)
	snap = tr.Status()
	if snap.ConsecutiveFailures != 0 || snap.LastError != nil || snap.Connection != datalayer.Connected {
		t.Fatalf("status after connect = %+v", snap)
	}
}

func TestTracker_Counters(t *testing.T) {
	var tr Tracker
	tr.RecordApplied()
	tr.RecordDropped(datalayer.ErrMalformedPayload)
	snap := tr.Status()
	if snap.Applied != 1 || snap.Dropped != 1 || snap.LastSync.IsZero() {
		t.Fatalf("status = %+v, want one applied and one dropped", snap)
	}
	if !errors.Is(snap.LastError, datalayer.ErrMalformedPayload) {
		t.Fatalf("LastError = %v, want ErrMalformedPayload", snap.LastError)
	}
}
