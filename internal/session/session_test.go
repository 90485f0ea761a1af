package session_test

import (
	"errors"
	"slices"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/fakeyudi/tabletalk/internal/session"
)

// generateTime produces an arbitrary time.Time value at second precision.
func generateTime(t *rapid.T, label string) time.Time {
	sec := rapid.Int64Range(1_000_000_000, 1_700_000_000).Draw(t, label+"_unix_sec")
	return time.Unix(sec, 0).UTC()
}

// Feature: tabletalk, Property 2: Message log preserves insertion order
func TestLogPreservesInsertionOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var log session.Log
		n := rapid.IntRange(0, 30).Draw(t, "n")
		var want []string
		for i := 0; i < n; i++ {
			text := rapid.StringN(0, 40, -1).Draw(t, "text")
			speaker := session.SpeakerUser
			if rapid.Bool().Draw(t, "companion") {
				speaker = session.SpeakerCompanion
			}
			log.Append(speaker, text, generateTime(t, "ts"))
			want = append(want, text)
		}

		all := log.All()
		if len(all) != n {
			t.Fatalf("len: want %d, got %d", n, len(all))
		}
		seen := make(map[string]bool, n)
		for i, m := range all {
			if m.Text != want[i] {
				t.Fatalf("message %d: want %q, got %q", i, want[i], m.Text)
			}
			if m.ID == "" || seen[m.ID] {
				t.Fatalf("message %d: missing or duplicate id %q", i, m.ID)
			}
			seen[m.ID] = true
		}
	})
}

func TestLogAllReturnsCopy(t *testing.T) {
	var log session.Log
	log.Append(session.SpeakerUser, "A", time.Now())
	all := log.All()
	all[0].Text = "changed"
	if got := log.All()[0].Text; got != "A" {
		t.Errorf("log mutated through All(): %q", got)
	}
}

func TestTerminateOnce(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := session.New(start)
	if s.Ended() {
		t.Fatal("new session reports ended")
	}
	end := start.Add(25 * time.Minute)
	if err := s.Terminate(end); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if err := s.Terminate(end.Add(time.Hour)); !errors.Is(err, session.ErrAlreadyEnded) {
		t.Fatalf("second Terminate: want ErrAlreadyEnded, got %v", err)
	}
	got, ok := s.EndTime()
	if !ok || !got.Equal(end) {
		t.Errorf("EndTime: want %v, got %v (ok=%v)", end, got, ok)
	}
	if s.Duration() != 25*time.Minute {
		t.Errorf("Duration: want 25m, got %v", s.Duration())
	}
}

func TestTerminateClampsToStart(t *testing.T) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := session.New(start)
	if err := s.Terminate(start.Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}
	end, _ := s.EndTime()
	if end.Before(start) {
		t.Errorf("end %v before start %v", end, start)
	}
}

func TestFoodItems(t *testing.T) {
	s := session.New(time.Now())
	if !s.AddFoodItem("  pasta ") {
		t.Fatal("expected pasta to be added")
	}
	if s.AddFoodItem("pasta") {
		t.Error("duplicate pasta should be a no-op")
	}
	if !s.AddFoodItem("Pasta") {
		t.Error("matching is case-sensitive; Pasta is distinct")
	}
	if s.AddFoodItem("   ") {
		t.Error("whitespace-only item should be a no-op")
	}
	if got, want := s.FoodItems(), []string{"pasta", "Pasta"}; !slices.Equal(got, want) {
		t.Fatalf("FoodItems: want %v, got %v", want, got)
	}
	if !s.RemoveFoodItem("pasta") {
		t.Fatal("expected pasta to be removed")
	}
	if s.RemoveFoodItem("pasta") {
		t.Error("removing a missing item should report false")
	}
	if got, want := s.FoodItems(), []string{"Pasta"}; !slices.Equal(got, want) {
		t.Errorf("FoodItems after remove: want %v, got %v", want, got)
	}
}

// Feature: tabletalk, Property 3: Food items form an ordered distinct set
func TestFoodItemsDistinct(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := session.New(time.Now())
		items := rapid.SliceOf(rapid.SampledFrom([]string{"rice", "soup", "tea", "Tea", "bread"})).Draw(t, "items")
		var want []string
		for _, it := range items {
			added := s.AddFoodItem(it)
			if slices.Contains(want, it) == added {
				t.Fatalf("AddFoodItem(%q) = %v with existing %v", it, added, want)
			}
			if added {
				want = append(want, it)
			}
		}
		if got := s.FoodItems(); !slices.Equal(got, want) {
			t.Fatalf("want %v, got %v", want, got)
		}
	})
}

func TestSetRatingBounds(t *testing.T) {
	s := session.New(time.Now())
	for _, r := range []int{0, 1, 5} {
		if err := s.SetRating(r); err != nil {
			t.Errorf("SetRating(%d): %v", r, err)
		}
	}
	for _, r := range []int{-1, 6} {
		if err := s.SetRating(r); !errors.Is(err, session.ErrInvalidRating) {
			t.Errorf("SetRating(%d): want ErrInvalidRating, got %v", r, err)
		}
	}
	if s.Rating() != 5 {
		t.Errorf("rating changed by rejected values: %d", s.Rating())
	}
}

func TestSnapshotRestore(t *testing.T) {
	start := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)
	s := session.New(start)
	s.Log().Append(session.SpeakerCompanion, "Hello!", start)
	s.Log().Append(session.SpeakerUser, "Soup tonight", start.Add(time.Minute))
	s.AddFoodItem("soup")
	s.SetNotes("warm")
	if err := s.SetRating(4); err != nil {
		t.Fatal(err)
	}
	if err := s.Terminate(start.Add(20 * time.Minute)); err != nil {
		t.Fatal(err)
	}

	r := session.Restore(s.Snapshot())
	if r.ID != s.ID || !r.StartTime.Equal(s.StartTime) {
		t.Errorf("identity mismatch: %s/%v vs %s/%v", r.ID, r.StartTime, s.ID, s.StartTime)
	}
	if r.Duration() != 20*time.Minute {
		t.Errorf("Duration: %v", r.Duration())
	}
	if r.Notes() != "warm" || r.Rating() != 4 || !slices.Equal(r.FoodItems(), []string{"soup"}) {
		t.Errorf("editable fields mismatch: %q %d %v", r.Notes(), r.Rating(), r.FoodItems())
	}
	if got := r.Log().All(); len(got) != 2 || got[1].Text != "Soup tonight" {
		t.Errorf("messages mismatch: %+v", got)
	}
}

func TestRestoreDropsOutOfRangeRating(t *testing.T) {
	start := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)
	for _, rating := range []int{-2, session.MaxRating + 1, 42} {
		s := session.Restore(session.Snapshot{ID: "m", StartTime: start, Rating: rating})
		if s.Rating() != 0 {
			t.Errorf("rating %d: want 0 after restore, got %d", rating, s.Rating())
		}
	}
	if s := session.Restore(session.Snapshot{ID: "m", StartTime: start, Rating: 3}); s.Rating() != 3 {
		t.Errorf("valid rating lost: %d", s.Rating())
	}
}
