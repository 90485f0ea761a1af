package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/fakeyudi/tabletalk/internal/journal"
	"github.com/fakeyudi/tabletalk/internal/session"
	"github.com/fakeyudi/tabletalk/internal/summary"
)

// seedJournal writes one meal per food item into the default journal dir,
// an hour apart, and returns the store.
func seedJournal(t *testing.T, foods ...string) *journal.DirStore {
	t.Helper()
	dir, err := journal.DefaultDir()
	if err != nil {
		t.Fatal(err)
	}
	store, err := journal.NewDirStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	start := time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)
	for i, food := range foods {
		s := session.New(start.Add(time.Duration(i) * time.Hour))
		s.AddFoodItem(food)
		s.Log().Append(session.SpeakerUser, "eating "+food, s.StartTime)
		if err := s.Terminate(s.StartTime.Add(15 * time.Minute)); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Save(summary.FromSession(s, "Sam", "Ada"), &summary.MarkdownRenderer{}); err != nil {
			t.Fatal(err)
		}
	}
	return store
}

func loadFoods(t *testing.T, store *journal.DirStore) [][]string {
	t.Helper()
	j, warnings, err := journal.Load(store)
	if err != nil {
		t.Fatal(err)
	}
	if len(warnings) > 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	var foods [][]string
	for _, s := range j.All() {
		foods = append(foods, s.FoodItems())
	}
	return foods
}

func TestJournalListEmpty(t *testing.T) {
	setupEnv(t)
	out, err := executeCommand(rootCmd, "journal")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No meals yet") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestJournalListChronological(t *testing.T) {
	setupEnv(t)
	seedJournal(t, "toast", "salad", "pasta")

	out, err := executeCommand(rootCmd, "journal", "list")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 rows, got:\n%s", out)
	}
	for i, food := range []string{"toast", "salad", "pasta"} {
		if !strings.Contains(lines[i], food) || !strings.Contains(lines[i], "15 min") {
			t.Errorf("row %d: want %s, got %q", i, food, lines[i])
		}
	}
}

// TestJournalBatchRemove deletes the first and last meals in one call; the
// middle one must survive.
func TestJournalBatchRemove(t *testing.T) {
	setupEnv(t)
	store := seedJournal(t, "toast", "salad", "pasta")

	out, err := executeCommand(rootCmd, "journal", "rm", "0", "2")
	if err != nil {
		t.Fatalf("journal rm: %v", err)
	}
	if !strings.Contains(out, "Removed 2 meal(s).") {
		t.Errorf("unexpected output: %q", out)
	}

	foods := loadFoods(t, store)
	if len(foods) != 1 || foods[0][0] != "salad" {
		t.Errorf("want only the salad meal left, got %v", foods)
	}
}

func TestJournalRemoveOutOfRangeRemovesNothing(t *testing.T) {
	setupEnv(t)
	store := seedJournal(t, "toast", "salad")

	if _, err := executeCommand(rootCmd, "journal", "rm", "0", "5"); err == nil {
		t.Fatal("expected an error for index 5")
	}
	if got := len(loadFoods(t, store)); got != 2 {
		t.Errorf("want both meals kept, got %d", got)
	}

	if _, err := executeCommand(rootCmd, "journal", "rm", "first"); err == nil {
		t.Fatal("expected an error for a non-numeric index")
	}
}

func TestJournalEdits(t *testing.T) {
	setupEnv(t)
	store := seedJournal(t, "toast", "salad")

	steps := [][]string{
		{"journal", "note", "1", "ate", "by", "the", "window"},
		{"journal", "rate", "1", "4"},
		{"journal", "food", "add", "1", "olive", "bread"},
		{"journal", "food", "rm", "1", "salad"},
	}
	for _, args := range steps {
		if _, err := executeCommand(rootCmd, args...); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}

	j, _, err := journal.Load(store)
	if err != nil {
		t.Fatal(err)
	}
	s, err := j.At(1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Notes() != "ate by the window" {
		t.Errorf("notes: got %q", s.Notes())
	}
	if s.Rating() != 4 {
		t.Errorf("rating: got %d", s.Rating())
	}
	if got := s.FoodItems(); len(got) != 1 || got[0] != "olive bread" {
		t.Errorf("food: got %v", got)
	}
	if ms, _ := j.Summary(s); ms.Companion != "Sam" || ms.Author != "Ada" {
		t.Errorf("edit lost the summary header: %+v", ms)
	}

	first, _ := j.At(0)
	if first.Notes() != "" || first.Rating() != 0 {
		t.Error("editing meal 1 touched meal 0")
	}
}

func TestJournalEditErrors(t *testing.T) {
	setupEnv(t)
	seedJournal(t, "toast")

	for _, args := range [][]string{
		{"journal", "rate", "0", "6"},
		{"journal", "rate", "0", "lots"},
		{"journal", "note", "3", "missing"},
		{"journal", "food", "rm", "0", "cake"},
	} {
		if _, err := executeCommand(rootCmd, args...); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestJournalShowPlain(t *testing.T) {
	setupEnv(t)
	seedJournal(t, "toast")

	out, err := executeCommand(rootCmd, "journal", "show", "--plain", "0")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"## Summary", "Sam", "You: eating toast", "  - toast"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
