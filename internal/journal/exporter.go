package journal

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fakeyudi/tabletalk/internal/events"
	"github.com/fakeyudi/tabletalk/internal/summary"
)

// Exporter writes every ended meal to the journal directory. Its Handle
// method is meant to be subscribed to the SessionEnded bus.
type Exporter struct {
	Store     *DirStore
	Renderer  summary.Renderer
	Companion func() string // name of the companion the meal was shared with
	Author    func() string
	Logger    *zap.Logger

	// paths and companions are keyed by meal ID and filled in by Handle.
	paths      map[string]string
	companions map[string]string
}

// Handle renders the ended meal and saves it.
func (e *Exporter) Handle(ev events.SessionEnded) error {
	if ev.Session == nil {
		return fmt.Errorf("session ended event without a session")
	}
	r := e.Renderer
	if r == nil {
		r = &summary.MarkdownRenderer{}
	}

	var companion string
	if e.Companion != nil {
		companion = e.Companion()
	}
	path, err := e.Store.Save(e.build(ev, companion), r)
	if err != nil {
		return err
	}
	if e.paths == nil {
		e.paths = make(map[string]string)
		e.companions = make(map[string]string)
	}
	e.paths[ev.Session.ID] = path
	e.companions[ev.Session.ID] = companion
	if e.Logger != nil {
		e.Logger.Info("meal saved to journal", zap.String("meal", ev.Session.ID), zap.String("path", path))
	}
	return nil
}

// PathFor returns the file written for a meal, if any.
func (e *Exporter) PathFor(mealID string) (string, bool) {
	p, ok := e.paths[mealID]
	return p, ok
}

// Resave rewrites a previously exported meal, e.g. after its notes or food
// items were edited on the summary screen. The companion stays the one the
// meal was exported with.
func (e *Exporter) Resave(ev events.SessionEnded) error {
	path, ok := e.PathFor(ev.Session.ID)
	if !ok {
		return e.Handle(ev)
	}
	_, err := e.Store.Update(path, e.build(ev, e.companions[ev.Session.ID]))
	return err
}

func (e *Exporter) build(ev events.SessionEnded, companion string) *summary.MealSummary {
	var author string
	if e.Author != nil {
		author = e.Author()
	}
	return summary.FromSession(ev.Session, companion, author)
}
