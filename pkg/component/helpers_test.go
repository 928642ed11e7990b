package component

import (
	"io"
	"log/slog"

	"github.com/vango-dev/rx/pkg/dom"
	"github.com/vango-dev/rx/pkg/scheduler"
	"github.com/vango-dev/rx/pkg/state"
	"github.com/vango-dev/rx/pkg/ui"
)

type fixture struct {
	store    *state.Store
	loop     *scheduler.Loop
	doc      *dom.Document
	promises *scheduler.PromiseTracker
	m        *Manager
}

func newFixture(initial map[string]any) *fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	loop := scheduler.NewLoop(scheduler.LoopConfig{Logger: logger})
	store := state.New(state.Config{Initial: initial, Loop: loop, Logger: logger})
	doc := dom.NewDocument()
	promises := scheduler.NewPromiseTracker(loop)
	return &fixture{
		store:    store,
		loop:     loop,
		doc:      doc,
		promises: promises,
		m: New(Config{
			Store:    store,
			Adapter:  doc,
			Promises: promises,
		}),
	}
}

func (f *fixture) text() string {
	return f.doc.Body.TextContent()
}

func (f *fixture) find(class string) *dom.Element {
	return f.doc.Body.Find(func(e *dom.Element) bool { return e.HasClass(class) })
}

func (f *fixture) errorNode() *dom.Element {
	return f.find(ui.ErrorClass)
}

func (f *fixture) placeholder() *dom.Element {
	return f.doc.Body.Find(func(e *dom.Element) bool {
		_, ok := e.Attr("aria-busy")
		return ok
	})
}
