// Package hydrate renders a reactive tree to HTML once its asynchronous work
// has gone quiet.
//
// A hydration pass mounts a description into the in-memory document of a
// component.Manager, opens a PromiseTracker session, drives the loop until
// every tracked future has settled (or a timeout passes), then serializes
// the mounted nodes together with a JSON snapshot of the state tree:
//
//	h, err := hydrate.New(hydrate.Config{Manager: m, Title: "Counter"})
//	page, err := h.Hydrate(ctx, ui.Component("counter", nil))
//	err = h.Write(w, page)
//
// The snapshot is embedded as <script type="application/json" id="rx-state">
// so a client runtime can resume from the same state.
//
// A Hydrator owns its loop while a pass runs. Passes on the same Hydrator
// are serialized; Handler builds a Hydrator per request when the page
// function asks for it.
package hydrate
