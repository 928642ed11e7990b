// Package binding implements reactive bindings: a compute function paired
// with an apply function that re-runs whenever the state it read changes.
//
// A Binding discovers its dependencies by recording every state path read
// during compute. After each run the new dependency set is diffed against the
// previous one, dropped paths are unsubscribed and new ones subscribed, so
// conditional reads switch dependencies cleanly:
//
//	b := binding.New(store,
//	    func() any {
//	        if store.Get("flag", false).(bool) {
//	            return store.Get("a", "")
//	        }
//	        return store.Get("b", "")
//	    },
//	    func(v any) { text.SetText(fmt.Sprint(v)) },
//	)
//	b.Run()
//	defer b.Dispose()
//
// Compute may return a *scheduler.Future. The binding then shows its
// pending placeholder (if any) and applies the settled value later; only the
// most recent run may apply, so a slow older result never overwrites a newer
// one.
package binding
