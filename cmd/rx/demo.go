package main

import (
	"context"
	"fmt"

	"github.com/vango-dev/rx"
	"github.com/vango-dev/rx/pkg/component"
	"github.com/vango-dev/rx/pkg/state"
)

// demoState seeds the demo when rx.yaml has no initialState.
func demoState() map[string]any {
	return map[string]any{
		"title":  "rx demo",
		"filter": "all",
		"todos": []any{
			map[string]any{"text": "Read the docs", "done": true},
			map[string]any{"text": "Build something", "done": false},
			map[string]any{"text": "Ship it", "done": false},
		},
	}
}

// registerDemo registers the demo components on rt.
func registerDemo(rt *rx.Runtime) {
	rt.Register("Visits", visits)
	rt.Register("TodoList", todoList)
	rt.Register("Stats", stats)
}

// demoPage is the root description of the demo.
func demoPage(rt *rx.Runtime) *rx.Node {
	return rx.El("main",
		rx.El("h1", rx.TextFn(func() any { return rt.GetState("title", "") })),
		rx.Component("Visits", nil),
		rx.Component("TodoList", nil),
		rx.Component("Stats", nil),
	)
}

// visits counts its own mounts in private state.
func visits(props rx.Props, ctx *rx.Context) rx.Result {
	count, setCount := component.UseState(ctx, "visits", 0)
	return rx.Lifecycle{
		Render: func() any {
			return rx.El("p", rx.Class("visits"),
				rx.TextFn(func() any { return fmt.Sprintf("Mounted %d time(s)", count()) }))
		},
		Hooks: rx.Hooks{
			OnMount: func() { setCount(count() + 1) },
		},
	}
}

func todoList(props rx.Props, ctx *rx.Context) rx.Result {
	return rx.Reactive{Render: func() any {
		filter, _ := ctx.Get("filter", "all").(string)
		items, _ := ctx.Get("todos", nil).([]any)

		list := rx.El("ul", rx.Class("todos"))
		for i, item := range items {
			todo, ok := item.(map[string]any)
			if !ok {
				continue
			}
			done, _ := todo["done"].(bool)
			if (filter == "done" && !done) || (filter == "open" && done) {
				continue
			}
			path := state.Join("todos", fmt.Sprint(i))
			list.Children = append(list.Children, rx.El("li",
				rx.Class(func() any {
					if d, _ := ctx.Get(path+".done", false).(bool); d {
						return "done"
					}
					return nil
				}),
				rx.Text(fmt.Sprint(todo["text"])),
			))
		}
		return list
	}}
}

// stats counts open todos off the loop and renders once the count is in.
func stats(props rx.Props, ctx *rx.Context) rx.Result {
	items, _ := state.Copy(ctx.Store().GetUntracked("todos", nil)).([]any)
	f := ctx.Loop().Go(context.Background(), func(context.Context) (any, error) {
		open := 0
		for _, item := range items {
			if todo, ok := item.(map[string]any); ok && todo["done"] != true {
				open++
			}
		}
		return rx.El("p", rx.Class("stats"), rx.Textf("%d of %d open", open, len(items))), nil
	})
	return rx.Pending{Future: f}
}
