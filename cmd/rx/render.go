package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/rx/pkg/hydrate"
	"github.com/vango-dev/rx/pkg/persist"
	"github.com/vango-dev/rx/pkg/render"
)

func renderCmd(opts *options) *cobra.Command {
	var (
		fragment bool
		pretty   bool
		timeout  time.Duration
		snapshot string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the hydrated demo page",
		Long: `Mount the demo page, wait until its asynchronous work has settled
and print the resulting HTML with the embedded state payload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := newLogger(cfg, os.Stderr)
			rt := newRuntime(cfg, logger, nil, initialState(cfg))

			if snapshot != "" {
				backend, closeFn, err := openBackend(cfg)
				if err != nil {
					return err
				}
				_, err = persist.NewSnapshotter(rt.Store(), backend).Load(cmd.Context(), snapshot)
				closeFn()
				if err != nil {
					return err
				}
			}

			h, err := rt.Hydrator(hydrate.Config{
				Title:    cfg.Name,
				Timeout:  timeout,
				Renderer: render.NewRenderer(render.RendererConfig{Pretty: pretty}),
			})
			if err != nil {
				return err
			}
			page, err := h.Hydrate(cmd.Context(), demoPage(rt))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if fragment {
				return h.WriteFragment(out, page)
			}
			return h.Write(out, page)
		},
	}

	cmd.Flags().BoolVar(&fragment, "fragment", false, "Print the body and state payload only")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the HTML output")
	cmd.Flags().DurationVar(&timeout, "timeout", hydrate.DefaultTimeout, "Maximum time to wait for async work")
	cmd.Flags().StringVar(&snapshot, "snapshot", "", "Restore the named snapshot before rendering")

	return cmd
}
