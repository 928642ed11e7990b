package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/rx/internal/config"
	"github.com/vango-dev/rx/pkg/persist"
)

func snapshotCmd(opts *options) *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save, load and list state snapshots",
		Long: `Save, load and list state snapshots.

The backend comes from persist.backend in rx.yaml unless --backend is
given. The memory backend does not outlive the process.`,
	}
	cmd.PersistentFlags().StringVarP(&backend, "backend", "b", "", "Snapshot backend: memory, bolt or s3")

	// setup loads the config, applies --backend and opens the backend.
	setup := func() (*config.Config, persist.Backend, func() error, error) {
		cfg, err := opts.loadConfig()
		if err != nil {
			return nil, nil, nil, err
		}
		if backend != "" {
			cfg.Persist.Backend = backend
			if err := cfg.Validate(); err != nil {
				return nil, nil, nil, err
			}
		}
		b, closeFn, err := openBackend(cfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return cfg, b, closeFn, nil
	}

	nameOf := func(cfg *config.Config, args []string) string {
		if len(args) > 0 {
			return args[0]
		}
		return cfg.Persist.Name
	}

	save := &cobra.Command{
		Use:   "save [name]",
		Short: "Save the initial demo state",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, b, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			rt := newRuntime(cfg, newLogger(cfg, os.Stderr), nil, initialState(cfg))
			name := nameOf(cfg, args)
			if err := persist.NewSnapshotter(rt.Store(), b).Save(cmd.Context(), name); err != nil {
				return err
			}
			success("Saved snapshot %q (%s)", name, cfg.Persist.Backend)
			return nil
		},
	}

	load := &cobra.Command{
		Use:   "load [name]",
		Short: "Load a snapshot and print its state as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, b, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			rt := newRuntime(cfg, newLogger(cfg, os.Stderr), nil, nil)
			taken, err := persist.NewSnapshotter(rt.Store(), b).Load(cmd.Context(), nameOf(cfg, args))
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(map[string]any{
				"taken": taken,
				"state": rt.Store().Snapshot(),
			})
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, b, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			names, err := b.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, b, closeFn, err := setup()
			if err != nil {
				return err
			}
			defer closeFn()

			if err := b.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			info("Deleted %s", args[0])
			return nil
		},
	}

	cmd.AddCommand(save, load, list, del)
	return cmd
}
