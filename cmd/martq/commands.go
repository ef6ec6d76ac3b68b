package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/martaz/querykit/config"
	"github.com/martaz/querykit/filter"
	"github.com/martaz/querykit/logging"
	"github.com/martaz/querykit/store"
)

type flags struct {
	configFile string
	query      string
	data       string
}

// operation runs one store call. data is nil unless the command takes --data.
type operation func(ctx context.Context, s *store.Store, table string, q filter.Query, data store.Record) (any, error)

func newRootCmd() *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "martq",
		Short:         "Run translated filter queries against the marketplace database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.configFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&f.query, "query", "", `query JSON, e.g. {"where":{"price":{"$gte":100}},"order":[["price","ASC"]],"limit":10}`)
	root.PersistentFlags().StringVar(&f.data, "data", "", "record JSON for create and update")

	root.AddCommand(
		f.command("find TABLE", "List rows matching --query", false,
			func(ctx context.Context, s *store.Store, table string, q filter.Query, _ store.Record) (any, error) {
				return s.FindMany(ctx, table, q)
			}),
		f.command("one TABLE", "Print the first row matching --query, or null", false,
			func(ctx context.Context, s *store.Store, table string, q filter.Query, _ store.Record) (any, error) {
				return s.FindOne(ctx, table, q)
			}),
		f.command("count TABLE", "Count rows matching --query", false,
			func(ctx context.Context, s *store.Store, table string, q filter.Query, _ store.Record) (any, error) {
				n, err := s.Count(ctx, table, q)
				return map[string]int64{"count": n}, err
			}),
		f.command("create TABLE", "Insert --data and print the stored row", true,
			func(ctx context.Context, s *store.Store, table string, _ filter.Query, data store.Record) (any, error) {
				return s.Create(ctx, table, data)
			}),
		f.command("update TABLE", "Apply --data to rows matching --query", true,
			func(ctx context.Context, s *store.Store, table string, q filter.Query, data store.Record) (any, error) {
				n, err := s.Update(ctx, table, data, q)
				return map[string]int64{"updated": n}, err
			}),
		f.command("delete TABLE", "Delete rows matching --query", false,
			func(ctx context.Context, s *store.Store, table string, q filter.Query, _ store.Record) (any, error) {
				n, err := s.Destroy(ctx, table, q)
				return map[string]int64{"deleted": n}, err
			}),
	)
	return root
}

func (f *flags) command(use, short string, needsData bool, op operation) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := filter.ParseQuery([]byte(f.query))
			if err != nil {
				return err
			}
			var data store.Record
			if needsData {
				if f.data == "" {
					return fmt.Errorf("--data is required for %s", cmd.Name())
				}
				if err := json.Unmarshal([]byte(f.data), &data); err != nil {
					return fmt.Errorf("failed to parse data: %w", err)
				}
			}

			cfg, err := config.Load(config.EnvPrefix, f.configFile)
			if err != nil {
				return err
			}
			logger, err := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			exec, closeDB, err := openExecutor(ctx, cfg.Database)
			if err != nil {
				return err
			}
			defer closeDB()

			options, err := storeOptions(cfg, logger)
			if err != nil {
				return err
			}
			result, err := op(ctx, store.New(exec, options...), args[0], q, data)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}
}

func storeOptions(cfg *config.Config, logger zerolog.Logger) ([]store.Option, error) {
	aliases, err := cfg.TableAliases()
	if err != nil {
		return nil, err
	}

	filterOptions := []filter.Option{filter.WithDefaultPageSize(cfg.Query.DefaultPageSize)}
	if len(cfg.Query.DisallowColumns) > 0 {
		filterOptions = append(filterOptions, filter.WithDisallowColumns(cfg.Query.DisallowColumns...))
	}
	if cfg.Query.NestedJSONColumn != "" {
		filterOptions = append(filterOptions, filter.WithNestedJSONB(cfg.Query.NestedJSONColumn))
	}

	return []store.Option{
		store.WithLogger(logger),
		store.WithTables(aliases),
		store.WithFilterOptions(filterOptions...),
	}, nil
}
