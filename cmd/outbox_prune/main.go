// Command outbox_prune deletes outbox events older than a retention window.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/spf13/cobra"
	"google.golang.org/api/iterator"

	"github.com/light-bringer/dirtify-service/internal/config"
	"github.com/light-bringer/dirtify-service/internal/logging"
	"github.com/light-bringer/dirtify-service/internal/models/m_outbox"
	"github.com/light-bringer/dirtify-service/internal/services"
)

type options struct {
	configFile string
	retention  time.Duration
	status     string
	dryRun     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "outbox_prune",
		Short:        "Delete outbox events older than the retention window",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.retention <= 0 {
				return errors.New("--retention must be positive")
			}
			switch opts.status {
			case "", m_outbox.StatusPending, m_outbox.StatusCompleted:
			default:
				return fmt.Errorf("unknown --status %q", opts.status)
			}

			cfg, err := config.Load(v, opts.configFile)
			if err != nil {
				return err
			}
			lg := logging.New(cfg.Log, cmd.ErrOrStderr())
			defer lg.Close()

			ctx := cmd.Context()
			client, err := spanner.NewClient(ctx, cfg.Spanner.DatabasePath(), services.ClientOptions(cfg.Spanner)...)
			if err != nil {
				return fmt.Errorf("failed to create Spanner client: %w", err)
			}
			defer client.Close()

			cutoff := time.Now().UTC().Add(-opts.retention)
			lg.Logger.Info("pruning outbox", "cutoff", cutoff.Format(time.RFC3339), "status", opts.status, "dry_run", opts.dryRun)

			if opts.dryRun {
				n, err := countExpired(ctx, client.Single(), cutoff, opts.status)
				if err != nil {
					return err
				}
				lg.Logger.Info("dry run", "would_delete", n)
				return nil
			}

			n, err := prune(ctx, client, cutoff, opts.status)
			if err != nil {
				return err
			}
			lg.Logger.Info("outbox pruned", "deleted", n)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "config file (default ./dirtify.yaml)")
	flags.DurationVar(&opts.retention, "retention", 30*24*time.Hour, "delete events created before now minus this")
	flags.StringVar(&opts.status, "status", "", "only prune events with this status (pending or completed)")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "count matching events without deleting them")
	flags.String("database", "", "Spanner database ID")
	flags.String("emulator-host", "", "Spanner emulator host:port")
	_ = v.BindPFlag(config.SpannerDatabaseKey, flags.Lookup("database"))
	_ = v.BindPFlag(config.SpannerEmulatorHostKey, flags.Lookup("emulator-host"))

	return cmd
}

// expiredFilter selects events created before cutoff, optionally by status.
func expiredFilter(cutoff time.Time, status string) (string, map[string]interface{}) {
	where := fmt.Sprintf("%s < @cutoff", m_outbox.CreatedAt)
	params := map[string]interface{}{"cutoff": cutoff}
	if status != "" {
		where += fmt.Sprintf(" AND %s = @status", m_outbox.Status)
		params["status"] = status
	}
	return where, params
}

type querier interface {
	Query(ctx context.Context, statement spanner.Statement) *spanner.RowIterator
}

func countExpired(ctx context.Context, q querier, cutoff time.Time, status string) (int64, error) {
	where, params := expiredFilter(cutoff, status)
	stmt := spanner.Statement{
		SQL:    fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", m_outbox.TableName, where),
		Params: params,
	}

	iter := q.Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if errors.Is(err, iterator.Done) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}

	var count int64
	if err := row.Columns(&count); err != nil {
		return 0, fmt.Errorf("failed to parse count: %w", err)
	}
	return count, nil
}

func prune(ctx context.Context, client *spanner.Client, cutoff time.Time, status string) (int64, error) {
	where, params := expiredFilter(cutoff, status)
	stmt := spanner.Statement{
		SQL:    fmt.Sprintf("DELETE FROM %s WHERE %s", m_outbox.TableName, where),
		Params: params,
	}

	var deleted int64
	_, err := client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		n, err := txn.Update(ctx, stmt)
		if err != nil {
			return fmt.Errorf("failed to delete events: %w", err)
		}
		deleted = n
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("prune transaction failed: %w", err)
	}
	return deleted, nil
}
