package main

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	database "cloud.google.com/go/spanner/admin/database/apiv1"
	"cloud.google.com/go/spanner/admin/database/apiv1/databasepb"
	instance "cloud.google.com/go/spanner/admin/instance/apiv1"
	"cloud.google.com/go/spanner/admin/instance/apiv1/instancepb"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/light-bringer/dirtify-service/internal/config"
	"github.com/light-bringer/dirtify-service/internal/logging"
	"github.com/light-bringer/dirtify-service/internal/services"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var (
		configFile    string
		migrationsDir string
	)

	cmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Create the Spanner instance and database and apply the schema",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}

			lg := logging.New(cfg.Log, cmd.ErrOrStderr())
			defer lg.Close()

			migrations, err := migrationFS(migrationsDir)
			if err != nil {
				return err
			}

			m := &migrator{
				cfg:        cfg.Spanner,
				opts:       services.ClientOptions(cfg.Spanner),
				log:        lg.Logger,
				migrations: migrations,
			}
			if err := m.run(cmd.Context()); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			lg.Logger.Info("migrations completed")
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configFile, "config", "", "config file (default ./dirtify.yaml)")
	flags.StringVar(&migrationsDir, "migrations", "", "directory of *.sql files (default: built-in schema)")
	flags.String("project", "", "GCP project ID")
	flags.String("instance", "", "Spanner instance ID")
	flags.String("database", "", "Spanner database ID")
	flags.String("emulator-host", "", "Spanner emulator host:port")

	_ = v.BindPFlag(config.SpannerProjectKey, flags.Lookup("project"))
	_ = v.BindPFlag(config.SpannerInstanceKey, flags.Lookup("instance"))
	_ = v.BindPFlag(config.SpannerDatabaseKey, flags.Lookup("database"))
	_ = v.BindPFlag(config.SpannerEmulatorHostKey, flags.Lookup("emulator-host"))

	return cmd
}

func migrationFS(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(embeddedMigrations, "migrations")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open migrations: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("migrations path %s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

type migrator struct {
	cfg        config.SpannerConfig
	opts       []option.ClientOption
	log        *slog.Logger
	migrations fs.FS
}

func (m *migrator) run(ctx context.Context) error {
	if m.cfg.EmulatorHost != "" {
		m.log.Info("using Spanner emulator", "host", m.cfg.EmulatorHost)
		if err := m.ensureInstance(ctx); err != nil {
			return fmt.Errorf("failed to ensure instance: %w", err)
		}
	}

	adminClient, err := database.NewDatabaseAdminClient(ctx, m.opts...)
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer adminClient.Close()

	if err := m.ensureDatabase(ctx, adminClient); err != nil {
		return fmt.Errorf("failed to ensure database: %w", err)
	}

	return m.applyMigrations(ctx, adminClient)
}

// ensureInstance creates the instance on the emulator. Real instances are
// provisioned outside this tool.
func (m *migrator) ensureInstance(ctx context.Context) error {
	instanceAdmin, err := instance.NewInstanceAdminClient(ctx, m.opts...)
	if err != nil {
		return fmt.Errorf("failed to create instance admin client: %w", err)
	}
	defer instanceAdmin.Close()

	_, err = instanceAdmin.GetInstance(ctx, &instancepb.GetInstanceRequest{Name: m.cfg.InstancePath()})
	if err == nil {
		m.log.Info("instance already exists", "instance", m.cfg.Instance)
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return err
	}

	m.log.Info("creating instance", "instance", m.cfg.Instance)
	op, err := instanceAdmin.CreateInstance(ctx, &instancepb.CreateInstanceRequest{
		Parent:     "projects/" + m.cfg.Project,
		InstanceId: m.cfg.Instance,
		Instance: &instancepb.Instance{
			Config:      fmt.Sprintf("projects/%s/instanceConfigs/emulator-config", m.cfg.Project),
			DisplayName: "Development Instance",
			NodeCount:   1,
		},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("failed to create instance: %w", err)
	}

	if _, err := op.Wait(ctx); err != nil && status.Code(err) != codes.AlreadyExists {
		return fmt.Errorf("failed to wait for instance creation: %w", err)
	}
	return nil
}

func (m *migrator) ensureDatabase(ctx context.Context, adminClient *database.DatabaseAdminClient) error {
	_, err := adminClient.GetDatabase(ctx, &databasepb.GetDatabaseRequest{Name: m.cfg.DatabasePath()})
	if err == nil {
		m.log.Info("database already exists", "database", m.cfg.Database)
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return fmt.Errorf("failed to check database: %w", err)
	}

	m.log.Info("creating database", "database", m.cfg.Database)
	op, err := adminClient.CreateDatabase(ctx, &databasepb.CreateDatabaseRequest{
		Parent:          m.cfg.InstancePath(),
		CreateStatement: fmt.Sprintf("CREATE DATABASE `%s`", m.cfg.Database),
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return fmt.Errorf("failed to create database: %w", err)
	}

	if _, err := op.Wait(ctx); err != nil {
		return fmt.Errorf("failed to wait for database creation: %w", err)
	}
	return nil
}

// applyMigrations applies every migration whose statements are not already
// reflected in the schema. A table or index that exists is skipped.
func (m *migrator) applyMigrations(ctx context.Context, adminClient *database.DatabaseAdminClient) error {
	files, err := migrationFiles(m.migrations)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		m.log.Warn("no migration files found")
		return nil
	}

	ddl, err := adminClient.GetDatabaseDdl(ctx, &databasepb.GetDatabaseDdlRequest{Database: m.cfg.DatabasePath()})
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}
	existing := existingObjects(ddl.GetStatements())

	for _, file := range files {
		content, err := fs.ReadFile(m.migrations, file)
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		statements := pendingStatements(splitDDLStatements(string(content)), existing)
		if len(statements) == 0 {
			m.log.Info("migration already applied", "file", file)
			continue
		}

		m.log.Info("applying migration", "file", file, "statements", len(statements))
		op, err := adminClient.UpdateDatabaseDdl(ctx, &databasepb.UpdateDatabaseDdlRequest{
			Database:   m.cfg.DatabasePath(),
			Statements: statements,
		})
		if err != nil {
			return fmt.Errorf("failed to start DDL update for %s: %w", file, err)
		}
		if err := op.Wait(ctx); err != nil {
			return fmt.Errorf("failed to apply DDL for %s: %w", file, err)
		}
	}

	return nil
}

func migrationFiles(fsys fs.FS) ([]string, error) {
	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migration files: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

func splitDDLStatements(content string) []string {
	// Remove comments and empty lines
	lines := strings.Split(content, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		cleaned = append(cleaned, line)
	}

	var result []string
	for _, stmt := range strings.Split(strings.Join(cleaned, "\n"), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			result = append(result, stmt)
		}
	}
	return result
}

// objectName returns the table or index a CREATE statement defines.
func objectName(stmt string) (string, bool) {
	fields := strings.Fields(stmt)
	if len(fields) < 3 || !strings.EqualFold(fields[0], "CREATE") {
		return "", false
	}
	i := 1
	if strings.EqualFold(fields[i], "UNIQUE") || strings.EqualFold(fields[i], "NULL_FILTERED") {
		i++
	}
	if i+1 >= len(fields) {
		return "", false
	}
	kind := strings.ToUpper(fields[i])
	if kind != "TABLE" && kind != "INDEX" {
		return "", false
	}
	name := fields[i+1]
	if j := strings.IndexByte(name, '('); j >= 0 {
		name = name[:j]
	}
	return strings.ToLower(kind) + " " + strings.ToLower(strings.Trim(name, "`")), true
}

func existingObjects(statements []string) map[string]bool {
	out := make(map[string]bool)
	for _, stmt := range statements {
		if name, ok := objectName(stmt); ok {
			out[name] = true
		}
	}
	return out
}

func pendingStatements(statements []string, existing map[string]bool) []string {
	var pending []string
	for _, stmt := range statements {
		if name, ok := objectName(stmt); ok && existing[name] {
			continue
		}
		pending = append(pending, stmt)
	}
	return pending
}
