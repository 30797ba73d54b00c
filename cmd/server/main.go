package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/reflection"

	"github.com/light-bringer/dirtify-service/internal/config"
	"github.com/light-bringer/dirtify-service/internal/logging"
	"github.com/light-bringer/dirtify-service/internal/services"
	"github.com/light-bringer/dirtify-service/internal/transport/grpc/record"
	httphandler "github.com/light-bringer/dirtify-service/internal/transport/http"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := config.NewViper()
	var configFile string

	root := &cobra.Command{
		Use:          "dirtify-server",
		Short:        "Serve change-tracked JSON records over gRPC",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), v, cfg, cmd.ErrOrStderr())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./dirtify.yaml)")
	pf.String("database", "", "Spanner database ID")
	pf.String("emulator-host", "", "Spanner emulator host:port")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-file", "", "log to a rotated file instead of stderr")

	flags := root.Flags()
	flags.Int("grpc-port", 0, "gRPC listen port")
	flags.Int("http-port", 0, "HTTP listen port")

	bindFlags(v, map[string]string{
		config.SpannerDatabaseKey:     "database",
		config.SpannerEmulatorHostKey: "emulator-host",
		config.LogLevelKey:            "log-level",
		config.LogFilenameKey:         "log-file",
	}, pf.Lookup)
	bindFlags(v, map[string]string{
		config.GRPCPortKey: "grpc-port",
		config.HTTPPortKey: "http-port",
	}, flags.Lookup)

	root.AddCommand(newConfigCmd(v, &configFile))

	return root
}

func newConfigCmd(v *viper.Viper, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(v, *configFile)
			if err != nil {
				return err
			}
			out, err := cfg.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}

func serve(ctx context.Context, v *viper.Viper, cfg *config.Config, stderr io.Writer) error {
	lg := logging.New(cfg.Log, stderr)
	defer lg.Close()
	log := lg.Logger

	watchLogLevel(v, lg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting dirtify service",
		"database", cfg.Spanner.DatabasePath(),
		"emulator", cfg.Spanner.EmulatorHost,
		"grpc_port", cfg.GRPC.Port,
	)

	serviceOpts, err := services.NewServiceOptions(ctx, cfg.Spanner, log)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer serviceOpts.Close()

	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(record.LoggingInterceptor(log)))
	record.RegisterRecordServiceServer(grpcServer, serviceOpts.RecordHandler)
	if cfg.GRPC.Reflection {
		reflection.Register(grpcServer)
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
	if err != nil {
		return fmt.Errorf("failed to listen on gRPC port: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("gRPC server listening", "addr", lis.Addr().String())
		return serveGRPC(grpcServer, lis)
	})

	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		conn, err := grpc.NewClient(fmt.Sprintf("localhost:%d", cfg.GRPC.Port),
			grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			grpcServer.Stop()
			return fmt.Errorf("failed to create gRPC client: %w", err)
		}
		defer conn.Close()

		mux := http.NewServeMux()
		httphandler.NewEventsHandler(record.NewRecordServiceClient(conn)).Routes(mux)

		httpServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			log.Info("HTTP server listening", "addr", httpServer.Addr)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("HTTP server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down gracefully")
		shutdown(log, grpcServer, httpServer, cfg.ShutdownTimeout)
		return nil
	})

	return g.Wait()
}

// serveGRPC serves until the server stops. A stop that lands before Serve
// starts is a clean exit, not an error.
func serveGRPC(srv *grpc.Server, lis net.Listener) error {
	if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("gRPC server: %w", err)
	}
	return nil
}

// shutdown stops both servers, forcing the gRPC server once timeout passes.
func shutdown(log *slog.Logger, grpcServer *grpc.Server, httpServer *http.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Warn("HTTP server shutdown error", "error", err)
		}
	}

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-ctx.Done():
		log.Warn("graceful stop timed out, closing connections")
		grpcServer.Stop()
	}
}

// watchLogLevel applies log.level edits in the config file without a restart.
func watchLogLevel(v *viper.Viper, lg *logging.Logging) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if !lg.SetLevel(v.GetString(config.LogLevelKey)) {
			lg.Logger.Warn("ignoring invalid log level", "file", e.Name)
		}
	})
	v.WatchConfig()
}

func bindFlags(v *viper.Viper, keys map[string]string, lookup func(string) *pflag.Flag) {
	for key, name := range keys {
		_ = v.BindPFlag(key, lookup(name))
	}
}
