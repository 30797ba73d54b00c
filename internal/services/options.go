package services

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/light-bringer/dirtify-service/internal/app/record/queries/get_record"
	"github.com/light-bringer/dirtify-service/internal/app/record/queries/list_events"
	"github.com/light-bringer/dirtify-service/internal/app/record/queries/list_records"
	"github.com/light-bringer/dirtify-service/internal/app/record/repo"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/archive_record"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/create_record"
	"github.com/light-bringer/dirtify-service/internal/app/record/usecases/update_record"
	"github.com/light-bringer/dirtify-service/internal/config"
	"github.com/light-bringer/dirtify-service/internal/pkg/clock"
	"github.com/light-bringer/dirtify-service/internal/pkg/committer"
	"github.com/light-bringer/dirtify-service/internal/transport/grpc/record"
)

// ServiceOptions holds all dependencies for the application.
type ServiceOptions struct {
	SpannerClient *spanner.Client
	RecordHandler *record.Handler
}

// NewServiceOptions creates and wires up all application dependencies.
func NewServiceOptions(ctx context.Context, cfg config.SpannerConfig, log *slog.Logger) (*ServiceOptions, error) {
	// 1. Initialize Spanner client
	spannerClient, err := spanner.NewClient(ctx, cfg.DatabasePath(), ClientOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spanner client: %w", err)
	}

	// 2. Create infrastructure components
	clk := clock.NewRealClock()
	comm := committer.NewCommitter(spannerClient)

	// 3. Create repositories
	recordRepo := repo.NewRecordRepo(spannerClient)
	outboxRepo := repo.NewOutboxRepo(clk)
	readModel := repo.NewReadModel(spannerClient)
	eventsReadModel := repo.NewEventsReadModel(spannerClient)

	// 4. Create command use cases (write operations)
	createRecordUseCase := create_record.NewInteractor(recordRepo, outboxRepo, comm, clk)
	updateRecordUseCase := update_record.NewInteractor(recordRepo, outboxRepo, comm, clk)
	archiveRecordUseCase := archive_record.NewInteractor(recordRepo, outboxRepo, comm, clk)

	// 5. Create query use cases (read operations)
	getRecordQuery := get_record.NewQuery(readModel)
	listRecordsQuery := list_records.NewQuery(readModel)
	listEventsQuery := list_events.NewQuery(eventsReadModel)

	// 6. Create gRPC handler
	recordHandler := record.NewHandler(
		log,
		createRecordUseCase,
		updateRecordUseCase,
		archiveRecordUseCase,
		getRecordQuery,
		listRecordsQuery,
		listEventsQuery,
	)

	return &ServiceOptions{
		SpannerClient: spannerClient,
		RecordHandler: recordHandler,
	}, nil
}

// ClientOptions returns the Google API client options for cfg. With an
// emulator host the client connects in plaintext without credentials.
func ClientOptions(cfg config.SpannerConfig) []option.ClientOption {
	if cfg.EmulatorHost == "" {
		return nil
	}
	return []option.ClientOption{
		option.WithEndpoint(cfg.EmulatorHost),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
}

// Close closes all resources.
func (s *ServiceOptions) Close() {
	if s.SpannerClient != nil {
		s.SpannerClient.Close()
	}
}
