package main

import (
	"bytes"
	"context"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/light-bringer/dirtify-service/internal/transport/grpc/record"
)

// recordingServer remembers the last request it received.
type recordingServer struct {
	mu   sync.Mutex
	last *structpb.Struct
	id   string
}

func (s *recordingServer) keep(req *structpb.Struct) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = req
}

func (s *recordingServer) lastRequest() *structpb.Struct {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *recordingServer) CreateRecord(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.keep(req)
	return structpb.NewStruct(map[string]any{"record_id": "rec-1"})
}

func (s *recordingServer) UpdateRecord(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.keep(req)
	return structpb.NewStruct(map[string]any{"changed": true, "version": 2})
}

func (s *recordingServer) GetRecord(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() != "rec-1" {
		return nil, status.Error(codes.NotFound, "record not found")
	}
	return structpb.NewStruct(map[string]any{"record_id": "rec-1", "version": 1})
}

func (s *recordingServer) ArchiveRecord(_ context.Context, req *wrapperspb.StringValue) (*emptypb.Empty, error) {
	s.mu.Lock()
	s.id = req.GetValue()
	s.mu.Unlock()
	return &emptypb.Empty{}, nil
}

func (s *recordingServer) ListRecords(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.keep(req)
	return structpb.NewStruct(map[string]any{"records": []any{}, "total_count": 0})
}

func (s *recordingServer) ListRecordEvents(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	s.keep(req)
	return structpb.NewStruct(map[string]any{"events": []any{}})
}

func setup(t *testing.T) (*recordingServer, func(args ...string) (string, error)) {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := &recordingServer{}
	server := grpc.NewServer()
	record.RegisterRecordServiceServer(server, srv)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	dial := func(string) (*grpc.ClientConn, error) {
		return grpc.NewClient("passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
				return lis.DialContext(ctx)
			}),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
	}

	run := func(args ...string) (string, error) {
		root := newRootCmd(dial)
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}
	return srv, run
}

func TestCreate(t *testing.T) {
	srv, run := setup(t)

	out, err := run("create", "--id", "rec-1", "--doc", `{"name":"Alice","age":30}`)
	require.NoError(t, err)

	assert.Contains(t, out, `"record_id": "rec-1"`)
	req := srv.lastRequest()
	assert.Equal(t, "rec-1", req.Fields["record_id"].GetStringValue())
	assert.Equal(t, map[string]any{"name": "Alice", "age": float64(30)},
		req.Fields["document"].GetStructValue().AsMap())
}

func TestCreate_RejectsNonObject(t *testing.T) {
	_, run := setup(t)

	_, err := run("create", "--doc", `[1,2]`)

	assert.ErrorContains(t, err, "JSON object")
}

func TestUpdate_BuildsOps(t *testing.T) {
	srv, run := setup(t)

	_, err := run("update", "rec-1",
		"--set", "address.street=456 Oak St",
		"--set", "age=31",
		"--delete", "nickname",
		"--expected-version", "3",
	)
	require.NoError(t, err)

	got := srv.lastRequest().AsMap()
	assert.Equal(t, "rec-1", got["record_id"])
	assert.Equal(t, float64(3), got["expected_version"])
	assert.Equal(t, []any{
		map[string]any{"op": "set", "path": "address.street", "value": "456 Oak St"},
		map[string]any{"op": "set", "path": "age", "value": float64(31)},
		map[string]any{"op": "delete", "path": "nickname"},
	}, got["ops"])
}

func TestUpdate_WithoutOps(t *testing.T) {
	_, run := setup(t)

	_, err := run("update", "rec-1")

	assert.ErrorContains(t, err, "nothing to update")
}

func TestGet_NotFound(t *testing.T) {
	_, run := setup(t)

	_, err := run("get", "missing")

	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestArchive(t *testing.T) {
	srv, run := setup(t)

	_, err := run("archive", "rec-9")
	require.NoError(t, err)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, "rec-9", srv.id)
}

func TestListAndEvents(t *testing.T) {
	srv, run := setup(t)

	_, err := run("list", "--changed", "street", "--limit", "5")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"include_archived": false,
		"changed_field":    "street",
		"limit":            float64(5),
	}, srv.lastRequest().AsMap())

	_, err = run("events", "rec-1", "--type", "record.updated")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"record_id":  "rec-1",
		"event_type": "record.updated",
	}, srv.lastRequest().AsMap())
}

func TestPatchOps_Errors(t *testing.T) {
	_, err := patchOps([]string{"novalue"}, nil)
	assert.Error(t, err)

	_, err = patchOps([]string{"=1"}, nil)
	assert.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	reply, err := structpb.NewStruct(map[string]any{
		"records": []any{
			map[string]any{
				"record_id":    "rec-1",
				"version":      2,
				"dirty_fields": []any{"city", "street"},
				"updated_at":   "2024-01-01T12:00:00Z",
			},
		},
		"total_count": 1,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, renderTable(&out, reply))

	assert.Contains(t, out.String(), "rec-1")
	assert.Contains(t, out.String(), "city,street")
	assert.Contains(t, out.String(), "TOTAL")

	assert.Error(t, renderTable(&out, &emptypb.Empty{}))
}
