// Command recordctl is a small client for the record gRPC service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/light-bringer/dirtify-service/internal/transport/grpc/record"
)

func main() {
	if err := newRootCmd(dialTCP).Execute(); err != nil {
		os.Exit(1)
	}
}

type dialFunc func(addr string) (*grpc.ClientConn, error)

func dialTCP(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

type app struct {
	dial    dialFunc
	addr    string
	timeout time.Duration
	output  string
}

func newRootCmd(dial dialFunc) *cobra.Command {
	a := &app{dial: dial}

	root := &cobra.Command{
		Use:          "recordctl",
		Short:        "Create, patch and inspect dirtify records",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.addr, "addr", "localhost:9090", "gRPC server address")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 10*time.Second, "per-call timeout")
	root.PersistentFlags().StringVarP(&a.output, "output", "o", "json", "output format: json, or table for list and events")

	root.AddCommand(
		a.createCmd(),
		a.getCmd(),
		a.updateCmd(),
		a.archiveCmd(),
		a.listCmd(),
		a.eventsCmd(),
	)
	return root
}

func (a *app) createCmd() *cobra.Command {
	var id, doc, file string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a record from a JSON object",
		RunE: func(cmd *cobra.Command, _ []string) error {
			raw := []byte(doc)
			if file != "" {
				var err error
				if raw, err = os.ReadFile(file); err != nil {
					return err
				}
			}
			var document map[string]any
			if err := json.Unmarshal(raw, &document); err != nil {
				return fmt.Errorf("document must be a JSON object: %w", err)
			}

			req, err := structpb.NewStruct(map[string]any{"document": document})
			if err != nil {
				return err
			}
			if id != "" {
				req.Fields["record_id"] = structpb.NewStringValue(id)
			}

			return a.call(cmd, func(ctx context.Context, c *record.RecordServiceClient) (proto.Message, error) {
				return c.CreateRecord(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "record ID (generated when empty)")
	cmd.Flags().StringVar(&doc, "doc", "{}", "document as inline JSON")
	cmd.Flags().StringVarP(&file, "file", "f", "", "read the document from a file")
	return cmd
}

func (a *app) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get RECORD_ID",
		Short: "Fetch a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, func(ctx context.Context, c *record.RecordServiceClient) (proto.Message, error) {
				return c.GetRecord(ctx, wrapperspb.String(args[0]))
			})
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	var sets, deletes []string
	var expected int64
	cmd := &cobra.Command{
		Use:   "update RECORD_ID",
		Short: "Patch a record",
		Example: `  recordctl update rec-1 --set address.street='"456 Oak St"' --set age=31
  recordctl update rec-1 --delete nickname --expected-version 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := patchOps(sets, deletes)
			if err != nil {
				return err
			}
			fields := map[string]any{"record_id": args[0], "ops": ops}
			if cmd.Flags().Changed("expected-version") {
				fields["expected_version"] = expected
			}
			req, err := structpb.NewStruct(fields)
			if err != nil {
				return err
			}

			return a.call(cmd, func(ctx context.Context, c *record.RecordServiceClient) (proto.Message, error) {
				return c.UpdateRecord(ctx, req)
			})
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "path=value; value is JSON, or a bare string")
	cmd.Flags().StringArrayVar(&deletes, "delete", nil, "path to delete")
	cmd.Flags().Int64Var(&expected, "expected-version", 0, "fail unless the record is at this version")
	return cmd
}

func (a *app) archiveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "archive RECORD_ID",
		Short: "Archive a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.call(cmd, func(ctx context.Context, c *record.RecordServiceClient) (proto.Message, error) {
				return c.ArchiveRecord(ctx, wrapperspb.String(args[0]))
			})
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	var includeArchived bool
	var changedField string
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields := map[string]any{"include_archived": includeArchived}
			if changedField != "" {
				fields["changed_field"] = changedField
			}
			if limit > 0 {
				fields["limit"] = limit
			}
			if offset > 0 {
				fields["offset"] = offset
			}
			req, err := structpb.NewStruct(fields)
			if err != nil {
				return err
			}

			return a.call(cmd, func(ctx context.Context, c *record.RecordServiceClient) (proto.Message, error) {
				return c.ListRecords(ctx, req)
			})
		},
	}
	cmd.Flags().BoolVar(&includeArchived, "archived", false, "include archived records")
	cmd.Flags().StringVar(&changedField, "changed", "", "only records whose last change touched this field")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func (a *app) eventsCmd() *cobra.Command {
	var eventType string
	var limit int
	cmd := &cobra.Command{
		Use:   "events RECORD_ID",
		Short: "List the outbox events of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := map[string]any{"record_id": args[0]}
			if eventType != "" {
				fields["event_type"] = eventType
			}
			if limit > 0 {
				fields["limit"] = limit
			}
			req, err := structpb.NewStruct(fields)
			if err != nil {
				return err
			}

			return a.call(cmd, func(ctx context.Context, c *record.RecordServiceClient) (proto.Message, error) {
				return c.ListRecordEvents(ctx, req)
			})
		},
	}
	cmd.Flags().StringVar(&eventType, "type", "", "filter by event type, e.g. record.updated")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum events to return")
	return cmd
}

// call dials the server, runs fn and prints its reply as JSON.
func (a *app) call(cmd *cobra.Command, fn func(context.Context, *record.RecordServiceClient) (proto.Message, error)) error {
	conn, err := a.dial(a.addr)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	reply, err := fn(ctx, record.NewRecordServiceClient(conn))
	if err != nil {
		return err
	}

	if a.output == "table" {
		return renderTable(cmd.OutOrStdout(), reply)
	}

	out, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(reply)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}

// renderTable prints the records or events of a list reply as a table.
func renderTable(w io.Writer, reply proto.Message) error {
	s, ok := reply.(*structpb.Struct)
	if !ok {
		return fmt.Errorf("table output is only available for list and events")
	}

	table := tablewriter.NewWriter(w)
	table.SetBorder(false)
	table.SetCenterSeparator("")

	switch {
	case s.Fields["records"] != nil:
		table.SetHeader([]string{"Record", "Version", "Dirty Fields", "Updated", "Archived"})
		for _, v := range s.Fields["records"].GetListValue().GetValues() {
			r := v.GetStructValue().GetFields()
			table.Append([]string{
				r["record_id"].GetStringValue(),
				fmt.Sprintf("%d", int64(r["version"].GetNumberValue())),
				strings.Join(stringList(r["dirty_fields"]), ","),
				r["updated_at"].GetStringValue(),
				r["archived_at"].GetStringValue(),
			})
		}
		table.SetFooter([]string{"Total", fmt.Sprintf("%d", int64(s.Fields["total_count"].GetNumberValue())), "", "", ""})
	case s.Fields["events"] != nil:
		table.SetHeader([]string{"Event", "Type", "Status", "Created"})
		for _, v := range s.Fields["events"].GetListValue().GetValues() {
			e := v.GetStructValue().GetFields()
			table.Append([]string{
				e["event_id"].GetStringValue(),
				e["event_type"].GetStringValue(),
				e["status"].GetStringValue(),
				e["created_at"].GetStringValue(),
			})
		}
	default:
		return fmt.Errorf("table output is only available for list and events")
	}

	table.Render()
	return nil
}

func stringList(v *structpb.Value) []string {
	var out []string
	for _, e := range v.GetListValue().GetValues() {
		out = append(out, e.GetStringValue())
	}
	return out
}

// patchOps turns --set and --delete flags into wire ops, sets first.
func patchOps(sets, deletes []string) ([]any, error) {
	ops := make([]any, 0, len(sets)+len(deletes))
	for _, s := range sets {
		path, raw, ok := strings.Cut(s, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("--set %q: want path=value", s)
		}
		ops = append(ops, map[string]any{"op": "set", "path": path, "value": parseValue(raw)})
	}
	for _, path := range deletes {
		ops = append(ops, map[string]any{"op": "delete", "path": path})
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("nothing to update: pass --set or --delete")
	}
	return ops, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	return v
}
