package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestIntField(t *testing.T) {
	tests := []struct {
		name    string
		value   *structpb.Value
		want    int64
		wantErr bool
	}{
		{"missing", nil, 0, false},
		{"zero", structpb.NewNumberValue(0), 0, false},
		{"beyond int32", structpb.NewNumberValue(1 << 40), 1 << 40, false},
		{"largest exact", structpb.NewNumberValue(1 << 53), 1 << 53, false},
		{"past exact range", structpb.NewNumberValue(1 << 54), 0, true},
		{"negative", structpb.NewNumberValue(-1), 0, true},
		{"fraction", structpb.NewNumberValue(1.5), 0, true},
		{"string", structpb.NewStringValue("3"), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &structpb.Struct{Fields: map[string]*structpb.Value{}}
			if tt.value != nil {
				s.Fields[fieldExpectedVersion] = tt.value
			}

			got, err := intField(s, fieldExpectedVersion)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, codes.InvalidArgument, status.Code(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
