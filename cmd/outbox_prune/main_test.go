package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiredFilter(t *testing.T) {
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	where, params := expiredFilter(cutoff, "")
	assert.Equal(t, "created_at < @cutoff", where)
	assert.Equal(t, map[string]interface{}{"cutoff": cutoff}, params)

	where, params = expiredFilter(cutoff, "pending")
	assert.Equal(t, "created_at < @cutoff AND status = @status", where)
	assert.Equal(t, "pending", params["status"])
}

func TestRootCmd_RejectsBadFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"non-positive retention", []string{"--retention", "0s"}, "--retention"},
		{"unknown status", []string{"--status", "failed"}, "unknown --status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			assert.ErrorContains(t, cmd.Execute(), tt.want)
		})
	}
}
