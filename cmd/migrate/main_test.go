package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zhima-Mochi/minishop-orders/internal/infrastructure/postgres"
)

func TestRunRejectsBadArguments(t *testing.T) {
	var out bytes.Buffer
	assert.EqualError(t, run(nil, &out), usage)
	assert.ErrorContains(t, run([]string{"sideways"}, &out), `unknown command "sideways"`)
}

func TestRunRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	var out bytes.Buffer
	assert.EqualError(t, run([]string{"status"}, &out), "DATABASE_URL is required")
}

func TestPrintStatus(t *testing.T) {
	at := time.Date(2021, 3, 10, 19, 0, 0, 0, time.UTC)
	var out bytes.Buffer
	printStatus(&out, []postgres.MigrationStatus{
		{Migration: postgres.Migration{Version: 1, Name: "CreateCustomers"}, AppliedAt: &at},
		{Migration: postgres.Migration{Version: 2, Name: "CreateProducts"}},
	})

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	require.Len(t, lines, 3)
	assert.Contains(t, string(lines[1]), "2021-03-10T19:00:00Z")
	assert.Contains(t, string(lines[2]), "pending")
}
