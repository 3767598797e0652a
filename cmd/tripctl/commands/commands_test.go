package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestTripCommands(t *testing.T) {
	out, err := runCmd(t, "trip", "create", "Spiti", "--organizer", "9")
	require.NoError(t, err)
	assert.Equal(t, "Created trip 2 \"Spiti\" organized by user 9\n", out)

	out, err = runCmd(t, "trip", "add-member", "1", "4")
	require.NoError(t, err)
	assert.Equal(t, "Added user 4 to trip 1\n", out)

	_, err = runCmd(t, "trip", "add-member", "1", "2")
	assert.ErrorContains(t, err, "already a member")

	_, err = runCmd(t, "trip", "add-member", "99", "2")
	assert.ErrorContains(t, err, "trip not found")

	_, err = runCmd(t, "trip", "add-member", "x", "2")
	assert.ErrorContains(t, err, `invalid trip ID "x"`)

	_, err = runCmd(t, "trip", "create", "Spiti")
	assert.Error(t, err)
}

func TestBalancesCommand(t *testing.T) {
	out, err := runCmd(t, "balances", "1", "--json")
	require.NoError(t, err)

	var balances []struct {
		UserID     int64  `json:"user_id"`
		NetBalance string `json:"net_balance"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &balances))
	require.Len(t, balances, 3)
	for i, b := range balances {
		assert.Equal(t, int64(i+1), b.UserID)
		assert.Equal(t, "0.00", b.NetBalance)
	}

	out, err = runCmd(t, "balances", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "USER")
	assert.Contains(t, out, "NET")

	_, err = runCmd(t, "balances", "42")
	assert.Error(t, err)
}

func TestPlanCommand(t *testing.T) {
	out, err := runCmd(t, "plan", "1")
	require.NoError(t, err)
	assert.Equal(t, "Nothing to settle\n", out)

	out, err = runCmd(t, "plan", "1", "--algorithm", "minimal", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"algorithm":"minimal","total":"0.00","transfers":[]}`, out)

	_, err = runCmd(t, "plan", "1", "--algorithm", "greedy")
	assert.ErrorContains(t, err, "unknown settlement algorithm")
}

func TestMigrateRequiresPostgres(t *testing.T) {
	_, err := runCmd(t, "migrate")
	assert.ErrorContains(t, err, "STORE_DRIVER=postgres")
}
