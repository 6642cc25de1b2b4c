package utils

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	query string
	args  []driver.Value
}

// captureConn records every statement instead of talking to Postgres.
type captureConn struct {
	mu    sync.Mutex
	execs []execCall
}

func (c *captureConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *captureConn) Close() error { return nil }

func (c *captureConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions not supported")
}

func (c *captureConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	call := execCall{query: query}
	for _, a := range args {
		call.args = append(call.args, a.Value)
	}
	c.execs = append(c.execs, call)
	return driver.RowsAffected(1), nil
}

func (c *captureConn) inserts() []execCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []execCall
	for _, e := range c.execs {
		if strings.HasPrefix(strings.TrimSpace(e.query), "INSERT") {
			out = append(out, e)
		}
	}
	return out
}

type captureConnector struct{ conn *captureConn }

func (c captureConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }

func (c captureConnector) Driver() driver.Driver { return captureDriver(c) }

type captureDriver captureConnector

func (d captureDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

func captureJournal(t *testing.T) (*Journal, *captureConn) {
	t.Helper()
	conn := &captureConn{}
	j := &Journal{db: sql.OpenDB(captureConnector{conn: conn})}
	require.NoError(t, j.ensureSchema(context.Background()))
	t.Cleanup(func() { _ = j.Close() })
	return j, conn
}

func TestJournal_RecordStoresHashNotAddress(t *testing.T) {
	j, conn := captureJournal(t)

	err := j.Record(context.Background(), DeliveryRecord{
		RequestID: "req-1",
		Recipient: "alice.martin@private.example",
		Status:    DeliveryFailed,
		Reason:    "delivery",
	})
	require.NoError(t, err)

	inserts := conn.inserts()
	require.Len(t, inserts, 1)
	for _, arg := range inserts[0].args {
		assert.NotContains(t, fmt.Sprint(arg), "alice.martin", "journal argument leaks the address")
	}
	assert.Contains(t, inserts[0].args, driver.Value(HashRecipient("alice.martin@private.example")))
	assert.Contains(t, inserts[0].args, driver.Value("delivery"))
	assert.Contains(t, inserts[0].args, driver.Value("req-1"))
}

func TestJournal_ReusedRequestIDAppends(t *testing.T) {
	j, conn := captureJournal(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, DeliveryRecord{RequestID: "x", Recipient: "a@x.com", Status: DeliverySent}))
	require.NoError(t, j.Record(ctx, DeliveryRecord{RequestID: "x", Recipient: "b@x.com", Status: DeliveryFailed, Reason: "delivery"}))

	inserts := conn.inserts()
	require.Len(t, inserts, 2)
	for _, ins := range inserts {
		assert.NotContains(t, strings.ToUpper(ins.query), "ON CONFLICT")
	}
	// First argument is the server-side row id.
	assert.NotEqual(t, inserts[0].args[0], inserts[1].args[0])
	assert.NotEqual(t, "x", inserts[0].args[0])
}

func TestJournal_EmptyReasonIsNull(t *testing.T) {
	j, conn := captureJournal(t)

	require.NoError(t, j.Record(context.Background(), DeliveryRecord{RequestID: "r", Recipient: "a@x.com", Status: DeliverySent}))
	inserts := conn.inserts()
	require.Len(t, inserts, 1)
	assert.Nil(t, inserts[0].args[len(inserts[0].args)-1])
}
