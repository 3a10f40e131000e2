package log_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/keboola/cluster-resolver/internal/pkg/ctxattr"
	"github.com/keboola/cluster-resolver/internal/pkg/log"
)

func TestServiceLogger_JSON(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	logger := log.NewServiceLogger(&out, log.LogFormatJSON, false).WithComponent("resolver")

	ctx := ctxattr.ContextWith(context.Background(), attribute.String("name", "a.b.C"))
	logger.Debug(ctx, "debug message")
	logger.WithComponent("cluster").Infof(ctx, `artifact "<name>" found on %s`, "node-2")

	require.NoError(t, log.CompareJSONMessages(`
{"level":"info","message":"artifact \"a.b.C\" found on node-2","component":"resolver.cluster","name":"a.b.C","time":"%s"}
`, out.String()))
	assert.NotContains(t, out.String(), "debug message")
}

func TestServiceLogger_Console(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	logger := log.NewServiceLogger(&out, log.LogFormatConsole, true)
	logger.Debug(context.Background(), "debug message")
	logger.Warn(context.Background(), "warn message")

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "DEBUG debug message")
	assert.Contains(t, lines[1], "WARN warn message")
}

func TestDebugLogger_Attributes(t *testing.T) {
	t.Parallel()

	logger := log.NewDebugLogger()
	ctx := ctxattr.ContextWith(context.Background(), attribute.String("peer", "node-1"), attribute.Int("attempt", 1))

	logger.With(attribute.String("peer", "node-3")).Warn(ctx, "peer <peer> failed")
	logger.WithDuration(1500*time.Millisecond).Info(ctx, "done")
	logger.Log(ctx, "error", "explicit level")
	logger.Log(ctx, "unknown", "fallback level")

	logger.AssertJSONMessages(t, `
{"level":"warn","message":"peer node-3 failed","peer":"node-3","attempt":1}
{"level":"info","message":"done","duration":"1.5s"}
{"level":"error","message":"explicit level"}
{"level":"info","message":"fallback level"}
`)
	assert.Equal(t, 2, strings.Count(logger.WarnAndErrorMessages(), "\n"))

	logger.Truncate()
	assert.Empty(t, logger.AllMessages())
	logger.AssertNoWarnOrError(t)
}

func TestCompareJSONMessages(t *testing.T) {
	t.Parallel()

	actual := `
{"level":"info","message":"first","component":"a"}
{"level":"info","message":"second","component":"b"}
`
	require.NoError(t, log.CompareJSONMessages(`{"message":"first"}`+"\n"+`{"message":"sec%s"}`, actual))

	// Order matters
	err := log.CompareJSONMessages(`{"message":"second"}`+"\n"+`{"message":"first"}`, actual)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `{"message":"first"}`)
}

func TestNewLogFormat(t *testing.T) {
	t.Parallel()

	format, err := log.NewLogFormat("json")
	require.NoError(t, err)
	assert.Equal(t, log.LogFormatJSON, format)

	format, err = log.NewLogFormat("xml")
	require.Error(t, err)
	assert.Equal(t, log.LogFormatConsole, format)
}

func TestNewStdErrorLogger(t *testing.T) {
	t.Parallel()

	logger := log.NewDebugLogger()
	log.NewStdErrorLogger(logger.WithComponent("yamux")).Println("[ERR] yamux: keepalive failed")
	logger.AssertJSONMessages(t, `{"level":"error","message":"[ERR] yamux: keepalive failed","component":"yamux"}`)
}
