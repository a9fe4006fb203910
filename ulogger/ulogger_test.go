package ulogger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/ordishs/gocore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroLoggerJSON(t *testing.T) {
	var buf bytes.Buffer

	logger := ulogger.New("mnid", ulogger.WithWriter(&buf), ulogger.WithPretty(false), ulogger.WithLevel("INFO"))

	logger.Debugf("hidden %d", 1)
	logger.Infof("created minerinfo txn at height %d", 101)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "created minerinfo txn at height 101")
	assert.Contains(t, out, `"service":"mnid"`)
	assert.Equal(t, int(gocore.INFO), logger.LogLevel())
}

func TestZeroLoggerChildInheritsWriter(t *testing.T) {
	var buf bytes.Buffer

	parent := ulogger.New("mnid", ulogger.WithWriter(&buf), ulogger.WithPretty(false), ulogger.WithLevel("DEBUG"))
	child := parent.New("rpc")

	child.Debugf("handler called")

	out := buf.String()
	assert.Contains(t, out, "handler called")
	assert.Contains(t, out, `"service":"rpc"`)
	assert.Equal(t, int(gocore.DEBUG), child.LogLevel())
}

func TestZeroLoggerPretty(t *testing.T) {
	var buf bytes.Buffer

	logger := ulogger.New("mpool", ulogger.WithWriter(&buf), ulogger.WithLevel("WARN"))
	logger.Infof("dropped")
	logger.Warnf("removed %s", "abc")

	out := buf.String()
	require.NotContains(t, out, "dropped")
	assert.True(t, strings.Contains(out, "mpool"))
	assert.Contains(t, out, "removed abc")
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := ulogger.NewZeroLogger("chain", ulogger.WithWriter(&buf), ulogger.WithPretty(false))
	logger.SetLogLevel("error")
	logger.Warnf("not shown")
	assert.Empty(t, buf.String())
	assert.Equal(t, int(gocore.ERROR), logger.LogLevel())
}

func TestErrorTestLogger(t *testing.T) {
	logger := ulogger.NewErrorTestLogger(t)

	logger.Infof("ignored")
	logger.Warnf("careful %d", 1)
	logger.Errorf("broken %s", "thing")

	assert.Equal(t, []string{"broken thing"}, logger.Errors())
	assert.Equal(t, []string{"careful 1"}, logger.Warnings())
}
