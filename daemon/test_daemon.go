package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/minerid"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/bsv-blockchain/minerid/util/test"
	"github.com/stretchr/testify/require"
)

// TestOptions configures NewTestDaemon.
type TestOptions struct {
	// Broadcaster replaces the in-process validator.
	Broadcaster minerid.Broadcaster
	// SettingsOverride is applied to the test settings before the daemon starts.
	SettingsOverride func(s *settings.Settings)
}

// TestDaemon is a daemon started on free local ports with its data in a temporary directory.
type TestDaemon struct {
	Ctx      context.Context
	Logger   ulogger.Logger
	Settings *settings.Settings
	Daemon   *Daemon
	rpcURL   *url.URL
	doneCh   chan struct{}
}

// JSONError is the error object of an RPC reply.
type JSONError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (je *JSONError) Error() string {
	return fmt.Sprintf("code: %d, message: %s", je.Code, je.Message)
}

func NewTestDaemon(t *testing.T, opts TestOptions) *TestDaemon {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := ulogger.TestLogger{}

	appSettings := test.CreateBaseTestSettings(t)
	appSettings.ProfilerAddr = ""
	appSettings.PrometheusEndpoint = ""
	appSettings.HealthCheckAddr = ""

	listenerURL, err := url.Parse("http://127.0.0.1:0")
	require.NoError(t, err)

	appSettings.RPC.RPCListenerURL = listenerURL

	if opts.SettingsOverride != nil {
		opts.SettingsOverride(appSettings)
	}

	daemonOpts := []Option{
		WithContext(ctx),
		WithLoggerFactory(func(string) ulogger.Logger { return logger }),
	}

	if opts.Broadcaster != nil {
		daemonOpts = append(daemonOpts, WithBroadcaster(opts.Broadcaster))
	}

	d := New(daemonOpts...)

	readyCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)
		d.Start(logger, appSettings, readyCh)
	}()

	select {
	case <-readyCh:
	case <-doneCh:
		t.Fatal("daemon stopped before it was ready")
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for the daemon to be ready")
	}

	rpcURL, err := url.Parse("http://" + d.RPCServer().Addr().String())
	require.NoError(t, err)

	return &TestDaemon{
		Ctx:      ctx,
		Logger:   logger,
		Settings: appSettings,
		Daemon:   d,
		rpcURL:   rpcURL,
		doneCh:   doneCh,
	}
}

// Stop stops the daemon and waits for Start to return.
func (td *TestDaemon) Stop(t *testing.T) {
	t.Helper()

	require.NoError(t, td.Daemon.Stop(10*time.Second))

	select {
	case <-td.doneCh:
	case <-time.After(10 * time.Second):
		t.Fatal("timeout waiting for the daemon to stop")
	}
}

// Done is closed when Start returned.
func (td *TestDaemon) Done() <-chan struct{} {
	return td.doneCh
}

// Fund creates the funding key through the RPC interface, pays satoshis to its address in a
// new block and makes that coin the first funding outpoint.
func (td *TestDaemon) Fund(t *testing.T, satoshis uint64) *bt.Tx {
	t.Helper()

	_, err := td.CallRPC(td.Ctx, "makeminerinfotxsigningkey", []interface{}{})
	require.NoError(t, err)

	resp, err := td.CallRPC(td.Ctx, "getminerinfotxfundingaddress", []interface{}{})
	require.NoError(t, err)

	var reply struct {
		Result string `json:"result"`
	}

	require.NoError(t, json.Unmarshal([]byte(resp), &reply))

	seed, err := td.Daemon.Stores().ChainState.SeedCoinbase(td.Ctx, test.P2PKHScript(t, reply.Result), satoshis)
	require.NoError(t, err)

	_, err = td.CallRPC(td.Ctx, "setminerinfotxfundingoutpoint", []interface{}{seed.TxID(), 0})
	require.NoError(t, err)

	return seed
}

// CallRPC calls the RPC method with the given parameters and returns the response as a string.
func (td *TestDaemon) CallRPC(ctx context.Context, method string, params []interface{}) (string, error) {
	requestBody, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "1.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	if err != nil {
		return "", errors.NewProcessingError("failed to marshal request body", err)
	}

	td.Logger.Infof("Request: %s", string(requestBody))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, td.rpcURL.String(), bytes.NewBuffer(requestBody))
	if err != nil {
		return "", errors.NewProcessingError("failed to create request", err)
	}

	req.SetBasicAuth(td.Settings.RPC.RPCUser, td.Settings.RPC.RPCPass)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", errors.NewProcessingError("failed to perform request", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return "", errors.NewProcessingError("expected status code 200, got %v", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewProcessingError("failed to read response body", err)
	}

	var jsonResponse struct {
		Error *JSONError `json:"error"`
	}

	if err = json.Unmarshal(body, &jsonResponse); err != nil {
		return string(body), errors.NewProcessingError("failed to parse response JSON", err)
	}

	if jsonResponse.Error != nil {
		return string(body), errors.NewProcessingError("rpc returned error", jsonResponse.Error)
	}

	return string(body), nil
}
