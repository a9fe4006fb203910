package rpc

import (
	"context"
	"encoding/hex"
	stdjson "encoding/json"
	"net/url"
	"strings"
	"testing"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/chainstate"
	"github.com/bsv-blockchain/minerid/services/mempool"
	"github.com/bsv-blockchain/minerid/services/minerid"
	"github.com/bsv-blockchain/minerid/services/rpc/bsvjson"
	"github.com/bsv-blockchain/minerid/services/validator"
	"github.com/bsv-blockchain/minerid/stores/funding"
	"github.com/bsv-blockchain/minerid/stores/minerinfo"
	"github.com/bsv-blockchain/minerid/stores/utxo/memory"
	"github.com/bsv-blockchain/minerid/ulogger"
	"github.com/bsv-blockchain/minerid/util/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRPCMinerIDError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    bsvjson.RPCErrorCode
		message string
	}{
		{
			name:    "tracking",
			err:     errors.NewTrackingConsistencyError("minerinfo tx tracking error"),
			code:    bsvjson.ErrRPCDatabase,
			message: "minerinfo tx tracking error",
		},
		{
			name:    "document format",
			err:     errors.NewDocumentFormatError("document is not an object"),
			code:    bsvjson.ErrRPCParse.Code,
			message: "document is not an object",
		},
		{
			name:    "broadcast",
			err:     errors.NewBroadcastError("Could not create minerinfo transaction. %s", "bad-txns"),
			code:    bsvjson.ErrRPCVerify,
			message: "Could not create minerinfo transaction. bad-txns",
		},
		{
			name:    "invalid argument",
			err:     errors.NewInvalidArgumentError("txid must be 64 hex characters, got 3"),
			code:    bsvjson.ErrRPCInvalidParameter,
			message: "txid must be 64 hex characters, got 3",
		},
		{
			name:    "height",
			err:     errors.NewHeightMismatchError("Block height must be the active chain height plus 1"),
			code:    bsvjson.ErrRPCMisc,
			message: "Block height must be the active chain height plus 1",
		},
		{
			name:    "funding wrapped",
			err:     errors.NewFundingExhaustedError("Could not fund minerinfo transaction: x", errors.NewStorageError("disk")),
			code:    bsvjson.ErrRPCMisc,
			message: "Could not fund minerinfo transaction: x",
		},
		{
			name:    "plain error",
			err:     context.DeadlineExceeded,
			code:    bsvjson.ErrRPCMisc,
			message: context.DeadlineExceeded.Error(),
		},
		{
			name:    "rpc error passes through",
			err:     rpcInvalidError("n must be between 0 and 1 (not 2)"),
			code:    bsvjson.ErrRPCInvalidParameter,
			message: "n must be between 0 and 1 (not 2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rpcErr := rpcMinerIDError(tt.err)

			assert.Equal(t, tt.code, rpcErr.Code)
			assert.Equal(t, tt.message, rpcErr.Message)
		})
	}
}

func TestHandlersWithMockService(t *testing.T) {
	txID := chainhash.DoubleHashH([]byte("replacement"))

	t.Run("create rejects non hex script", func(t *testing.T) {
		service := &MockMinerIDService{}
		s := newTestServer(t, service)

		reply := callAdmin(t, s, "createminerinfotx", "zz")

		require.NotNil(t, reply.Error)
		assert.Equal(t, bsvjson.ErrRPCInvalidParameter, reply.Error.Code)
		assert.Equal(t, "scriptPubKey must be hexadecimal string (not 'zz')", reply.Error.Message)
		service.AssertNotCalled(t, "CreateOrReplace", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("replace overrides", func(t *testing.T) {
		service := &MockMinerIDService{}
		service.On("CreateOrReplace", mock.Anything, []byte{0x00, 0x6a}, true).Return(&txID, nil)

		s := newTestServer(t, service)

		reply := callAdmin(t, s, "replaceminerinfotx", "006a")

		require.Nil(t, reply.Error)
		assert.JSONEq(t, `"`+txID.String()+`"`, string(reply.Result))
		service.AssertExpectations(t)
	})

	t.Run("create maps service errors", func(t *testing.T) {
		service := &MockMinerIDService{}
		service.On("CreateOrReplace", mock.Anything, mock.Anything, false).
			Return(nil, errors.NewTrackingConsistencyError("minerinfo tx tracking error"))

		s := newTestServer(t, service)

		reply := callAdmin(t, s, "createminerinfotx", "006a")

		require.NotNil(t, reply.Error)
		assert.Equal(t, bsvjson.ErrRPCDatabase, reply.Error.Code)
	})

	t.Run("getminerinfotxid returns null", func(t *testing.T) {
		service := &MockMinerIDService{}
		service.On("CurrentTxID").Return(nil)

		s := newTestServer(t, service)

		reply := callAdmin(t, s, "getminerinfotxid")

		require.Nil(t, reply.Error)
		assert.Equal(t, "null", string(reply.Result))
	})

	t.Run("setminerinfotxfundingoutpoint n out of range", func(t *testing.T) {
		service := &MockMinerIDService{}
		s := newTestServer(t, service)

		for _, n := range []int64{-1, 1 << 32} {
			reply := callAdmin(t, s, "setminerinfotxfundingoutpoint", txID.String(), n)

			require.NotNil(t, reply.Error)
			assert.Equal(t, bsvjson.ErrRPCInvalidParameter, reply.Error.Code)
		}

		service.AssertNotCalled(t, "SetFundingOutpoint", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("setminerinfotxfundingoutpoint forwards", func(t *testing.T) {
		service := &MockMinerIDService{}
		service.On("SetFundingOutpoint", mock.Anything, txID.String(), uint32(3)).Return(nil)

		s := newTestServer(t, service)

		reply := callAdmin(t, s, "setminerinfotxfundingoutpoint", txID.String(), 3)

		require.Nil(t, reply.Error)
		assert.Equal(t, "null", string(reply.Result))
		service.AssertExpectations(t)
	})

	t.Run("makeminerinfotxsigningkey error", func(t *testing.T) {
		service := &MockMinerIDService{}
		service.On("MakeSigningKey", mock.Anything).Return(errors.NewStorageError("could not write key file"))

		s := newTestServer(t, service)

		reply := callAdmin(t, s, "makeminerinfotxsigningkey")

		require.NotNil(t, reply.Error)
		assert.Equal(t, bsvjson.ErrRPCMisc, reply.Error.Code)
		assert.Equal(t, "could not write key file", reply.Error.Message)
	})

	t.Run("wrong param count", func(t *testing.T) {
		s := newTestServer(t, &MockMinerIDService{})

		reply := callAdmin(t, s, "getminerinfotxid", "extra")

		require.NotNil(t, reply.Error)
		assert.Equal(t, bsvjson.ErrRPCInvalidParams.Code, reply.Error.Code)
	})
}

func TestHandleHelp(t *testing.T) {
	s := newTestServer(t, &MockMinerIDService{})

	reply := callAdmin(t, s, "help")
	require.Nil(t, reply.Error)

	var text string
	require.NoError(t, stdjson.Unmarshal(reply.Result, &text))

	lines := strings.Split(text, "\n")
	assert.Len(t, lines, len(rpcHandlers))
	assert.Contains(t, lines, `createminerinfotx "scriptPubKey"`)

	reply = callAdmin(t, s, "help", "getminerinfotxfundingaddress")
	require.Nil(t, reply.Error)
	require.NoError(t, stdjson.Unmarshal(reply.Result, &text))
	assert.True(t, strings.HasPrefix(text, "getminerinfotxfundingaddress\n\n"))

	reply = callAdmin(t, s, "help", "getinfo")
	require.NotNil(t, reply.Error)
	assert.Equal(t, "help: unknown command: getinfo", reply.Error.Message)
}

// TestCreateMinerInfoTxEndToEnd drives the full service stack through the RPC handler.
func TestCreateMinerInfoTxEndToEnd(t *testing.T) {
	ctx := context.Background()
	logger := ulogger.TestLogger{}
	tSettings := test.CreateBaseTestSettings(t)

	listenerURL, err := url.Parse("http://127.0.0.1:0")
	require.NoError(t, err)

	tSettings.RPC.RPCListenerURL = listenerURL

	pool := mempool.New(logger, minerinfo.NewTracker(logger, nil))
	state := chainstate.New(logger, tSettings, memory.New(logger), pool)
	txValidator := validator.New(logger, tSettings, state, pool)
	service := minerid.New(logger, tSettings, state, pool, txValidator, funding.New(logger, tSettings))

	s, err := NewServer(logger, tSettings, service)
	require.NoError(t, err)

	reply := callAdmin(t, s, "getminerinfotxfundingaddress")
	require.NotNil(t, reply.Error, "no funding key yet")

	reply = callAdmin(t, s, "makeminerinfotxsigningkey")
	require.Nil(t, reply.Error)

	reply = callAdmin(t, s, "getminerinfotxfundingaddress")
	require.Nil(t, reply.Error)

	var address string
	require.NoError(t, stdjson.Unmarshal(reply.Result, &address))

	seed, err := state.SeedCoinbase(ctx, test.P2PKHScript(t, address), 50_000)
	require.NoError(t, err)

	reply = callAdmin(t, s, "setminerinfotxfundingoutpoint", seed.TxID(), 0)
	require.Nil(t, reply.Error)

	height, _ := state.Tip()
	script := documentScriptHex(t, height+1)

	reply = callAdmin(t, s, "createminerinfotx", script)
	require.Nil(t, reply.Error)

	var created string
	require.NoError(t, stdjson.Unmarshal(reply.Result, &created))

	reply = callAdmin(t, s, "getminerinfotxid")
	require.Nil(t, reply.Error)
	assert.JSONEq(t, `"`+created+`"`, string(reply.Result))

	// a document for the wrong height is rejected by the service
	reply = callAdmin(t, s, "replaceminerinfotx", documentScriptHex(t, height+5))
	require.NotNil(t, reply.Error)
	assert.Equal(t, bsvjson.ErrRPCMisc, reply.Error.Code)
	assert.Equal(t, "Block height must be the active chain height plus 1", reply.Error.Message)
}

func documentScriptHex(t *testing.T, height uint32) string {
	t.Helper()

	doc, err := stdjson.Marshal(map[string]interface{}{
		"version":              "0.3",
		"height":               height,
		"prevMinerId":          "02a1b2c3",
		"prevMinerIdSig":       "3045022100aa",
		"minerId":              "02a1b2c3",
		"prevRevocationKey":    "03d4e5f6",
		"prevRevocationKeySig": "3045022100bb",
		"revocationKey":        "03d4e5f6",
	})
	require.NoError(t, err)

	script, err := minerid.BuildScript(doc)
	require.NoError(t, err)

	return hex.EncodeToString(*script)
}
