package bsvjson_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/bsv-blockchain/minerid/services/rpc/bsvjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMinerInfoCmds tests all of the miner info commands marshal and unmarshal into valid
// results.
func TestMinerInfoCmds(t *testing.T) {
	t.Parallel()

	command := "createminerinfotx"

	tests := []struct {
		name         string
		newCmd       func() (interface{}, error)
		staticCmd    func() interface{}
		marshalled   string
		unmarshalled interface{}
	}{
		{
			name: "createminerinfotx",
			newCmd: func() (interface{}, error) {
				return bsvjson.NewCmd("createminerinfotx", "006a04601dface01")
			},
			staticCmd: func() interface{} {
				return bsvjson.NewCreateMinerInfoTxCmd("006a04601dface01")
			},
			marshalled:   `{"jsonrpc":"1.0","method":"createminerinfotx","params":["006a04601dface01"],"id":1}`,
			unmarshalled: &bsvjson.CreateMinerInfoTxCmd{ScriptPubKey: "006a04601dface01"},
		},
		{
			name: "replaceminerinfotx",
			newCmd: func() (interface{}, error) {
				return bsvjson.NewCmd("replaceminerinfotx", "006a")
			},
			staticCmd: func() interface{} {
				return bsvjson.NewReplaceMinerInfoTxCmd("006a")
			},
			marshalled:   `{"jsonrpc":"1.0","method":"replaceminerinfotx","params":["006a"],"id":1}`,
			unmarshalled: &bsvjson.ReplaceMinerInfoTxCmd{ScriptPubKey: "006a"},
		},
		{
			name: "getminerinfotxid",
			newCmd: func() (interface{}, error) {
				return bsvjson.NewCmd("getminerinfotxid")
			},
			staticCmd: func() interface{} {
				return &bsvjson.GetMinerInfoTxIDCmd{}
			},
			marshalled:   `{"jsonrpc":"1.0","method":"getminerinfotxid","params":[],"id":1}`,
			unmarshalled: &bsvjson.GetMinerInfoTxIDCmd{},
		},
		{
			name: "setminerinfotxfundingoutpoint",
			newCmd: func() (interface{}, error) {
				return bsvjson.NewCmd("setminerinfotxfundingoutpoint", "abcd", 1)
			},
			staticCmd: func() interface{} {
				return bsvjson.NewSetMinerInfoTxFundingOutpointCmd("abcd", 1)
			},
			marshalled:   `{"jsonrpc":"1.0","method":"setminerinfotxfundingoutpoint","params":["abcd",1],"id":1}`,
			unmarshalled: &bsvjson.SetMinerInfoTxFundingOutpointCmd{TxID: "abcd", N: 1},
		},
		{
			name: "help",
			newCmd: func() (interface{}, error) {
				return bsvjson.NewCmd("help")
			},
			staticCmd: func() interface{} {
				return bsvjson.NewHelpCmd(nil)
			},
			marshalled:   `{"jsonrpc":"1.0","method":"help","params":[],"id":1}`,
			unmarshalled: &bsvjson.HelpCmd{},
		},
		{
			name: "help optional",
			newCmd: func() (interface{}, error) {
				return bsvjson.NewCmd("help", command)
			},
			staticCmd: func() interface{} {
				return bsvjson.NewHelpCmd(&command)
			},
			marshalled:   `{"jsonrpc":"1.0","method":"help","params":["createminerinfotx"],"id":1}`,
			unmarshalled: &bsvjson.HelpCmd{Command: &command},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			marshalled, err := bsvjson.MarshalCmd(1, test.staticCmd())
			require.NoError(t, err)
			assert.JSONEq(t, test.marshalled, string(marshalled))

			cmd, err := test.newCmd()
			require.NoError(t, err)

			marshalled, err = bsvjson.MarshalCmd(1, cmd)
			require.NoError(t, err)
			assert.JSONEq(t, test.marshalled, string(marshalled))

			var request bsvjson.Request
			require.NoError(t, json.Unmarshal(marshalled, &request))

			cmd, err = bsvjson.UnmarshalCmd(&request)
			require.NoError(t, err)
			assert.Equal(t, test.unmarshalled, cmd)
		})
	}
}

func TestUnmarshalCmdErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		request string
		code    bsvjson.ErrorCode
	}{
		{"unregistered method", `{"method":"getinfo","params":[],"id":1}`, bsvjson.ErrUnregisteredMethod},
		{"too few params", `{"method":"createminerinfotx","params":[],"id":1}`, bsvjson.ErrNumParams},
		{"too many params", `{"method":"getminerinfotxid","params":[1],"id":1}`, bsvjson.ErrNumParams},
		{"script not a string", `{"method":"createminerinfotx","params":[12],"id":1}`, bsvjson.ErrInvalidType},
		{"n not an integer", `{"method":"setminerinfotxfundingoutpoint","params":["ab",1.5],"id":1}`, bsvjson.ErrInvalidType},
		{"n a string", `{"method":"setminerinfotxfundingoutpoint","params":["ab","1"],"id":1}`, bsvjson.ErrInvalidType},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var request bsvjson.Request
			require.NoError(t, json.Unmarshal([]byte(test.request), &request))

			_, err := bsvjson.UnmarshalCmd(&request)
			require.Error(t, err)

			var jerr bsvjson.Error

			require.True(t, errors.As(err, &jerr))
			assert.Equal(t, test.code, jerr.ErrorCode)
		})
	}
}

func TestMethodHelp(t *testing.T) {
	t.Parallel()

	methods := bsvjson.RegisteredCmdMethods()
	assert.Contains(t, methods, "createminerinfotx")
	assert.Contains(t, methods, "setminerinfotxfundingoutpoint")
	assert.IsIncreasing(t, methods)

	usage, err := bsvjson.MethodUsageText("setminerinfotxfundingoutpoint")
	require.NoError(t, err)
	assert.Equal(t, `setminerinfotxfundingoutpoint "txid" n`, usage)

	help, err := bsvjson.MethodHelp("getminerinfotxid")
	require.NoError(t, err)
	assert.Contains(t, help, "null")

	_, err = bsvjson.MethodHelp("getinfo")
	require.Error(t, err)
}

func TestMarshalResponse(t *testing.T) {
	t.Parallel()

	reply, err := bsvjson.MarshalResponse(1, "abc", nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":"abc","error":null,"id":1}`, string(reply))

	reply, err = bsvjson.MarshalResponse(2, nil, bsvjson.NewRPCError(bsvjson.ErrRPCMisc, "boom"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"result":null,"error":{"code":-1,"message":"boom"},"id":2}`, string(reply))

	_, err = bsvjson.MarshalResponse(struct{}{}, nil, nil)
	require.Error(t, err)
}
