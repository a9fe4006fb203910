package bsvjson

import (
	"encoding/json"
)

// CreateMinerInfoTxCmd defines the createminerinfotx JSON-RPC command.
type CreateMinerInfoTxCmd struct {
	ScriptPubKey string
}

// NewCreateMinerInfoTxCmd returns a new instance which can be used to issue a createminerinfotx
// JSON-RPC command.
func NewCreateMinerInfoTxCmd(scriptPubKey string) *CreateMinerInfoTxCmd {
	return &CreateMinerInfoTxCmd{ScriptPubKey: scriptPubKey}
}

func (c *CreateMinerInfoTxCmd) method() string { return "createminerinfotx" }
func (c *CreateMinerInfoTxCmd) params() []interface{} { return []interface{}{c.ScriptPubKey} }

func (c *CreateMinerInfoTxCmd) setParams(params []json.RawMessage) error {
	return unmarshalParam(params, 0, "scriptPubKey", "string", &c.ScriptPubKey)
}

// ReplaceMinerInfoTxCmd defines the replaceminerinfotx JSON-RPC command.
type ReplaceMinerInfoTxCmd struct {
	ScriptPubKey string
}

// NewReplaceMinerInfoTxCmd returns a new instance which can be used to issue a
// replaceminerinfotx JSON-RPC command.
func NewReplaceMinerInfoTxCmd(scriptPubKey string) *ReplaceMinerInfoTxCmd {
	return &ReplaceMinerInfoTxCmd{ScriptPubKey: scriptPubKey}
}

func (c *ReplaceMinerInfoTxCmd) method() string { return "replaceminerinfotx" }
func (c *ReplaceMinerInfoTxCmd) params() []interface{} { return []interface{}{c.ScriptPubKey} }

func (c *ReplaceMinerInfoTxCmd) setParams(params []json.RawMessage) error {
	return unmarshalParam(params, 0, "scriptPubKey", "string", &c.ScriptPubKey)
}

// GetMinerInfoTxIDCmd defines the getminerinfotxid JSON-RPC command.
type GetMinerInfoTxIDCmd struct{}

func (c *GetMinerInfoTxIDCmd) method() string { return "getminerinfotxid" }
func (c *GetMinerInfoTxIDCmd) params() []interface{} { return []interface{}{} }
func (c *GetMinerInfoTxIDCmd) setParams([]json.RawMessage) error { return nil }

// MakeMinerInfoTxSigningKeyCmd defines the makeminerinfotxsigningkey JSON-RPC command.
type MakeMinerInfoTxSigningKeyCmd struct{}

func (c *MakeMinerInfoTxSigningKeyCmd) method() string { return "makeminerinfotxsigningkey" }
func (c *MakeMinerInfoTxSigningKeyCmd) params() []interface{} { return []interface{}{} }
func (c *MakeMinerInfoTxSigningKeyCmd) setParams([]json.RawMessage) error { return nil }

// GetMinerInfoTxFundingAddressCmd defines the getminerinfotxfundingaddress JSON-RPC command.
type GetMinerInfoTxFundingAddressCmd struct{}

func (c *GetMinerInfoTxFundingAddressCmd) method() string { return "getminerinfotxfundingaddress" }
func (c *GetMinerInfoTxFundingAddressCmd) params() []interface{} { return []interface{}{} }
func (c *GetMinerInfoTxFundingAddressCmd) setParams([]json.RawMessage) error { return nil }

// SetMinerInfoTxFundingOutpointCmd defines the setminerinfotxfundingoutpoint JSON-RPC command.
type SetMinerInfoTxFundingOutpointCmd struct {
	TxID string
	N    int64
}

// NewSetMinerInfoTxFundingOutpointCmd returns a new instance which can be used to issue a
// setminerinfotxfundingoutpoint JSON-RPC command.
func NewSetMinerInfoTxFundingOutpointCmd(txID string, n int64) *SetMinerInfoTxFundingOutpointCmd {
	return &SetMinerInfoTxFundingOutpointCmd{TxID: txID, N: n}
}

func (c *SetMinerInfoTxFundingOutpointCmd) method() string { return "setminerinfotxfundingoutpoint" }

func (c *SetMinerInfoTxFundingOutpointCmd) params() []interface{} {
	return []interface{}{c.TxID, c.N}
}

func (c *SetMinerInfoTxFundingOutpointCmd) setParams(params []json.RawMessage) error {
	if err := unmarshalParam(params, 0, "txid", "string", &c.TxID); err != nil {
		return err
	}

	return unmarshalParam(params, 1, "n", "integer", &c.N)
}

// HelpCmd defines the help JSON-RPC command.
type HelpCmd struct {
	Command *string
}

// NewHelpCmd returns a new instance which can be used to issue a help JSON-RPC command.
func NewHelpCmd(command *string) *HelpCmd {
	return &HelpCmd{Command: command}
}

func (c *HelpCmd) method() string { return "help" }

func (c *HelpCmd) params() []interface{} {
	if c.Command == nil {
		return []interface{}{}
	}

	return []interface{}{*c.Command}
}

func (c *HelpCmd) setParams(params []json.RawMessage) error {
	if len(params) == 0 {
		return nil
	}

	var command string
	if err := unmarshalParam(params, 0, "command", "string", &command); err != nil {
		return err
	}

	c.Command = &command

	return nil
}

// StopCmd defines the stop JSON-RPC command.
type StopCmd struct{}

func (c *StopCmd) method() string { return "stop" }
func (c *StopCmd) params() []interface{} { return []interface{}{} }
func (c *StopCmd) setParams([]json.RawMessage) error { return nil }

func init() {
	mustRegisterCmd("createminerinfotx", 1, 0, `createminerinfotx "scriptPubKey"`,
		"Creates a miner info transaction carrying scriptPubKey in its first output and sends it to the mempool.\n"+
			"Returns the id of the tracked miner info transaction if there already is one.",
		func() command { return &CreateMinerInfoTxCmd{} })
	mustRegisterCmd("replaceminerinfotx", 1, 0, `replaceminerinfotx "scriptPubKey"`,
		"Replaces the tracked miner info transaction, and everything spending it, with one carrying scriptPubKey.\n"+
			"Returns the tracked id unchanged if it already carries scriptPubKey.",
		func() command { return &ReplaceMinerInfoTxCmd{} })
	mustRegisterCmd("getminerinfotxid", 0, 0, "getminerinfotxid",
		"Returns the id of the miner info transaction in the mempool, or null.",
		func() command { return &GetMinerInfoTxIDCmd{} })
	mustRegisterCmd("makeminerinfotxsigningkey", 0, 0, "makeminerinfotxsigningkey",
		"Creates the key that funds miner info transactions and writes it to the funding directory.",
		func() command { return &MakeMinerInfoTxSigningKeyCmd{} })
	mustRegisterCmd("getminerinfotxfundingaddress", 0, 0, "getminerinfotxfundingaddress",
		"Returns the address that has to be funded for miner info transactions.",
		func() command { return &GetMinerInfoTxFundingAddressCmd{} })
	mustRegisterCmd("setminerinfotxfundingoutpoint", 2, 0, `setminerinfotxfundingoutpoint "txid" n`,
		"Sets the outpoint that funds the first miner info transaction. It must pay to the funding address.",
		func() command { return &SetMinerInfoTxFundingOutpointCmd{} })
	mustRegisterCmd("help", 0, 1, `help ("command")`,
		"Lists all commands, or returns help for the given command.",
		func() command { return &HelpCmd{} })
	mustRegisterCmd("stop", 0, 0, "stop",
		"Stops the server.",
		func() command { return &StopCmd{} })
}
