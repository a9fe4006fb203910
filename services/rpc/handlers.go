package rpc

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/rpc/bsvjson"
	"github.com/prometheus/client_golang/prometheus"
)

type commandHandler func(ctx context.Context, s *RPCServer, cmd interface{}) (interface{}, error)

// rpcHandlers maps RPC command strings to appropriate handler functions. It is set in init
// because help refers back to it.
var rpcHandlers map[string]commandHandler

// rpcLimited is the set of commands a limited user may call.
var rpcLimited = map[string]struct{}{
	"getminerinfotxid":             {},
	"getminerinfotxfundingaddress": {},
	"help":                         {},
}

func init() {
	rpcHandlers = map[string]commandHandler{
		"createminerinfotx":             handleCreateMinerInfoTx,
		"replaceminerinfotx":            handleReplaceMinerInfoTx,
		"getminerinfotxid":              handleGetMinerInfoTxID,
		"makeminerinfotxsigningkey":     handleMakeMinerInfoTxSigningKey,
		"getminerinfotxfundingaddress":  handleGetMinerInfoTxFundingAddress,
		"setminerinfotxfundingoutpoint": handleSetMinerInfoTxFundingOutpoint,
		"help":                          handleHelp,
		"stop":                          handleStop,
	}
}

func observe(h prometheus.Histogram, start time.Time) {
	if h != nil {
		h.Observe(float64(time.Since(start).Microseconds()) / 1_000)
	}
}

// handleCreateMinerInfoTx implements the createminerinfotx command.
func handleCreateMinerInfoTx(ctx context.Context, s *RPCServer, cmd interface{}) (interface{}, error) {
	defer observe(prometheusHandleCreateMinerInfoTx, time.Now())

	c := cmd.(*bsvjson.CreateMinerInfoTxCmd)

	return createOrReplace(ctx, s, c.ScriptPubKey, false)
}

// handleReplaceMinerInfoTx implements the replaceminerinfotx command.
func handleReplaceMinerInfoTx(ctx context.Context, s *RPCServer, cmd interface{}) (interface{}, error) {
	defer observe(prometheusHandleReplaceMinerInfoTx, time.Now())

	c := cmd.(*bsvjson.ReplaceMinerInfoTxCmd)

	return createOrReplace(ctx, s, c.ScriptPubKey, true)
}

func createOrReplace(ctx context.Context, s *RPCServer, scriptPubKeyHex string, override bool) (interface{}, error) {
	scriptPubKey, err := hex.DecodeString(scriptPubKeyHex)
	if err != nil {
		return nil, rpcInvalidError("scriptPubKey must be hexadecimal string (not '%s')", scriptPubKeyHex)
	}

	txID, err := s.service.CreateOrReplace(ctx, scriptPubKey, override)
	if err != nil {
		s.logger.Warnf("[RPC] create miner info tx failed: %v", err)
		return nil, rpcMinerIDError(err)
	}

	return txID.String(), nil
}

// handleGetMinerInfoTxID implements the getminerinfotxid command.
func handleGetMinerInfoTxID(_ context.Context, s *RPCServer, _ interface{}) (interface{}, error) {
	defer observe(prometheusHandleGetMinerInfoTxID, time.Now())

	txID := s.service.CurrentTxID()
	if txID == nil {
		return nil, nil
	}

	return txID.String(), nil
}

// handleMakeMinerInfoTxSigningKey implements the makeminerinfotxsigningkey command.
func handleMakeMinerInfoTxSigningKey(ctx context.Context, s *RPCServer, _ interface{}) (interface{}, error) {
	defer observe(prometheusHandleMakeMinerInfoTxSigningKey, time.Now())

	if err := s.service.MakeSigningKey(ctx); err != nil {
		return nil, rpcMinerIDError(err)
	}

	return nil, nil
}

// handleGetMinerInfoTxFundingAddress implements the getminerinfotxfundingaddress command.
func handleGetMinerInfoTxFundingAddress(ctx context.Context, s *RPCServer, _ interface{}) (interface{}, error) {
	defer observe(prometheusHandleGetMinerInfoTxFundingAddress, time.Now())

	address, err := s.service.FundingAddress(ctx)
	if err != nil {
		return nil, rpcMinerIDError(err)
	}

	return address, nil
}

// handleSetMinerInfoTxFundingOutpoint implements the setminerinfotxfundingoutpoint command.
func handleSetMinerInfoTxFundingOutpoint(ctx context.Context, s *RPCServer, cmd interface{}) (interface{}, error) {
	defer observe(prometheusHandleSetMinerInfoTxFundingOutpt, time.Now())

	c := cmd.(*bsvjson.SetMinerInfoTxFundingOutpointCmd)

	n, err := safeconversion.IntToUint32(int(c.N))
	if err != nil {
		return nil, rpcInvalidError("n must be between 0 and %d (not %d)", ^uint32(0), c.N)
	}

	if err = s.service.SetFundingOutpoint(ctx, c.TxID, n); err != nil {
		return nil, rpcMinerIDError(err)
	}

	return nil, nil
}

// handleHelp implements the help command.
func handleHelp(_ context.Context, _ *RPCServer, cmd interface{}) (interface{}, error) {
	c := cmd.(*bsvjson.HelpCmd)

	if c.Command == nil || *c.Command == "" {
		methods := bsvjson.RegisteredCmdMethods()
		usages := make([]string, 0, len(methods))

		for _, method := range methods {
			usage, err := bsvjson.MethodUsageText(method)
			if err != nil {
				return nil, err
			}

			usages = append(usages, usage)
		}

		return strings.Join(usages, "\n"), nil
	}

	if _, ok := rpcHandlers[*c.Command]; !ok {
		return nil, bsvjson.NewRPCError(bsvjson.ErrRPCMisc, "help: unknown command: "+*c.Command)
	}

	help, err := bsvjson.MethodHelp(*c.Command)
	if err != nil {
		return nil, bsvjson.NewRPCError(bsvjson.ErrRPCMisc, err.Error())
	}

	return help, nil
}

// handleStop implements the stop command.
func handleStop(_ context.Context, s *RPCServer, _ interface{}) (interface{}, error) {
	select {
	case s.requestProcessShutdown <- struct{}{}:
	default:
	}

	return "minerid stopping.", nil
}

// rpcMinerIDError maps an error from the miner info service onto the RPC error code the node
// reports for it. The message is the service message without the internal error code.
func rpcMinerIDError(err error) *bsvjson.RPCError {
	var rpcErr *bsvjson.RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	var e *errors.Error
	if !errors.As(err, &e) {
		return bsvjson.NewRPCError(bsvjson.ErrRPCMisc, err.Error())
	}

	code := bsvjson.ErrRPCMisc

	switch e.Code() {
	case errors.ERR_MINERID_TRACKING:
		code = bsvjson.ErrRPCDatabase
	case errors.ERR_MINERID_DOCUMENT_FORMAT:
		code = bsvjson.ErrRPCParse.Code
	case errors.ERR_MINERID_BROADCAST:
		code = bsvjson.ErrRPCVerify
	case errors.ERR_INVALID_ARGUMENT:
		code = bsvjson.ErrRPCInvalidParameter
	}

	return bsvjson.NewRPCError(code, e.Message())
}

// rpcInvalidError is a convenience function to convert an invalid parameter error to an RPC
// error with the appropriate code set.
func rpcInvalidError(fmtStr string, args ...interface{}) *bsvjson.RPCError {
	return bsvjson.NewRPCError(bsvjson.ErrRPCInvalidParameter, fmt.Sprintf(fmtStr, args...))
}

func errorCodeLabel(code bsvjson.RPCErrorCode) string {
	return strconv.Itoa(int(code))
}
