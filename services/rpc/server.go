// Package rpc serves the miner info commands over the node's JSON-RPC 1.0 interface.
//
// Requests are plain HTTP POSTs with positional params and basic auth. Two users are known: the
// admin user may call every command, the limited user only the read-only ones.
package rpc

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/bsv-blockchain/minerid/errors"
	"github.com/bsv-blockchain/minerid/services/rpc/bsvjson"
	"github.com/bsv-blockchain/minerid/settings"
	"github.com/bsv-blockchain/minerid/ulogger"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// rpcAuthTimeoutSeconds is the number of seconds a connection to the RPC server is allowed
	// to stay open without sending a complete request.
	rpcAuthTimeoutSeconds = 10

	// rpcReadLimit is the maximum number of bytes read from a request body.
	rpcReadLimit = 4 * 1024 * 1024
)

var batchedRequestPrefix = []byte("[")

// MinerIDService is the miner info lifecycle the handlers drive.
type MinerIDService interface {
	Health(ctx context.Context, checkLiveness bool) (int, string, error)
	CurrentTxID() *chainhash.Hash
	CreateOrReplace(ctx context.Context, scriptPubKey []byte, override bool) (*chainhash.Hash, error)
	MakeSigningKey(ctx context.Context) error
	FundingAddress(ctx context.Context) (string, error)
	SetFundingOutpoint(ctx context.Context, txID string, n uint32) error
}

// RPCServer provides a concurrent safe RPC server to a chain server.
type RPCServer struct {
	logger                 ulogger.Logger
	settings               *settings.Settings
	service                MinerIDService
	authsha                [sha256.Size]byte
	limitauthsha           [sha256.Size]byte
	rpcMaxClients          int
	numClients             int32
	shutdown               int32
	requestProcessShutdown chan struct{}
	mu                     sync.Mutex
	httpServer             *http.Server
	listenAddr             net.Addr
}

// NewServer returns a new instance of the RPCServer struct.
func NewServer(logger ulogger.Logger, tSettings *settings.Settings, service MinerIDService) (*RPCServer, error) {
	initPrometheusMetrics()

	if tSettings.RPC.RPCListenerURL == nil {
		return nil, errors.NewConfigurationError("rpc_listener_url not set in config")
	}

	s := &RPCServer{
		logger:                 logger,
		settings:               tSettings,
		service:                service,
		rpcMaxClients:          tSettings.RPC.RPCMaxClients,
		requestProcessShutdown: make(chan struct{}, 1),
	}

	if tSettings.RPC.RPCUser != "" && tSettings.RPC.RPCPass != "" {
		s.authsha = authHash(tSettings.RPC.RPCUser, tSettings.RPC.RPCPass)
	}

	if tSettings.RPC.RPCLimitUser != "" && tSettings.RPC.RPCLimitPass != "" {
		s.limitauthsha = authHash(tSettings.RPC.RPCLimitUser, tSettings.RPC.RPCLimitPass)
	}

	return s, nil
}

func authHash(user, pass string) [sha256.Size]byte {
	login := user + ":" + pass
	auth := "Basic " + base64.StdEncoding.EncodeToString([]byte(login))

	return sha256.Sum256([]byte(auth))
}

func (s *RPCServer) Health(ctx context.Context, checkLiveness bool) (int, string, error) {
	if checkLiveness {
		return http.StatusOK, "OK", nil
	}

	if atomic.LoadInt32(&s.shutdown) != 0 {
		return http.StatusServiceUnavailable, "shutting down", errors.NewServiceUnavailableError("rpc server is shutting down")
	}

	if s.service == nil {
		return http.StatusServiceUnavailable, "no service", errors.NewServiceNotStartedError("miner info service not set")
	}

	return s.service.Health(ctx, checkLiveness)
}

func (s *RPCServer) Init(_ context.Context) error {
	if s.service == nil {
		return errors.NewServiceNotStartedError("[RPC] miner info service not set")
	}

	return nil
}

// Start listens on the configured address and serves requests until ctx is done.
func (s *RPCServer) Start(ctx context.Context, readyCh chan<- struct{}) error {
	listener, err := net.Listen("tcp", s.settings.RPC.RPCListenerURL.Host)
	if err != nil {
		return errors.NewServiceError("[RPC] could not listen on %s", s.settings.RPC.RPCListenerURL.Host, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: rpcAuthTimeoutSeconds * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	s.mu.Lock()
	s.httpServer = httpServer
	s.listenAddr = listener.Addr()
	s.mu.Unlock()

	s.logger.Infof("[RPC] listening on %s", listener.Addr())

	errCh := make(chan error, 1)

	go func() {
		if serveErr := httpServer.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errCh <- serveErr
		}

		close(errCh)
	}()

	close(readyCh)

	select {
	case <-ctx.Done():
		return nil
	case err = <-errCh:
		if err != nil {
			return errors.NewServiceError("[RPC] server failed", err)
		}

		return nil
	}
}

// Stop shuts down the HTTP server. Calling it more than once is harmless.
func (s *RPCServer) Stop(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.shutdown, 0, 1) {
		s.logger.Infof("[RPC] server is already in the process of shutting down")
		return nil
	}

	s.logger.Warnf("[RPC] server shutting down")

	s.mu.Lock()
	httpServer := s.httpServer
	s.mu.Unlock()

	if httpServer == nil {
		return nil
	}

	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.NewServiceError("[RPC] shutdown failed", err)
	}

	return nil
}

// Addr returns the address the server listens on once started.
func (s *RPCServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.listenAddr
}

// RequestedProcessShutdown returns a channel that is sent to when an authorized RPC client
// requests the process to shutdown.
func (s *RPCServer) RequestedProcessShutdown() <-chan struct{} {
	return s.requestProcessShutdown
}

// Handler returns the HTTP handler serving JSON-RPC requests.
func (s *RPCServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Connection", "close")
		w.Header().Set("Content-Type", "application/json")
		r.Close = true

		// Limit the number of connections to max allowed.
		if s.limitConnections(w, r.RemoteAddr) {
			return
		}

		s.incrementClients()
		defer s.decrementClients()

		_, isAdmin, err := s.checkAuth(r, true)
		if err != nil {
			jsonAuthFail(w)
			return
		}

		s.jsonRPCRead(w, r, isAdmin)
	})

	return mux
}

// limitConnections responds with a 503 service unavailable and returns true if adding another
// client would exceed the maximum allowed RPC clients.
func (s *RPCServer) limitConnections(w http.ResponseWriter, remoteAddr string) bool {
	if int(atomic.LoadInt32(&s.numClients)+1) > s.rpcMaxClients {
		s.logger.Infof("[RPC] max RPC clients exceeded [%d] - disconnecting client %s", s.rpcMaxClients, remoteAddr)
		http.Error(w, "503 Too busy.  Try again later.", http.StatusServiceUnavailable)

		return true
	}

	return false
}

func (s *RPCServer) incrementClients() {
	atomic.AddInt32(&s.numClients, 1)
}

func (s *RPCServer) decrementClients() {
	atomic.AddInt32(&s.numClients, -1)
}

// checkAuth checks the HTTP Basic authentication supplied by a client in the HTTP request r.
// It returns whether the client is authenticated and whether it is the admin user.
//
// When no admin credentials are configured every client is treated as admin.
func (s *RPCServer) checkAuth(r *http.Request, require bool) (bool, bool, error) {
	if s.authsha == ([sha256.Size]byte{}) {
		return true, true, nil
	}

	authhdr := r.Header["Authorization"]
	if len(authhdr) == 0 {
		if require {
			s.logger.Warnf("[RPC] authentication failure from %s", r.RemoteAddr)
			return false, false, errors.NewServiceError("auth failure")
		}

		return false, false, nil
	}

	authsha := sha256.Sum256([]byte(authhdr[0]))

	// Check for limited auth first as in environments with limited users, those are probably
	// expected to have a higher volume of calls
	if s.limitauthsha != ([sha256.Size]byte{}) {
		if cmp := subtle.ConstantTimeCompare(authsha[:], s.limitauthsha[:]); cmp == 1 {
			return true, false, nil
		}
	}

	if cmp := subtle.ConstantTimeCompare(authsha[:], s.authsha[:]); cmp == 1 {
		return true, true, nil
	}

	s.logger.Warnf("[RPC] authentication failure from %s", r.RemoteAddr)

	return false, false, errors.NewServiceError("auth failure")
}

// parsedRPCCmd represents a JSON-RPC request object that has been parsed into a known concrete
// command along with any error that might have happened while parsing it.
type parsedRPCCmd struct {
	id     interface{}
	method string
	cmd    interface{}
	err    *bsvjson.RPCError
}

// parseCmd parses a JSON-RPC request object into known concrete command.
func (s *RPCServer) parseCmd(request *bsvjson.Request) *parsedRPCCmd {
	parsedCmd := parsedRPCCmd{
		id:     request.ID,
		method: request.Method,
	}

	cmd, err := bsvjson.UnmarshalCmd(request)
	if err != nil {
		var jerr bsvjson.Error
		if errors.As(err, &jerr) && jerr.ErrorCode == bsvjson.ErrUnregisteredMethod {
			parsedCmd.err = bsvjson.ErrRPCMethodNotFound
			return &parsedCmd
		}

		parsedCmd.err = bsvjson.NewRPCError(bsvjson.ErrRPCInvalidParams.Code, fmt.Sprintf("Failed to parse request: %v", err))

		return &parsedCmd
	}

	parsedCmd.cmd = cmd

	return &parsedCmd
}

// standardCmdResult checks that a parsed command is a known command and runs the appropriate
// handler to reply to the command.
func (s *RPCServer) standardCmdResult(ctx context.Context, cmd *parsedRPCCmd) (interface{}, error) {
	handler, ok := rpcHandlers[cmd.method]
	if !ok {
		return nil, bsvjson.ErrRPCMethodNotFound
	}

	return handler(ctx, s, cmd.cmd)
}

// createMarshalledReply returns a new marshalled JSON-RPC response given the passed parameters.
// It will automatically convert errors that are not of the type *bsvjson.RPCError to the
// appropriate type as needed.
func (s *RPCServer) createMarshalledReply(id, result interface{}, replyErr error) ([]byte, error) {
	var jsonErr *bsvjson.RPCError

	if replyErr != nil {
		if jErr, ok := replyErr.(*bsvjson.RPCError); ok {
			jsonErr = jErr
		} else {
			jsonErr = s.internalRPCError(replyErr.Error(), "")
		}

		if prometheusRequestErrors != nil {
			prometheusRequestErrors.WithLabelValues(errorCodeLabel(jsonErr.Code)).Inc()
		}
	}

	return bsvjson.MarshalResponse(id, result, jsonErr)
}

// processRequest parses a single request and returns its marshalled response, or nil for a
// notification.
func (s *RPCServer) processRequest(ctx context.Context, request *bsvjson.Request, isAdmin bool) []byte {
	var (
		result  interface{}
		jsonErr error
	)

	if !isAdmin {
		if _, ok := rpcLimited[request.Method]; !ok {
			jsonErr = rpcInvalidError("limited user not authorized for this method")
		}
	}

	if jsonErr == nil {
		if request.Method == "" {
			jsonErr = &bsvjson.RPCError{
				Code:    bsvjson.ErrRPCInvalidRequest.Code,
				Message: "Invalid request: malformed",
			}
		} else {
			// Valid requests with no ID (notifications) must not have a response.
			if request.ID == nil {
				return nil
			}

			parsedCmd := s.parseCmd(request)
			if parsedCmd.err != nil {
				jsonErr = parsedCmd.err
			} else {
				result, jsonErr = s.standardCmdResult(ctx, parsedCmd)
			}
		}
	}

	msg, err := s.createMarshalledReply(request.ID, result, jsonErr)
	if err != nil {
		s.logger.Errorf("[RPC] failed to marshal reply: %v", err)
		return nil
	}

	return msg
}

// jsonRPCRead handles reading and responding to RPC messages.
func (s *RPCServer) jsonRPCRead(w http.ResponseWriter, r *http.Request, isAdmin bool) {
	if atomic.LoadInt32(&s.shutdown) != 0 {
		http.Error(w, "503 server is shutting down", http.StatusServiceUnavailable)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, rpcReadLimit))
	_ = r.Body.Close()

	if err != nil {
		http.Error(w, fmt.Sprintf("%d error reading JSON message: %v", http.StatusBadRequest, err), http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	if timeout := s.settings.RPC.RPCTimeout; timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var msg []byte

	if bytes.HasPrefix(bytes.TrimSpace(body), batchedRequestPrefix) {
		msg = s.processBatch(ctx, body, isAdmin)
	} else {
		var req bsvjson.Request

		if err = json.Unmarshal(body, &req); err != nil {
			msg = s.parseErrorReply(err)
		} else {
			msg = s.processRequest(ctx, &req, isAdmin)
		}
	}

	if _, err = w.Write(msg); err != nil {
		s.logger.Errorf("[RPC] failed to write marshalled reply: %v", err)
		return
	}

	// Terminate with newline to maintain compatibility with Bitcoin Core.
	if _, err = w.Write([]byte{'\n'}); err != nil {
		s.logger.Errorf("[RPC] failed to append terminating newline to reply: %v", err)
	}
}

func (s *RPCServer) processBatch(ctx context.Context, body []byte, isAdmin bool) []byte {
	var batchedRequests []jsoniter.RawMessage

	if err := json.Unmarshal(body, &batchedRequests); err != nil {
		return s.parseErrorReply(err)
	}

	if len(batchedRequests) == 0 {
		resp, err := bsvjson.MarshalResponse(nil, nil, &bsvjson.RPCError{
			Code:    bsvjson.ErrRPCInvalidRequest.Code,
			Message: "Invalid request: empty batch",
		})
		if err != nil {
			s.logger.Errorf("[RPC] failed to marshal reply: %v", err)
		}

		return resp
	}

	results := make([][]byte, 0, len(batchedRequests))

	for _, entry := range batchedRequests {
		var req bsvjson.Request

		if err := json.Unmarshal(entry, &req); err != nil {
			resp, mErr := bsvjson.MarshalResponse(nil, nil, &bsvjson.RPCError{
				Code:    bsvjson.ErrRPCInvalidRequest.Code,
				Message: fmt.Sprintf("Invalid request: %v", err),
			})
			if mErr != nil {
				s.logger.Errorf("[RPC] failed to create reply: %v", mErr)
				continue
			}

			results = append(results, resp)

			continue
		}

		if resp := s.processRequest(ctx, &req, isAdmin); resp != nil {
			results = append(results, resp)
		}
	}

	var buffer bytes.Buffer

	buffer.WriteByte('[')
	buffer.Write(bytes.Join(results, []byte{','}))
	buffer.WriteByte(']')

	return buffer.Bytes()
}

func (s *RPCServer) parseErrorReply(err error) []byte {
	resp, mErr := bsvjson.MarshalResponse(nil, nil, &bsvjson.RPCError{
		Code:    bsvjson.ErrRPCParse.Code,
		Message: fmt.Sprintf("Failed to parse request: %v", err),
	})
	if mErr != nil {
		s.logger.Errorf("[RPC] failed to create reply: %v", mErr)
	}

	return resp
}

// internalRPCError is a convenience function to convert an internal error to an RPC error with
// the appropriate code set. It also logs the error to the RPC server subsystem since internal
// errors really should not occur.
func (s *RPCServer) internalRPCError(errStr, context string) *bsvjson.RPCError {
	logStr := errStr
	if context != "" {
		logStr = context + ": " + errStr
	}

	s.logger.Errorf("[RPC] %s", logStr)

	return bsvjson.NewRPCError(bsvjson.ErrRPCInternal.Code, errStr)
}

// jsonAuthFail sends a message back to the client if the http auth is rejected.
func jsonAuthFail(w http.ResponseWriter) {
	w.Header().Add("WWW-Authenticate", `Basic realm="minerid RPC"`)
	http.Error(w, "401 Unauthorized.", http.StatusUnauthorized)
}
