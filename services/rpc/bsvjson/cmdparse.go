// Copyright (c) 2014 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bsvjson

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// command is implemented by every registered command type. Params are positional.
type command interface {
	method() string
	params() []interface{}
	setParams(params []json.RawMessage) error
}

type methodInfo struct {
	numReqParams int
	numOptParams int
	usage        string
	help         string
	newCmd       func() command
}

var (
	registerLock sync.RWMutex
	methodToInfo = make(map[string]methodInfo)
)

// mustRegisterCmd registers a command for method. It panics when method is registered twice,
// which only happens through a programming error in the init functions of this package.
func mustRegisterCmd(method string, numReqParams, numOptParams int, usage, help string, newCmd func() command) {
	registerLock.Lock()
	defer registerLock.Unlock()

	if _, ok := methodToInfo[method]; ok {
		panic(makeError(ErrDuplicateMethod, fmt.Sprintf("method %q is already registered", method)))
	}

	if help == "" {
		panic(makeError(ErrMissingDescription, fmt.Sprintf("method %q has no description", method)))
	}

	methodToInfo[method] = methodInfo{
		numReqParams: numReqParams,
		numOptParams: numOptParams,
		usage:        usage,
		help:         help,
		newCmd:       newCmd,
	}
}

// RegisteredCmdMethods returns a sorted list of methods for all registered commands.
func RegisteredCmdMethods() []string {
	registerLock.RLock()
	defer registerLock.RUnlock()

	methods := make([]string, 0, len(methodToInfo))
	for method := range methodToInfo {
		methods = append(methods, method)
	}

	sort.Strings(methods)

	return methods
}

// MethodUsageText returns a one-line usage string for method.
func MethodUsageText(method string) (string, error) {
	info, err := lookup(method)
	if err != nil {
		return "", err
	}

	return info.usage, nil
}

// MethodHelp returns the usage line followed by the description of method.
func MethodHelp(method string) (string, error) {
	info, err := lookup(method)
	if err != nil {
		return "", err
	}

	return info.usage + "\n\n" + info.help, nil
}

// UnmarshalCmd unmarshals a JSON-RPC request into a suitable concrete command so long as the
// method type contained within the marshalled request is registered.
func UnmarshalCmd(r *Request) (interface{}, error) {
	info, err := lookup(r.Method)
	if err != nil {
		return nil, err
	}

	numParams := len(r.Params)
	if numParams < info.numReqParams || numParams > info.numReqParams+info.numOptParams {
		var str string

		if info.numOptParams == 0 {
			str = fmt.Sprintf("wrong number of params (expected %d, received %d)", info.numReqParams, numParams)
		} else {
			str = fmt.Sprintf("wrong number of params (expected between %d and %d, received %d)",
				info.numReqParams, info.numReqParams+info.numOptParams, numParams)
		}

		return nil, makeError(ErrNumParams, str)
	}

	cmd := info.newCmd()
	if err = cmd.setParams(r.Params); err != nil {
		return nil, err
	}

	return cmd, nil
}

// NewCmd provides a generic mechanism to create a new command that can marshal to a JSON-RPC
// request while respecting the requirements of the provided method.
func NewCmd(method string, args ...interface{}) (interface{}, error) {
	request, err := NewRequest(1, method, args)
	if err != nil {
		return nil, err
	}

	return UnmarshalCmd(request)
}

// MarshalCmd marshals the passed command to a JSON-RPC request byte slice that is suitable for
// transmission to an RPC server.
func MarshalCmd(id interface{}, cmd interface{}) ([]byte, error) {
	c, ok := cmd.(command)
	if !ok {
		return nil, makeError(ErrUnregisteredMethod, fmt.Sprintf("%T is not a registered command", cmd))
	}

	request, err := NewRequest(id, c.method(), c.params())
	if err != nil {
		return nil, err
	}

	return jsonAPI.Marshal(request)
}

func lookup(method string) (methodInfo, error) {
	registerLock.RLock()
	defer registerLock.RUnlock()

	info, ok := methodToInfo[method]
	if !ok {
		return methodInfo{}, makeError(ErrUnregisteredMethod, fmt.Sprintf("%q is not registered", method))
	}

	return info, nil
}

// unmarshalParam decodes the positional param at index into target.
func unmarshalParam(params []json.RawMessage, index int, name, kind string, target interface{}) error {
	if index >= len(params) {
		return nil
	}

	if err := jsonAPI.Unmarshal(params[index], target); err != nil {
		return makeError(ErrInvalidType, fmt.Sprintf("parameter #%d '%s' must be type %s", index+1, name, kind))
	}

	return nil
}
