// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Hearthwire

package otgw

import (
	"errors"
	"fmt"
)

// ProtocolError is one of the two-letter error codes the gateway returns in
// response to a command. It is surfaced to the Issue caller only after the
// command's retries are exhausted.
type ProtocolError struct {
	Code   string
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

var (
	// ErrNoGood indicates an unknown or unsupported command code.
	ErrNoGood = &ProtocolError{"NG", "the command code is unknown or unsupported on this version of the gateway"}
	// ErrSyntax indicates a malformed or incomplete command.
	ErrSyntax = &ProtocolError{"SE", "the command contained an unexpected character or was incomplete"}
	// ErrBadValue indicates a data value that is not allowed or unsupported.
	ErrBadValue = &ProtocolError{"BV", "the command contained a data value that is not allowed or not supported"}
	// ErrOutOfRange indicates a number outside of the allowed range.
	ErrOutOfRange = &ProtocolError{"OR", "a number was specified outside of the allowed range"}
	// ErrNoSpace indicates the alternative Data-ID table is full.
	ErrNoSpace = &ProtocolError{"NS", "the alternative Data-ID could not be added because the table is full"}
	// ErrNotFound indicates a Data-ID missing from the alternative table.
	ErrNotFound = &ProtocolError{"NF", "the specified alternative Data-ID does not exist in the table"}
	// ErrOverrun indicates the gateway processor dropped received characters.
	ErrOverrun = &ProtocolError{"OE", "the processor was busy and failed to process all received characters"}
	// ErrMPC indicates a miscellaneous protocol or communication error.
	ErrMPC = &ProtocolError{"MPC", "miscellaneous protocol or communication error"}
)

// protocolErrors maps the wire error vocabulary onto typed errors.
var protocolErrors = map[string]*ProtocolError{
	ErrNoGood.Code:     ErrNoGood,
	ErrSyntax.Code:     ErrSyntax,
	ErrBadValue.Code:   ErrBadValue,
	ErrOutOfRange.Code: ErrOutOfRange,
	ErrNoSpace.Code:    ErrNoSpace,
	ErrNotFound.Code:   ErrNotFound,
	ErrOverrun.Code:    ErrOverrun,
	ErrMPC.Code:        ErrMPC,
}

// ErrNotConnected is returned by Issue and the Gateway convenience methods
// when no connection to the gateway exists. It is a benign signal, not a
// failure: a command issued while disconnected is simply not sent.
var ErrNotConnected = errors.New("not connected to the gateway")

// ErrNeverConnected is returned by Reconnect when no previous Connect has
// recorded an address to reconnect to.
var ErrNeverConnected = errors.New("reconnect called before connect")
