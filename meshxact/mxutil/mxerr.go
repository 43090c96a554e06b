/**
 * Licensed to the Apache Software Foundation (ASF) under one
 * or more contributor license agreements.  See the NOTICE file
 * distributed with this work for additional information
 * regarding copyright ownership.  The ASF licenses this file
 * to you under the Apache License, Version 2.0 (the
 * "License"); you may not use this file except in compliance
 * with the License.  You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package mxutil

import (
	"fmt"

	"github.com/pkg/errors"
)

// A required configurator field was not set before execution.
type PreconditionUnsetError struct {
	Field string
}

func NewPreconditionUnsetError(field string) *PreconditionUnsetError {
	return &PreconditionUnsetError{
		Field: field,
	}
}

func (e *PreconditionUnsetError) Error() string {
	return fmt.Sprintf("required field not set: %s", e.Field)
}

func IsPreconditionUnset(err error) bool {
	_, ok := errors.Cause(err).(*PreconditionUnsetError)
	return ok
}

// A status PDU carried an opcode with no known decoder.
type UnknownOpcodeError struct {
	Opcode uint8
}

func NewUnknownOpcodeError(op uint8) *UnknownOpcodeError {
	return &UnknownOpcodeError{
		Opcode: op,
	}
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("unknown status opcode: 0x%02x", e.Opcode)
}

func IsUnknownOpcode(err error) bool {
	_, ok := errors.Cause(err).(*UnknownOpcodeError)
	return ok
}

// A PDU's length does not match the fixed layout for its opcode.
type MalformedPayloadError struct {
	Opcode uint8
	Len    int
	Text   string
}

func NewMalformedPayloadError(op uint8, length int,
	text string) *MalformedPayloadError {

	return &MalformedPayloadError{
		Opcode: op,
		Len:    length,
		Text:   text,
	}
}

func FmtMalformedPayloadError(op uint8, length int, format string,
	args ...interface{}) *MalformedPayloadError {

	return NewMalformedPayloadError(op, length, fmt.Sprintf(format, args...))
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed payload; opcode=0x%02x len=%d: %s",
		e.Opcode, e.Len, e.Text)
}

func IsMalformedPayload(err error) bool {
	_, ok := errors.Cause(err).(*MalformedPayloadError)
	return ok
}

// A SAR start segment arrived while a reassembly was in progress.  The
// partial buffer has been discarded; this is reported as a warning only.
type BufferResetError struct {
	Discarded int
}

func NewBufferResetError(discarded int) *BufferResetError {
	return &BufferResetError{
		Discarded: discarded,
	}
}

func (e *BufferResetError) Error() string {
	return fmt.Sprintf("unexpected SAR start; discarded %d buffered bytes",
		e.Discarded)
}

func IsBufferReset(err error) bool {
	_, ok := errors.Cause(err).(*BufferResetError)
	return ok
}

// A single write would exceed the transport's maximum write length.
type XportTooLargeError struct {
	Len int
	Mtu int
}

func NewXportTooLargeError(length int, mtu int) *XportTooLargeError {
	return &XportTooLargeError{
		Len: length,
		Mtu: mtu,
	}
}

func (e *XportTooLargeError) Error() string {
	return fmt.Sprintf("transport write too large: len=%d mtu=%d",
		e.Len, e.Mtu)
}

func IsXportTooLarge(err error) bool {
	_, ok := errors.Cause(err).(*XportTooLargeError)
	return ok
}

// Represents an exchange timeout; request sent, but no status received.
type RspTimeoutError struct {
	Text string
}

func NewRspTimeoutError(text string) *RspTimeoutError {
	return &RspTimeoutError{
		Text: text,
	}
}

func FmtRspTimeoutError(format string, args ...interface{}) *RspTimeoutError {
	return NewRspTimeoutError(fmt.Sprintf(format, args...))
}

func (e *RspTimeoutError) Error() string {
	return e.Text
}

func IsRspTimeout(err error) bool {
	_, ok := errors.Cause(err).(*RspTimeoutError)
	return ok
}

type SesnAlreadyOpenError struct {
	Text string
}

func NewSesnAlreadyOpenError(text string) *SesnAlreadyOpenError {
	return &SesnAlreadyOpenError{
		Text: text,
	}
}

func (e *SesnAlreadyOpenError) Error() string {
	return e.Text
}

func IsSesnAlreadyOpen(err error) bool {
	_, ok := errors.Cause(err).(*SesnAlreadyOpenError)
	return ok
}

type SesnClosedError struct {
	Text string
}

func NewSesnClosedError(text string) *SesnClosedError {
	return &SesnClosedError{
		Text: text,
	}
}

func (e *SesnClosedError) Error() string {
	return e.Text
}

func IsSesnClosed(err error) bool {
	_, ok := errors.Cause(err).(*SesnClosedError)
	return ok
}

// The node does not hold the AppKey a request refers to.
type UnknownAppKeyError struct {
	Index uint16
	Node  string
}

func NewUnknownAppKeyError(index uint16, node string) *UnknownAppKeyError {
	return &UnknownAppKeyError{
		Index: index,
		Node:  node,
	}
}

func (e *UnknownAppKeyError) Error() string {
	return fmt.Sprintf("AppKey 0x%04x has not been added to node \"%s\"",
		e.Index, e.Node)
}

func IsUnknownAppKey(err error) bool {
	_, ok := errors.Cause(err).(*UnknownAppKeyError)
	return ok
}

// A configurator instance was executed more than once.
type AlreadyExecutedError struct {
	Text string
}

func NewAlreadyExecutedError(text string) *AlreadyExecutedError {
	return &AlreadyExecutedError{text}
}

func (e *AlreadyExecutedError) Error() string {
	return e.Text
}

func IsAlreadyExecuted(err error) bool {
	_, ok := errors.Cause(err).(*AlreadyExecutedError)
	return ok
}

// Represents a low-level transport error.
type XportError struct {
	Text string
}

func NewXportError(text string) *XportError {
	return &XportError{text}
}

func FmtXportError(format string, args ...interface{}) *XportError {
	return NewXportError(fmt.Sprintf(format, args...))
}

func (e *XportError) Error() string {
	return e.Text
}

func IsXport(err error) bool {
	if err == nil {
		return false
	}

	_, ok := errors.Cause(err).(*XportError)
	return ok
}
