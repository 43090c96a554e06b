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
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCause(t *testing.T) {
	err := errors.Wrap(NewRspTimeoutError("no status"), "pubset")
	assert.True(t, IsRspTimeout(err))
	assert.False(t, IsXport(err))
	assert.False(t, IsXport(nil))

	err = errors.Wrapf(NewMalformedPayloadError(0x04, 3, "short"), "rx")
	assert.True(t, IsMalformedPayload(err))
	assert.Contains(t, err.Error(), "opcode=0x04 len=3")

	assert.True(t, IsUnknownOpcode(NewUnknownOpcodeError(0x7e)))
	assert.True(t, IsPreconditionUnset(NewPreconditionUnsetError("ttl")))
	assert.True(t, IsBufferReset(NewBufferResetError(19)))
	assert.True(t, IsXportTooLarge(NewXportTooLargeError(30, 20)))
	assert.True(t, IsUnknownAppKey(NewUnknownAppKeyError(1, "lamp")))
	assert.True(t, IsAlreadyExecuted(NewAlreadyExecutedError("x")))
	assert.True(t, IsSesnClosed(NewSesnClosedError("x")))
	assert.True(t, IsSesnAlreadyOpen(NewSesnAlreadyOpenError("x")))
}

func TestGateFifo(t *testing.T) {
	g := ExchangeGate{}
	require.NoError(t, g.Acquire(0))
	assert.True(t, g.Held())

	order := make(chan int, 2)
	for i := 1; i <= 2; i++ {
		i := i
		go func() {
			if err := g.Acquire(i); err == nil {
				order <- i
			}
		}()

		// Ensure the waiters queue in a known order.
		require.Eventually(t, func() bool {
			return g.NumWaiters() == i
		}, time.Second, time.Millisecond)
	}

	assert.True(t, g.Release())
	assert.Equal(t, 1, <-order)

	assert.True(t, g.Release())
	assert.Equal(t, 2, <-order)

	assert.False(t, g.Release())
	assert.False(t, g.Held())
}

func TestGateStopWaiting(t *testing.T) {
	g := ExchangeGate{}
	require.NoError(t, g.Acquire("a"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- g.Acquire("b")
	}()
	require.Eventually(t, func() bool {
		return g.NumWaiters() == 1
	}, time.Second, time.Millisecond)

	g.StopWaiting("b", NewRspTimeoutError("gave up"))
	assert.True(t, IsRspTimeout(<-errCh))
	assert.Equal(t, 0, g.NumWaiters())

	go func() {
		errCh <- g.Acquire("c")
	}()
	require.Eventually(t, func() bool {
		return g.NumWaiters() == 1
	}, time.Second, time.Millisecond)

	g.Abort(NewSesnClosedError("closed"))
	assert.True(t, IsSesnClosed(<-errCh))
	assert.True(t, g.Held())
}
