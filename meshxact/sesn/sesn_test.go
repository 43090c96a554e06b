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

package sesn

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mynewt.apache.org/meshmgr/meshxact/mxutil"
	"mynewt.apache.org/meshmgr/meshxact/xport/xporttest"
)

func openSesn(t *testing.T, x *xporttest.FakeXport) *Sesn {
	s := NewSesn(x, NewSesnCfg())
	require.NoError(t, s.Open())
	return s
}

func TestOpenClose(t *testing.T) {
	x := xporttest.NewFakeXport(20)

	closed := make(chan struct{})
	cfg := NewSesnCfg()
	cfg.OnCloseCb = func(s *Sesn, err error) {
		close(closed)
	}
	s := NewSesn(x, cfg)

	require.NoError(t, s.Open())
	assert.True(t, s.IsOpen())
	assert.True(t, x.Started())
	assert.True(t, mxutil.IsSesnAlreadyOpen(s.Open()))

	require.NoError(t, s.Close())
	<-closed
	assert.False(t, s.IsOpen())
	assert.False(t, x.Started())
	assert.True(t, mxutil.IsSesnClosed(s.Close()))
	assert.True(t, mxutil.IsSesnClosed(s.TxRaw([]byte{0x00})))
}

func TestTxRaw(t *testing.T) {
	x := xporttest.NewFakeXport(4)
	cfg := NewSesnCfg()
	cfg.WriteRsp = true
	s := NewSesn(x, cfg)
	require.NoError(t, s.Open())
	defer s.Close()

	assert.Equal(t, 4, s.MtuOut())
	require.NoError(t, s.TxRaw([]byte{0x00, 0x01}))
	assert.Equal(t, [][]byte{{0x00, 0x01}}, x.Writes())
	assert.Equal(t, []bool{true}, x.WriteRsps())

	err := s.TxRaw([]byte{0, 1, 2, 3, 4})
	assert.True(t, mxutil.IsXportTooLarge(err))

	x.TxErr = fmt.Errorf("link down")
	assert.EqualError(t, s.TxRaw([]byte{0x00}), "link down")
}

func TestRxRouting(t *testing.T) {
	x := xporttest.NewFakeXport(20)
	s := openSesn(t, x)
	defer s.Close()

	// No exchange; dropped.
	x.Inject([]byte{0x00, 0x01})

	rxCh := make(chan []byte, 4)
	require.NoError(t, s.AcquireExchange(1, func(b []byte) {
		rxCh <- b
	}))

	buf := []byte{0x00, 0x07, 0x00, 0x02}
	x.Inject(buf)
	buf[1] = 0xff

	select {
	case b := <-rxCh:
		assert.Equal(t, []byte{0x00, 0x07, 0x00, 0x02}, b)
	case <-time.After(time.Second):
		t.Fatal("chunk not delivered")
	}

	s.ReleaseExchange()
	x.Inject([]byte{0x00})
	require.NoError(t, s.Run("sync", func() error { return nil }))
	assert.Len(t, rxCh, 0)
}

func TestRxQueueFull(t *testing.T) {
	x := xporttest.NewFakeXport(20)
	cfg := NewSesnCfg()
	cfg.QueueDepth = 1
	s := NewSesn(x, cfg)
	require.NoError(t, s.Open())
	defer s.Close()

	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var got [][]byte
	require.NoError(t, s.AcquireExchange(1, func(b []byte) {
		got = append(got, b)
		started <- struct{}{}
		<-release
	}))

	x.Inject([]byte{0x01})
	<-started
	x.Inject([]byte{0x02})

	// The handler is busy and the queue is full; the transport is not
	// held up.
	done := make(chan struct{})
	go func() {
		x.Inject([]byte{0x03})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("rx blocked on a full queue")
	}

	close(release)
	require.NoError(t, s.Run("sync", func() error { return nil }))
	assert.Equal(t, [][]byte{{0x01}, {0x02}}, got)
}

func TestAfterFunc(t *testing.T) {
	s := openSesn(t, xporttest.NewFakeXport(20))
	defer s.Close()

	fired := make(chan struct{})
	s.AfterFunc(time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer did not fire")
	}

	cancelled := make(chan struct{}, 1)
	cancel := s.AfterFunc(time.Hour, func() { cancelled <- struct{}{} })
	cancel()
	assert.Len(t, cancelled, 0)
}

func TestExchangeGate(t *testing.T) {
	s := openSesn(t, xporttest.NewFakeXport(20))

	require.NoError(t, s.AcquireExchange("a", func([]byte) {}))

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.AcquireExchange("b", func([]byte) {})
	}()

	require.Eventually(t, func() bool {
		return s.gate.NumWaiters() == 1
	}, time.Second, time.Millisecond)

	require.NoError(t, s.Close())
	assert.True(t, mxutil.IsSesnClosed(<-errCh))

	err := s.AcquireExchange("c", nil)
	assert.True(t, mxutil.IsSesnClosed(err))
}

func TestTxOptions(t *testing.T) {
	opt := NewTxOptions()
	assert.Equal(t, 10*time.Second, opt.Timeout)
	assert.Equal(t, 1, opt.Tries)

	opt.Timeout = 0
	assert.Nil(t, opt.AfterTimeout())
}
