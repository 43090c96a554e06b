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

// Package xporttest provides an in-memory transport for exercising sessions
// and configurators without a radio.
package xporttest

import (
	"fmt"
	"sync"

	"mynewt.apache.org/meshmgr/meshxact/xport"
)

// Records every write and lets the test inject inbound chunks.
type FakeXport struct {
	Mtu int

	// If set, Tx fails with this error.
	TxErr error

	// If set, called after each successful write (outside the lock).
	OnTx func(f *FakeXport, b []byte)

	rx     xport.RxFn
	writes [][]byte
	rsps   []bool
	mtx    sync.Mutex
}

func NewFakeXport(mtu int) *FakeXport {
	return &FakeXport{Mtu: mtu}
}

func (f *FakeXport) Start(rx xport.RxFn) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	if f.rx != nil {
		return fmt.Errorf("fake transport already started")
	}
	f.rx = rx
	return nil
}

func (f *FakeXport) Stop() error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	if f.rx == nil {
		return fmt.Errorf("fake transport not started")
	}
	f.rx = nil
	return nil
}

func (f *FakeXport) Tx(b []byte, rsp bool) error {
	f.mtx.Lock()
	if f.TxErr != nil {
		f.mtx.Unlock()
		return f.TxErr
	}

	c := make([]byte, len(b))
	copy(c, b)
	f.writes = append(f.writes, c)
	f.rsps = append(f.rsps, rsp)
	cb := f.OnTx
	f.mtx.Unlock()

	if cb != nil {
		cb(f, c)
	}
	return nil
}

func (f *FakeXport) MaxWriteLen() int {
	return f.Mtu
}

// Delivers an inbound chunk as though the remote node sent it.
func (f *FakeXport) Inject(b []byte) {
	f.mtx.Lock()
	rx := f.rx
	f.mtx.Unlock()

	if rx != nil {
		rx(b)
	}
}

func (f *FakeXport) Writes() [][]byte {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	return append([][]byte(nil), f.writes...)
}

func (f *FakeXport) WriteRsps() []bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	return append([]bool(nil), f.rsps...)
}

func (f *FakeXport) Started() bool {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	return f.rx != nil
}
