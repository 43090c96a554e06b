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
	"sync"
)

type gateWaiter struct {
	c     chan error
	token interface{}
}

// Admits one exchange at a time.  Waiters are admitted in the order they
// arrived.
type ExchangeGate struct {
	held    bool
	waiters []gateWaiter
	mtx     sync.Mutex
}

// Blocks until the gate is free or the wait is cancelled via StopWaiting or
// Abort.  The token identifies the waiter for StopWaiting.
func (g *ExchangeGate) Acquire(token interface{}) error {
	g.mtx.Lock()

	if !g.held {
		g.held = true
		g.mtx.Unlock()
		return nil
	}

	w := gateWaiter{
		c:     make(chan error, 1),
		token: token,
	}
	g.waiters = append(g.waiters, w)

	g.mtx.Unlock()

	return <-w.c
}

// Passes the gate to the next waiter, if any.
// @return                      true if a waiter took over the gate;
//                              false if the gate is now free.
func (g *ExchangeGate) Release() bool {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	if !g.held {
		panic("ExchangeGate release without acquire")
	}

	if len(g.waiters) == 0 {
		g.held = false
		return false
	}

	w := g.waiters[0]
	g.waiters = g.waiters[1:]
	w.c <- nil

	return true
}

func (g *ExchangeGate) StopWaiting(token interface{}, err error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	for i, w := range g.waiters {
		if w.token == token {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			w.c <- err
			return
		}
	}
}

// Fails every pending waiter with the specified error.  The current holder
// is unaffected.
func (g *ExchangeGate) Abort(err error) {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	for _, w := range g.waiters {
		w.c <- err
	}
	g.waiters = nil
}

func (g *ExchangeGate) Held() bool {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	return g.held
}

func (g *ExchangeGate) NumWaiters() int {
	g.mtx.Lock()
	defer g.mtx.Unlock()

	return len(g.waiters)
}
