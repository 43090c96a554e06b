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
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/meshmgr/meshxact/mxutil"
	"mynewt.apache.org/meshmgr/meshxact/task"
	"mynewt.apache.org/meshmgr/meshxact/xport"
)

// Receives inbound chunks on behalf of the exchange holding the session.
type RxHandler func(b []byte)

// A connection to a mesh proxy node.  A session carries at most one
// configuration exchange at a time.  Inbound chunks, timers and exchange
// steps all run on the session's event queue, one at a time.
type Sesn struct {
	cfg     SesnCfg
	x       xport.Xport
	q       *task.EventQueue
	gate    mxutil.ExchangeGate
	rxh     RxHandler
	open    bool
	closeCh chan struct{}
	mtx     sync.Mutex
}

func NewSesn(x xport.Xport, cfg SesnCfg) *Sesn {
	return &Sesn{
		cfg: cfg,
		x:   x,
		q:   task.NewEventQueue(cfg.Name),
	}
}

// Starts the event queue and the underlying transport.
// Returns:
//   - nil: success.
//   - mxutil.SesnAlreadyOpenError: session already open.
//   - other error
func (s *Sesn) Open() error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.open {
		return mxutil.NewSesnAlreadyOpenError(
			"attempt to open an already-open mesh session")
	}

	depth := s.cfg.QueueDepth
	if depth <= 0 {
		depth = 1
	}
	if err := s.q.Start(depth); err != nil {
		return err
	}

	if err := s.x.Start(s.onRx); err != nil {
		s.q.Stop(err)
		return errors.Wrapf(err, "failed to open session \"%s\"", s.cfg.Name)
	}

	s.open = true
	s.closeCh = make(chan struct{})
	return nil
}

// Stops the transport and fails any exchange waiting for the session.
// Must not be called from within the event queue.
// Returns:
//   - nil: success.
//   - mxutil.SesnClosedError: session not open.
//   - other error
func (s *Sesn) Close() error {
	s.mtx.Lock()
	if !s.open {
		s.mtx.Unlock()
		return mxutil.NewSesnClosedError(
			"attempt to close an unopened mesh session")
	}
	s.open = false
	s.rxh = nil
	closeCh := s.closeCh
	s.mtx.Unlock()

	cause := mxutil.NewSesnClosedError(
		fmt.Sprintf("mesh session \"%s\" closed", s.cfg.Name))

	xerr := s.x.Stop()
	s.gate.Abort(cause)
	s.q.Stop(cause)
	close(closeCh)

	if s.cfg.OnCloseCb != nil {
		s.cfg.OnCloseCb(s, xerr)
	}

	if xerr != nil {
		return errors.Wrap(xerr, "failed to stop transport")
	}
	return nil
}

// Returns a channel that is closed when the session closes.  The event
// queue has stopped by the time the channel closes.
func (s *Sesn) CloseChan() <-chan struct{} {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.closeCh
}

func (s *Sesn) IsOpen() bool {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	return s.open
}

// Maximum length of a single outgoing chunk.
func (s *Sesn) MtuOut() int {
	return s.x.MaxWriteLen()
}

// Writes one chunk to the transport.
func (s *Sesn) TxRaw(b []byte) error {
	if !s.IsOpen() {
		return mxutil.NewSesnClosedError(
			"attempt to transmit over closed mesh session")
	}

	if len(b) > s.MtuOut() {
		return mxutil.NewXportTooLargeError(len(b), s.MtuOut())
	}

	mxutil.LogChunk("tx", b)
	return s.x.Tx(b, s.cfg.WriteRsp)
}

// Runs fn on the event queue after the specified delay.  The returned
// function cancels the timer if it has not yet fired.
func (s *Sesn) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, func() {
		s.q.Post("timer", fn)
	})

	return func() { t.Stop() }
}

// Runs fn on the event queue and waits for it to complete.
func (s *Sesn) Run(name string, fn func() error) error {
	return s.q.Run(name, fn)
}

// Waits for the session to become free and directs inbound chunks to rx.
// The token identifies the caller for StopWaiting.
func (s *Sesn) AcquireExchange(token interface{}, rx RxHandler) error {
	if !s.IsOpen() {
		return mxutil.NewSesnClosedError(
			"attempt to start exchange on closed mesh session")
	}

	if err := s.gate.Acquire(token); err != nil {
		return err
	}

	s.mtx.Lock()
	s.rxh = rx
	s.mtx.Unlock()

	return nil
}

func (s *Sesn) ReleaseExchange() {
	s.mtx.Lock()
	s.rxh = nil
	s.mtx.Unlock()

	s.gate.Release()
}

// Abandons an AcquireExchange call that is still waiting.
func (s *Sesn) StopWaiting(token interface{}, err error) {
	s.gate.StopWaiting(token, err)
}

func (s *Sesn) onRx(b []byte) {
	mxutil.LogChunk("rx", b)

	s.mtx.Lock()
	rx := s.rxh
	s.mtx.Unlock()

	if rx == nil {
		log.Debugf("[%s] no exchange in progress; dropping %d bytes",
			s.cfg.Name, len(b))
		return
	}

	chunk := make([]byte, len(b))
	copy(chunk, b)
	if !s.q.TryPost("rx", func() { rx(chunk) }) {
		log.Warnf("[%s] event queue full or stopped; dropping %d bytes",
			s.cfg.Name, len(b))
	}
}
