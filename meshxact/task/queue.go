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

package task

import (
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"
)

// A single event handled by the queue's loop.
type event struct {
	name string
	fn   func() error
	ch   chan error
}

func newEvent(name string, fn func() error) event {
	return event{
		name: name,
		fn:   fn,
		ch:   make(chan error, 1),
	}
}

func (ev event) finish(err error) {
	ev.ch <- err
	close(ev.ch)
}

// State of one Start..Stop cycle.  Senders register in senders before
// touching evCh so the loop can fail everything they leave behind.
type queueRun struct {
	evCh    chan event
	stopCh  chan struct{}
	senders sync.WaitGroup
	cause   error
}

// Runs events one at a time on a dedicated goroutine.  Everything that
// touches a configurator's state is funneled through one of these.
type EventQueue struct {
	name string
	mtx  sync.Mutex
	cur  *queueRun
	wg   sync.WaitGroup
}

func NewEventQueue(name string) *EventQueue {
	return &EventQueue{
		name: name,
	}
}

var InactiveError = fmt.Errorf("inactive event queue")

// Registers a sender with the running cycle.  The caller must call
// r.senders.Done() when it no longer touches r.evCh.
func (q *EventQueue) claim() *queueRun {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	if q.cur == nil {
		return nil
	}
	q.cur.senders.Add(1)
	return q.cur
}

// Pushes the named function onto the queue.  Its result is sent over the
// returned channel.  If the queue is not running, the channel immediately
// yields InactiveError; if the queue stops before the event runs, it
// yields the stop cause.  Blocks while the queue is full.
func (q *EventQueue) Enqueue(name string, fn func() error) chan error {
	ev := newEvent(name, fn)

	r := q.claim()
	if r == nil {
		ev.finish(InactiveError)
		return ev.ch
	}
	defer r.senders.Done()

	select {
	case r.evCh <- ev:
	case <-r.stopCh:
		ev.finish(r.cause)
	}

	return ev.ch
}

// Enqueues a function and discards its result.
func (q *EventQueue) Post(name string, fn func()) {
	q.Enqueue(name, func() error {
		fn()
		return nil
	})
}

// Like Post, but never blocks.  Returns false if the queue is full or not
// running; fn is then dropped.
func (q *EventQueue) TryPost(name string, fn func()) bool {
	ev := newEvent(name, func() error {
		fn()
		return nil
	})

	r := q.claim()
	if r == nil {
		return false
	}
	defer r.senders.Done()

	select {
	case <-r.stopCh:
		return false
	default:
	}

	select {
	case r.evCh <- ev:
		return true
	default:
		return false
	}
}

// Enqueues a function and waits for it to complete.
func (q *EventQueue) Run(name string, fn func() error) error {
	return <-q.Enqueue(name, fn)
}

func (q *EventQueue) Start(depth int) error {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	if q.cur != nil {
		return fmt.Errorf("event queue \"%s\" started twice", q.name)
	}

	r := &queueRun{
		evCh:   make(chan event, depth),
		stopCh: make(chan struct{}),
	}
	q.cur = r

	q.wg.Add(1)
	go q.loop(r)

	return nil
}

func (q *EventQueue) loop(r *queueRun) {
	defer q.wg.Done()

	for {
		select {
		case ev := <-r.evCh:
			select {
			case <-r.stopCh:
				ev.finish(r.cause)
				continue
			default:
			}

			log.Debugf("[%s] event: %s", q.name, ev.name)
			ev.finish(ev.fn())

		case <-r.stopCh:
			// No sender can reach evCh once they have all returned.
			r.senders.Wait()
			for {
				select {
				case ev := <-r.evCh:
					ev.finish(r.cause)
				default:
					return
				}
			}
		}
	}
}

// Stops the queue and fails every pending event with the specified error.
// Blocks until the loop exits; must not be called from within an event.
func (q *EventQueue) Stop(cause error) error {
	if err := q.StopNoWait(cause); err != nil {
		return err
	}

	q.wg.Wait()
	return nil
}

// Like Stop, but returns as soon as the stop has been initiated.
func (q *EventQueue) StopNoWait(cause error) error {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	if q.cur == nil {
		return fmt.Errorf("event queue \"%s\" stopped twice", q.name)
	}

	q.cur.cause = cause
	close(q.cur.stopCh)
	q.cur = nil

	return nil
}

func (q *EventQueue) Active() bool {
	q.mtx.Lock()
	defer q.mtx.Unlock()

	return q.cur != nil
}
