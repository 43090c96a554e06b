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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueSerial(t *testing.T) {
	q := NewEventQueue("test")
	require.NoError(t, q.Start(16))
	defer q.Stop(nil)

	var seen []int
	var chs []chan error
	for i := 0; i < 10; i++ {
		i := i
		chs = append(chs, q.Enqueue("append", func() error {
			seen = append(seen, i)
			return nil
		}))
	}
	for _, ch := range chs {
		assert.NoError(t, <-ch)
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, seen)

	err := q.Run("fail", func() error { return fmt.Errorf("boom") })
	assert.EqualError(t, err, "boom")
}

func TestQueueInactive(t *testing.T) {
	q := NewEventQueue("idle")
	assert.False(t, q.Active())
	assert.Equal(t, InactiveError, q.Run("x", func() error { return nil }))

	require.NoError(t, q.Start(1))
	assert.Error(t, q.Start(1))
	assert.True(t, q.Active())

	require.NoError(t, q.Stop(fmt.Errorf("stopped")))
	assert.Error(t, q.Stop(nil))
	assert.Equal(t, InactiveError, q.Run("x", func() error { return nil }))
}

func TestQueueStopFailsPending(t *testing.T) {
	q := NewEventQueue("blocked")
	require.NoError(t, q.Start(4))

	release := make(chan struct{})
	started := make(chan struct{})
	q.Post("block", func() {
		close(started)
		<-release
	})
	<-started

	pending := q.Enqueue("pending", func() error { return nil })

	cause := fmt.Errorf("closing")
	require.NoError(t, q.StopNoWait(cause))
	close(release)

	assert.Equal(t, cause, <-pending)
}

func TestQueueStopWhileFull(t *testing.T) {
	q := NewEventQueue("full")
	require.NoError(t, q.Start(1))

	release := make(chan struct{})
	started := make(chan struct{})
	q.Post("block", func() {
		close(started)
		<-release
	})
	<-started

	// Fills the buffer.
	queued := q.Enqueue("queued", func() error { return nil })

	blocked := make(chan chan error)
	go func() {
		blocked <- q.Enqueue("blocked", func() error { return nil })
	}()

	// The sender is stuck on the full queue, but stopping must not wait
	// for it.
	time.Sleep(20 * time.Millisecond)
	cause := fmt.Errorf("closing")
	stopped := make(chan error)
	go func() { stopped <- q.StopNoWait(cause) }()

	select {
	case err := <-stopped:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("stop blocked behind a full queue")
	}

	select {
	case ch := <-blocked:
		err := <-ch
		assert.True(t, err == cause || err == InactiveError, "err=%v", err)
	case <-time.After(time.Second):
		t.Fatal("sender not released by stop")
	}

	close(release)
	assert.Equal(t, cause, <-queued)
	q.wg.Wait()
}

func TestQueueTryPost(t *testing.T) {
	q := NewEventQueue("try")
	assert.False(t, q.TryPost("idle", func() {}))

	require.NoError(t, q.Start(1))

	release := make(chan struct{})
	started := make(chan struct{})
	require.True(t, q.TryPost("block", func() {
		close(started)
		<-release
	}))
	<-started

	ran := make(chan struct{})
	assert.True(t, q.TryPost("queued", func() { close(ran) }))
	assert.False(t, q.TryPost("dropped", func() {
		t.Error("dropped event ran")
	}))

	close(release)
	<-ran

	require.NoError(t, q.Stop(nil))
	assert.False(t, q.TryPost("stopped", func() {}))
}
