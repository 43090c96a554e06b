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

package meshstate

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
)

// Persisted network state.  Implementations hand out copies; callers mutate
// a node through UpdateNode, which applies the change atomically.
type Store interface {
	Node(id string) (*Node, error)
	Nodes() ([]*Node, error)
	AddNode(n *Node) error
	UpdateNode(id string, fn func(n *Node) error) error
	RemoveNode(id string) error

	AppKey(idx meshdefs.KeyIndex) (meshdefs.AppKey, error)
	PutAppKey(idx meshdefs.KeyIndex, key meshdefs.AppKey) error
}

type NodeNotFoundError struct {
	NodeId string
}

func (e *NodeNotFoundError) Error() string {
	return fmt.Sprintf("unknown node: \"%s\"", e.NodeId)
}

func IsNodeNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NodeNotFoundError)
	return ok
}

type AppKeyNotFoundError struct {
	Index meshdefs.KeyIndex
}

func (e *AppKeyNotFoundError) Error() string {
	return fmt.Sprintf("unknown app key index: %s", e.Index)
}

func IsAppKeyNotFound(err error) bool {
	_, ok := errors.Cause(err).(*AppKeyNotFoundError)
	return ok
}

// Keeps network state in memory.  Safe for concurrent use.
type MemStore struct {
	nodes   map[string]*Node
	appKeys map[meshdefs.KeyIndex]meshdefs.AppKey
	mtx     sync.Mutex
}

func NewMemStore() *MemStore {
	return &MemStore{
		nodes:   map[string]*Node{},
		appKeys: map[meshdefs.KeyIndex]meshdefs.AppKey{},
	}
}

func (s *MemStore) Node(id string) (*Node, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	n := s.nodes[id]
	if n == nil {
		return nil, &NodeNotFoundError{id}
	}
	return n.Copy(), nil
}

// Returns all nodes, sorted by ID.
func (s *MemStore) Nodes() ([]*Node, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	nodes := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, n.Copy())
	}
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].NodeId < nodes[j].NodeId
	})

	return nodes, nil
}

func (s *MemStore) AddNode(n *Node) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if n.NodeId == "" {
		return fmt.Errorf("node ID not specified")
	}
	if s.nodes[n.NodeId] != nil {
		return fmt.Errorf("node \"%s\" already exists", n.NodeId)
	}

	s.nodes[n.NodeId] = n.Copy()
	return nil
}

// Fetches the node, applies fn to a copy, and stores the copy back if fn
// succeeds.
func (s *MemStore) UpdateNode(id string, fn func(n *Node) error) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	n := s.nodes[id]
	if n == nil {
		return &NodeNotFoundError{id}
	}

	c := n.Copy()
	if err := fn(c); err != nil {
		return err
	}
	c.NodeId = id

	s.nodes[id] = c
	return nil
}

func (s *MemStore) RemoveNode(id string) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.nodes[id] == nil {
		return &NodeNotFoundError{id}
	}

	delete(s.nodes, id)
	return nil
}

func (s *MemStore) AppKey(idx meshdefs.KeyIndex) (meshdefs.AppKey, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	k, ok := s.appKeys[idx]
	if !ok {
		return k, &AppKeyNotFoundError{idx}
	}
	return k, nil
}

func (s *MemStore) PutAppKey(idx meshdefs.KeyIndex, key meshdefs.AppKey) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.appKeys[idx] = key
	return nil
}
