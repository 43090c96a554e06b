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
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"

	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
)

const DfltStateFilename = ".meshmgr_state.json"

func DfltStatePath() (string, error) {
	dir, err := homedir.Dir()
	if err != nil {
		return "", errors.Wrap(err, "locating home directory")
	}

	return filepath.Join(dir, DfltStateFilename), nil
}

type appKeyEntry struct {
	Index meshdefs.KeyIndex `codec:"index"`
	Key   []byte            `codec:"key"`
}

// On-disk layout of the state file.
type stateFile struct {
	Nodes   []*Node       `codec:"nodes"`
	AppKeys []appKeyEntry `codec:"app_keys"`
}

// A MemStore that writes itself to a JSON file after every change.
type FileStore struct {
	*MemStore
	path string
}

func jsonHandle() *codec.JsonHandle {
	jh := &codec.JsonHandle{}
	jh.Indent = 4
	return jh
}

// Opens the state file at path.  A missing file yields an empty store.
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		MemStore: NewMemStore(),
		path:     path,
	}

	if err := fs.load(); err != nil {
		return nil, err
	}

	return fs, nil
}

func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) load() error {
	log.Debugf("Reading mesh state from %s", fs.path)

	blob, err := ioutil.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "reading mesh state")
	}

	var sf stateFile
	dec := codec.NewDecoderBytes(blob, jsonHandle())
	if err := dec.Decode(&sf); err != nil {
		return errors.Wrapf(err, "error reading mesh state (%s)", fs.path)
	}

	fs.mtx.Lock()
	defer fs.mtx.Unlock()

	for _, n := range sf.Nodes {
		fs.nodes[n.NodeId] = n
	}
	for _, e := range sf.AppKeys {
		var k meshdefs.AppKey
		if len(e.Key) != len(k) {
			return errors.Errorf("app key %s has invalid length %d",
				e.Index, len(e.Key))
		}
		copy(k[:], e.Key)
		fs.appKeys[e.Index] = k
	}

	return nil
}

func (fs *FileStore) save() error {
	nodes, _ := fs.MemStore.Nodes()
	sf := stateFile{
		Nodes: nodes,
	}

	fs.mtx.Lock()
	for idx, k := range fs.appKeys {
		key := k
		sf.AppKeys = append(sf.AppKeys, appKeyEntry{idx, key[:]})
	}
	fs.mtx.Unlock()

	var b []byte
	enc := codec.NewEncoderBytes(&b, jsonHandle())
	if err := enc.Encode(sf); err != nil {
		return errors.Wrap(err, "encoding mesh state")
	}

	tmp := fs.path + ".tmp"
	if err := ioutil.WriteFile(tmp, b, 0600); err != nil {
		return errors.Wrap(err, "writing mesh state")
	}
	if err := os.Rename(tmp, fs.path); err != nil {
		return errors.Wrap(err, "writing mesh state")
	}

	return nil
}

func (fs *FileStore) AddNode(n *Node) error {
	if err := fs.MemStore.AddNode(n); err != nil {
		return err
	}
	return fs.save()
}

func (fs *FileStore) UpdateNode(id string, fn func(n *Node) error) error {
	if err := fs.MemStore.UpdateNode(id, fn); err != nil {
		return err
	}
	return fs.save()
}

func (fs *FileStore) RemoveNode(id string) error {
	if err := fs.MemStore.RemoveNode(id); err != nil {
		return err
	}
	return fs.save()
}

func (fs *FileStore) PutAppKey(idx meshdefs.KeyIndex,
	key meshdefs.AppKey) error {

	if err := fs.MemStore.PutAppKey(idx, key); err != nil {
		return err
	}
	return fs.save()
}
