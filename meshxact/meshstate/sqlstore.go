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
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"
	_ "modernc.org/sqlite"

	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
)

const sqlSchema = `
CREATE TABLE IF NOT EXISTS nodes (
	node_id TEXT PRIMARY KEY,
	unicast INTEGER NOT NULL,
	body    BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS app_keys (
	key_index INTEGER PRIMARY KEY,
	app_key   BLOB NOT NULL
);
`

// Keeps network state in an SQLite database.  Each node is stored as one
// row holding its JSON encoding.
type SqlStore struct {
	db *sql.DB
}

func OpenSqlStore(path string) (*SqlStore, error) {
	log.Debugf("Opening mesh state database %s", path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "open mesh state database %s", path)
	}

	// Keeps UpdateNode transactions serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqlSchema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create mesh state schema")
	}

	return &SqlStore{db: db}, nil
}

func (s *SqlStore) Close() error {
	return s.db.Close()
}

func encodeNode(n *Node) ([]byte, error) {
	var b []byte
	enc := codec.NewEncoderBytes(&b, &codec.JsonHandle{})
	if err := enc.Encode(n); err != nil {
		return nil, errors.Wrapf(err, "encoding node \"%s\"", n.NodeId)
	}
	return b, nil
}

func decodeNode(b []byte) (*Node, error) {
	n := &Node{}
	dec := codec.NewDecoderBytes(b, &codec.JsonHandle{})
	if err := dec.Decode(n); err != nil {
		return nil, errors.Wrap(err, "decoding node")
	}
	return n, nil
}

type rowQuerier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}

func queryNode(q rowQuerier, id string) (*Node, error) {
	var body []byte
	err := q.QueryRow(`SELECT body FROM nodes WHERE node_id = ?`, id).
		Scan(&body)
	if err == sql.ErrNoRows {
		return nil, &NodeNotFoundError{id}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "query node \"%s\"", id)
	}

	return decodeNode(body)
}

func (s *SqlStore) Node(id string) (*Node, error) {
	return queryNode(s.db, id)
}

// Returns all nodes, sorted by ID.
func (s *SqlStore) Nodes() ([]*Node, error) {
	rows, err := s.db.Query(`SELECT body FROM nodes ORDER BY node_id`)
	if err != nil {
		return nil, errors.Wrap(err, "list nodes")
	}
	defer rows.Close()

	var nodes []*Node
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, errors.Wrap(err, "scan node")
		}

		n, err := decodeNode(body)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}

	return nodes, rows.Err()
}

func (s *SqlStore) AddNode(n *Node) error {
	if n.NodeId == "" {
		return fmt.Errorf("node ID not specified")
	}

	body, err := encodeNode(n)
	if err != nil {
		return err
	}

	res, err := s.db.Exec(`
		INSERT INTO nodes(node_id, unicast, body) VALUES (?, ?, ?)
		ON CONFLICT(node_id) DO NOTHING`,
		n.NodeId, int64(n.Unicast), body)
	if err != nil {
		return errors.Wrapf(err, "insert node \"%s\"", n.NodeId)
	}

	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return fmt.Errorf("node \"%s\" already exists", n.NodeId)
	}

	return nil
}

// Fetches the node, applies fn, and stores the result, all in one
// transaction.  Nothing is written if fn fails.
func (s *SqlStore) UpdateNode(id string, fn func(n *Node) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(err, "begin transaction")
	}
	defer tx.Rollback()

	n, err := queryNode(tx, id)
	if err != nil {
		return err
	}

	if err := fn(n); err != nil {
		return err
	}
	n.NodeId = id

	body, err := encodeNode(n)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(
		`UPDATE nodes SET unicast = ?, body = ? WHERE node_id = ?`,
		int64(n.Unicast), body, id); err != nil {

		return errors.Wrapf(err, "update node \"%s\"", id)
	}

	return errors.Wrap(tx.Commit(), "commit node update")
}

func (s *SqlStore) RemoveNode(id string) error {
	res, err := s.db.Exec(`DELETE FROM nodes WHERE node_id = ?`, id)
	if err != nil {
		return errors.Wrapf(err, "delete node \"%s\"", id)
	}

	if cnt, _ := res.RowsAffected(); cnt == 0 {
		return &NodeNotFoundError{id}
	}

	return nil
}

func (s *SqlStore) AppKey(idx meshdefs.KeyIndex) (meshdefs.AppKey, error) {
	var k meshdefs.AppKey
	var b []byte

	err := s.db.QueryRow(
		`SELECT app_key FROM app_keys WHERE key_index = ?`, int64(idx)).
		Scan(&b)
	if err == sql.ErrNoRows {
		return k, &AppKeyNotFoundError{idx}
	}
	if err != nil {
		return k, errors.Wrapf(err, "query app key %s", idx)
	}

	if len(b) != len(k) {
		return k, errors.Errorf("app key %s has invalid length %d",
			idx, len(b))
	}
	copy(k[:], b)

	return k, nil
}

func (s *SqlStore) PutAppKey(idx meshdefs.KeyIndex, key meshdefs.AppKey) error {
	_, err := s.db.Exec(`
		INSERT INTO app_keys(key_index, app_key) VALUES (?, ?)
		ON CONFLICT(key_index) DO UPDATE SET app_key = excluded.app_key`,
		int64(idx), key[:])

	return errors.Wrapf(err, "store app key %s", idx)
}
