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

// Package report renders configuration results and forwards them to an
// MQTT broker for auditing.
package report

import (
	"encoding/hex"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fatih/structs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/ugorji/go/codec"

	"mynewt.apache.org/meshmgr/meshxact/cfgmsg"
	"mynewt.apache.org/meshmgr/meshxact/xact"
)

// A status message field, rendered as text.
type Field struct {
	Name  string
	Value string
}

// Flattens a status message into its named fields, in declaration order.
// Field names come from the "codec" tags.
func StatusFields(msg cfgmsg.StatusMsg) []Field {
	s := structs.New(msg)
	s.TagName = "codec"

	var fields []Field
	for _, f := range s.Fields() {
		name := f.Tag("codec")
		if name == "" {
			name = f.Name()
		}
		if name == "-" {
			continue
		}

		var val string
		switch v := f.Value().(type) {
		case []byte:
			val = hex.EncodeToString(v)
		case fmt.Stringer:
			val = v.String()
		default:
			val = fmt.Sprintf("%v", v)
		}

		fields = append(fields, Field{name, val})
	}

	return fields
}

// One configuration outcome, as published.
type Event struct {
	Node    string            `codec:"node"`
	Command string            `codec:"command"`
	Time    string            `codec:"time"`
	Status  string            `codec:"status"`
	Error   string            `codec:"error,omitempty"`
	Fields  map[string]string `codec:"fields,omitempty"`
}

func NewEvent(node string, cmdName string, res xact.Result,
	now time.Time) Event {

	ev := Event{
		Node:    node,
		Command: cmdName,
		Time:    now.UTC().Format(time.RFC3339),
		Status:  res.StatusCode().String(),
	}

	if res.Err != nil {
		ev.Error = res.Err.Error()
	}

	if res.Status != nil {
		ev.Fields = map[string]string{}
		for _, f := range StatusFields(res.Status) {
			ev.Fields[f.Name] = f.Value
		}
	}

	return ev
}

func (ev Event) Encode() ([]byte, error) {
	var b []byte
	enc := codec.NewEncoderBytes(&b, &codec.JsonHandle{})
	if err := enc.Encode(ev); err != nil {
		return nil, errors.Wrap(err, "encoding report event")
	}
	return b, nil
}

type Reporter interface {
	Report(node string, cmdName string, res xact.Result) error
	Close()
}

// Subset of mqtt.Client used for publishing.
type publisher interface {
	Publish(topic string, qos byte, retained bool,
		payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publishes each event to "<root>/<node>/<command>".
type MqttReporter struct {
	root    string
	timeout time.Duration
	pub     publisher
}

type MqttCfg struct {
	BrokerUrl string
	ClientId  string
	Username  string
	Password  string
	RootTopic string
	Timeout   time.Duration
}

func NewMqttCfg(brokerUrl string) MqttCfg {
	return MqttCfg{
		BrokerUrl: brokerUrl,
		ClientId:  fmt.Sprintf("meshmgr-%d", time.Now().UnixNano()%100000),
		RootTopic: "meshmgr",
		Timeout:   5 * time.Second,
	}
}

func ConnectMqtt(cfg MqttCfg) (*MqttReporter, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerUrl)
	opts.SetClientID(cfg.ClientId)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetConnectTimeout(cfg.Timeout)

	c := mqtt.NewClient(opts)

	log.Debugf("Connecting to MQTT broker %s", cfg.BrokerUrl)
	tok := c.Connect()
	if !tok.WaitTimeout(cfg.Timeout) {
		return nil, errors.Errorf("timeout connecting to MQTT broker %s",
			cfg.BrokerUrl)
	}
	if err := tok.Error(); err != nil {
		return nil, errors.Wrapf(err, "connecting to MQTT broker %s",
			cfg.BrokerUrl)
	}

	return newMqttReporter(c, cfg.RootTopic, cfg.Timeout), nil
}

func newMqttReporter(pub publisher, root string,
	timeout time.Duration) *MqttReporter {

	return &MqttReporter{
		root:    root,
		timeout: timeout,
		pub:     pub,
	}
}

func (r *MqttReporter) Topic(node string, cmdName string) string {
	return fmt.Sprintf("%s/%s/%s", r.root, node, cmdName)
}

func (r *MqttReporter) Report(node string, cmdName string,
	res xact.Result) error {

	b, err := NewEvent(node, cmdName, res, time.Now()).Encode()
	if err != nil {
		return err
	}

	topic := r.Topic(node, cmdName)
	log.Debugf("Publishing result to %s", topic)

	tok := r.pub.Publish(topic, 1, false, b)
	if !tok.WaitTimeout(r.timeout) {
		return errors.Errorf("timeout publishing to %s", topic)
	}

	return errors.Wrapf(tok.Error(), "publishing to %s", topic)
}

func (r *MqttReporter) Close() {
	r.pub.Disconnect(250)
}
