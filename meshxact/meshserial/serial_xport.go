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

package meshserial

import (
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"mynewt.apache.org/meshmgr/meshxact/mxutil"
	"mynewt.apache.org/meshmgr/meshxact/xport"
)

type XportCfg struct {
	DevPath     string
	Baud        int
	ReadTimeout time.Duration

	// Largest proxy PDU chunk sent in one frame.
	MaxWriteLen int

	// Pause between the lines of a multi-line frame.
	LineDelay time.Duration
}

func NewXportCfg() *XportCfg {
	return &XportCfg{
		Baud:        115200,
		ReadTimeout: 10 * time.Second,
		MaxWriteLen: 20,
		LineDelay:   20 * time.Millisecond,
	}
}

// Opens the serial device.  Replaced in tests.
var openPort = func(c *serial.Config) (io.ReadWriteCloser, error) {
	return serial.OpenPort(c)
}

// Carries proxy PDUs to a mesh proxy bridge over a serial line.
type SerialXport struct {
	cfg  *XportCfg
	port io.ReadWriteCloser
	dec  *FrameDecoder

	wg      sync.WaitGroup
	closing bool
	txMtx   sync.Mutex
	mtx     sync.Mutex
}

func NewSerialXport(cfg *XportCfg) *SerialXport {
	return &SerialXport{
		cfg: cfg,
	}
}

func (sx *SerialXport) Start(rx xport.RxFn) error {
	sx.mtx.Lock()
	defer sx.mtx.Unlock()

	if sx.port != nil {
		return mxutil.NewXportError("serial transport already started")
	}

	c := &serial.Config{
		Name:        sx.cfg.DevPath,
		Baud:        sx.cfg.Baud,
		ReadTimeout: sx.cfg.ReadTimeout,
	}

	port, err := openPort(c)
	if err != nil {
		return errors.Wrapf(err, "failed to open serial port %s",
			sx.cfg.DevPath)
	}

	if p, ok := port.(*serial.Port); ok {
		if err := p.Flush(); err != nil {
			port.Close()
			return errors.Wrap(err, "failed to flush serial port")
		}
	}

	sx.port = port
	sx.dec = NewFrameDecoder(port)
	sx.closing = false

	sx.wg.Add(1)
	go sx.rxLoop(sx.dec, rx)

	return nil
}

func (sx *SerialXport) isClosing() bool {
	sx.mtx.Lock()
	defer sx.mtx.Unlock()

	return sx.closing
}

func (sx *SerialXport) rxLoop(dec *FrameDecoder, rx xport.RxFn) {
	defer sx.wg.Done()

	for {
		pdu, err := dec.Next()
		if sx.isClosing() {
			return
		}

		if err != nil {
			if err == errTimeout {
				continue
			}
			if IsFrameError(err) {
				log.Debugf("Discarding serial frame: %s", err.Error())
				continue
			}

			log.Errorf("Serial read failed: %s", err.Error())
			return
		}

		rx(pdu)
	}
}

func (sx *SerialXport) Stop() error {
	sx.mtx.Lock()
	if sx.port == nil {
		sx.mtx.Unlock()
		return mxutil.NewXportError("serial transport not started")
	}
	sx.closing = true
	port := sx.port
	sx.port = nil
	sx.mtx.Unlock()

	err := port.Close()
	sx.wg.Wait()
	return err
}

// Sends one proxy PDU chunk in a single frame.  The serial line has no
// link-layer acknowledgement, so rsp is ignored.
func (sx *SerialXport) Tx(b []byte, rsp bool) error {
	if len(b) > sx.MaxWriteLen() {
		return mxutil.NewXportTooLargeError(len(b), sx.MaxWriteLen())
	}

	sx.mtx.Lock()
	port := sx.port
	sx.mtx.Unlock()

	if port == nil {
		return mxutil.NewXportError("serial transport not started")
	}

	sx.txMtx.Lock()
	defer sx.txMtx.Unlock()

	if err := EncodeFrame(port, b, sx.cfg.LineDelay); err != nil {
		return mxutil.FmtXportError("serial tx failed: %s", err.Error())
	}

	return nil
}

func (sx *SerialXport) MaxWriteLen() int {
	return sx.cfg.MaxWriteLen
}
