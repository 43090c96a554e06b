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

package meshble

import (
	"runtime"
	"sync"
	"time"

	"github.com/JuulLabs-OSS/ble"
	"github.com/JuulLabs-OSS/ble/examples/lib/dev"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"mynewt.apache.org/meshmgr/meshxact/mxutil"
	"mynewt.apache.org/meshmgr/meshxact/xport"
)

type XportCfg struct {
	// Host controller; "default" selects the first available.
	CtlrName string

	PeerName string
	PeerAddr string

	PreferredMtu uint16
	ConnTimeout  time.Duration
	ConnTries    int
}

func NewXportCfg() XportCfg {
	return XportCfg{
		CtlrName:     "default",
		PreferredMtu: 69,
		ConnTimeout:  10 * time.Second,
		ConnTries:    3,
	}
}

// Opens the host's BLE controller and makes it the default device.
func InitDevice(ctlrName string) error {
	d, err := dev.NewDevice(ctlrName)
	if err != nil {
		return errors.Wrapf(err, "failed to open BLE controller \"%s\"",
			ctlrName)
	}

	ble.SetDefaultDevice(d)
	return nil
}

func StopDevice() error {
	return ble.Stop()
}

type dialFn func(ctx context.Context, f ble.AdvFilter) (ble.Client, error)

// Carries proxy PDUs over the GATT mesh proxy service.  Outgoing chunks are
// written to Data In; incoming chunks arrive as Data Out notifications.
type ProxyXport struct {
	cfg  XportCfg
	dial dialFn

	// All accesses must be protected by the mutex.
	cln ble.Client

	mtx     sync.Mutex
	attMtu  uint16
	dataIn  *ble.Characteristic
	dataOut *ble.Characteristic
}

func NewProxyXport(cfg XportCfg) *ProxyXport {
	return &ProxyXport{
		cfg:  cfg,
		dial: ble.Connect,
	}
}

func (px *ProxyXport) getCln() (ble.Client, error) {
	px.mtx.Lock()
	defer px.mtx.Unlock()

	if px.cln == nil {
		return nil, mxutil.NewXportError("BLE proxy disconnected")
	}

	return px.cln, nil
}

func (px *ProxyXport) setCln(c ble.Client) {
	px.mtx.Lock()
	defer px.mtx.Unlock()

	px.cln = c
}

func (px *ProxyXport) connect() error {
	log.Debugf("Connecting to mesh proxy")

	ctx := ble.WithSigHandler(context.WithTimeout(context.Background(),
		px.cfg.ConnTimeout))

	cln, err := px.dial(ctx, ProxyAdvFilter(px.cfg.PeerName, px.cfg.PeerAddr))
	if err != nil {
		if errors.Cause(err) == context.DeadlineExceeded {
			return mxutil.FmtXportError(
				"failed to connect to mesh proxy after %s",
				px.cfg.ConnTimeout.String())
		}
		return errors.Wrap(err, "BLE connect")
	}

	px.setCln(cln)

	go func() {
		<-cln.Disconnected()
		log.Debugf("Mesh proxy disconnected")

		px.mtx.Lock()
		if px.cln == cln {
			px.cln = nil
		}
		px.mtx.Unlock()
	}()

	return nil
}

func exchangeMtu(cln ble.Client, preferredMtu uint16) (uint16, error) {
	log.Debugf("Exchanging MTU")

	// macOS performs the exchange on its own and may still report the
	// default until it completes.
	var mtu int
	for i := 0; i < 3; i++ {
		var err error
		mtu, err = cln.ExchangeMTU(int(preferredMtu))
		if err != nil {
			return 0, err
		}

		if runtime.GOOS != "darwin" || mtu != BLE_ATT_MTU_DFLT {
			break
		}

		time.Sleep(time.Second)
	}

	log.Debugf("Exchanged MTU; ATT MTU = %d", mtu)
	return uint16(mtu), nil
}

func (px *ProxyXport) discover() error {
	cln, err := px.getCln()
	if err != nil {
		return err
	}

	log.Debugf("Discovering profile")

	p, err := cln.DiscoverProfile(true)
	if err != nil {
		return errors.Wrap(err, "BLE discovery")
	}

	px.dataIn = findChr(p, proxySvcUuid, proxyDataInUuid)
	px.dataOut = findChr(p, proxySvcUuid, proxyDataOutUuid)
	if px.dataIn == nil || px.dataOut == nil {
		return mxutil.NewXportError(
			"peer does not support the mesh proxy service")
	}

	return nil
}

// @return bool                 Whether to retry the open attempt; false
//                                  on success.
//         error                The cause of a failed open; nil on success.
func (px *ProxyXport) startOnce(rx xport.RxFn) (bool, error) {
	if err := px.connect(); err != nil {
		return false, err
	}

	cln, err := px.getCln()
	if err != nil {
		return true, err
	}

	mtu, err := exchangeMtu(cln, px.cfg.PreferredMtu)
	if err != nil {
		return true, err
	}
	px.mtx.Lock()
	px.attMtu = mtu
	px.mtx.Unlock()

	if err := px.discover(); err != nil {
		return false, err
	}

	log.Debugf("Subscribing to mesh proxy data out")
	onNotify := func(data []byte) {
		rx(data)
	}
	if err := cln.Subscribe(px.dataOut, false, onNotify); err != nil {
		return false, errors.Wrap(err, "BLE subscribe")
	}

	return false, nil
}

func (px *ProxyXport) Start(rx xport.RxFn) error {
	if _, err := px.getCln(); err == nil {
		return mxutil.NewXportError("BLE proxy already connected")
	}

	var err error
	for i := 0; i < px.cfg.ConnTries; i++ {
		var retry bool

		retry, err = px.startOnce(rx)
		if err != nil {
			px.Stop()
		}

		if !retry {
			break
		}
	}

	return err
}

func (px *ProxyXport) Stop() error {
	cln, err := px.getCln()
	if err != nil {
		return err
	}

	px.setCln(nil)
	if err := cln.CancelConnection(); err != nil {
		return errors.Wrap(err, "BLE disconnect")
	}

	return nil
}

// Writes one proxy PDU chunk to Data In.  A write request is used when
// rsp is set; otherwise a write command.
func (px *ProxyXport) Tx(b []byte, rsp bool) error {
	cln, err := px.getCln()
	if err != nil {
		return err
	}

	if len(b) > px.MaxWriteLen() {
		return mxutil.NewXportTooLargeError(len(b), px.MaxWriteLen())
	}

	if err := cln.WriteCharacteristic(px.dataIn, b, !rsp); err != nil {
		return mxutil.FmtXportError("BLE write failed: %s", err.Error())
	}

	return nil
}

func (px *ProxyXport) MaxWriteLen() int {
	px.mtx.Lock()
	defer px.mtx.Unlock()

	mtu := int(px.attMtu)
	if mtu == 0 {
		mtu = BLE_ATT_MTU_DFLT
	}
	return mtu - WRITE_CMD_BASE_SZ
}
