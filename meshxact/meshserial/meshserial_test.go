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
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joaojeronimo/go-crc16"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tarm/serial"

	"mynewt.apache.org/meshmgr/meshxact/mxutil"
)

func TestFrameRoundTrip(t *testing.T) {
	pdu := []byte{0x00, 0x04, 0x00, 0x00, 0x02, 0x01, 0x00}

	buf := &bytes.Buffer{}
	require.NoError(t, EncodeFrame(buf, pdu, 0))

	s := buf.String()
	assert.True(t, strings.HasPrefix(s, "\x06\x09"))
	assert.True(t, strings.HasSuffix(s, "\n"))
	assert.Equal(t, 1, strings.Count(s, "\n"))

	d := NewFrameDecoder(buf)
	rx, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, pdu, rx)

	_, err = d.Next()
	assert.Equal(t, errTimeout, err)
}

func TestFrameMultiLine(t *testing.T) {
	pdu := make([]byte, 200)
	for i := range pdu {
		pdu[i] = byte(i)
	}

	buf := &bytes.Buffer{}
	require.NoError(t, EncodeFrame(buf, pdu, 0))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "\x06\x09"))
	for _, l := range lines {
		assert.True(t, len(l) <= MAX_LINE_DATA+2)
	}
	for _, l := range lines[1:] {
		assert.True(t, strings.HasPrefix(l, "\x04\x14"))
	}

	rx, err := NewFrameDecoder(buf).Next()
	require.NoError(t, err)
	assert.Equal(t, pdu, rx)
}

func TestFrameCrcError(t *testing.T) {
	pdu := []byte{0x01, 0x02, 0x03}

	body := []byte{0x00, byte(len(pdu) + 2)}
	body = append(body, pdu...)
	crc := make([]byte, 2)
	binary.BigEndian.PutUint16(crc, ^crc16.Crc16(pdu))
	body = append(body, crc...)

	line := "\x06\x09" + base64.StdEncoding.EncodeToString(body) + "\n"

	_, err := NewFrameDecoder(strings.NewReader(line)).Next()
	require.Error(t, err)
	assert.True(t, IsFrameError(err))
}

func TestFrameNoise(t *testing.T) {
	pdu := []byte{0xaa, 0xbb}

	buf := &bytes.Buffer{}
	buf.WriteString("000123 [ts=0] mesh ready\n")
	buf.WriteString("\x06\x09!!!notbase64\n")
	require.NoError(t, EncodeFrame(buf, pdu, 0))

	d := NewFrameDecoder(buf)

	_, err := d.Next()
	assert.True(t, IsFrameError(err))

	rx, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, pdu, rx)
}

func TestFrameStrayContinuation(t *testing.T) {
	pdu := []byte{0x01}

	buf := &bytes.Buffer{}
	buf.WriteString("\x04\x14AAAA\n")
	require.NoError(t, EncodeFrame(buf, pdu, 0))

	rx, err := NewFrameDecoder(buf).Next()
	require.NoError(t, err)
	assert.Equal(t, pdu, rx)
}

type lockedBuffer struct {
	mtx sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mtx.Lock()
	defer b.mtx.Unlock()
	return append([]byte{}, b.buf.Bytes()...)
}

type fakePort struct {
	r *io.PipeReader
	w *lockedBuffer
}

func (p *fakePort) Read(b []byte) (int, error) {
	return p.r.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	return p.w.Write(b)
}

func (p *fakePort) Close() error {
	return p.r.Close()
}

func withFakePort(t *testing.T) (*io.PipeWriter, *lockedBuffer) {
	pr, pw := io.Pipe()
	out := &lockedBuffer{}

	orig := openPort
	openPort = func(c *serial.Config) (io.ReadWriteCloser, error) {
		return &fakePort{r: pr, w: out}, nil
	}
	t.Cleanup(func() { openPort = orig })

	return pw, out
}

func TestSerialXport(t *testing.T) {
	in, out := withFakePort(t)

	cfg := NewXportCfg()
	cfg.DevPath = "/dev/null"
	cfg.LineDelay = 0
	sx := NewSerialXport(cfg)

	rxCh := make(chan []byte, 1)
	require.NoError(t, sx.Start(func(b []byte) { rxCh <- b }))
	assert.True(t, mxutil.IsXport(sx.Start(func(b []byte) {})))

	// Outgoing.
	require.NoError(t, sx.Tx([]byte{0x00, 0x10, 0x00}, true))
	rx, err := NewFrameDecoder(bytes.NewReader(out.Bytes())).Next()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x10, 0x00}, rx)

	err = sx.Tx(make([]byte, cfg.MaxWriteLen+1), false)
	assert.True(t, mxutil.IsXportTooLarge(err))

	// Incoming.
	go func() {
		EncodeFrame(in, []byte{0x00, 0x07, 0x00, 0x02}, 0)
	}()

	select {
	case b := <-rxCh:
		assert.Equal(t, []byte{0x00, 0x07, 0x00, 0x02}, b)
	case <-time.After(2 * time.Second):
		t.Fatal("no frame received")
	}

	require.NoError(t, sx.Stop())
	assert.True(t, mxutil.IsXport(sx.Tx([]byte{0x00}, false)))
	assert.True(t, mxutil.IsXport(sx.Stop()))
}
