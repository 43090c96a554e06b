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
	"bufio"
	"encoding/base64"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/joaojeronimo/go-crc16"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/newt/util"
)

// Each line of a frame begins with one of these markers.
var (
	MARKER_START = []byte{6, 9}
	MARKER_CONT  = []byte{4, 20}
)

// Maximum base64 characters per line.  A multiple of 4 so that every line
// decodes on its own, leaving room for the marker and line ending within 128
// bytes.
const MAX_LINE_DATA = 124

var errTimeout = errors.New("timeout reading from serial connection")

// A frame that could not be decoded.  The decoder discards it and moves on.
type FrameError struct {
	Text string
}

func (e *FrameError) Error() string {
	return e.Text
}

func IsFrameError(err error) bool {
	_, ok := errors.Cause(err).(*FrameError)
	return ok
}

// Writes one PDU as a serial frame: a 2-byte length, the PDU, and a CRC16,
// base64 encoded and split into marker-prefixed lines.  lineDelay is slept
// between lines to let slow receivers drain their buffers.
func EncodeFrame(w io.Writer, pdu []byte, lineDelay time.Duration) error {
	body := make([]byte, 0, 2+len(pdu)+2)
	body = append(body, 0, 0)
	body = append(body, pdu...)
	body = append(body, 0, 0)

	binary.BigEndian.PutUint16(body[0:2], uint16(len(pdu)+2))
	binary.BigEndian.PutUint16(body[len(body)-2:], crc16.Crc16(pdu))

	enc := base64.StdEncoding.EncodeToString(body)

	for off := 0; off < len(enc); {
		var line []byte
		if off == 0 {
			line = append(line, MARKER_START...)
		} else {
			if lineDelay > 0 {
				time.Sleep(lineDelay)
			}
			line = append(line, MARKER_CONT...)
		}

		n := util.Min(MAX_LINE_DATA, len(enc)-off)
		line = append(line, enc[off:off+n]...)
		line = append(line, '\n')

		if _, err := w.Write(line); err != nil {
			return errors.Wrap(err, "serial write")
		}

		off += n
	}

	return nil
}

// A partially received frame.
type packet struct {
	expected int
	buf      []byte
}

// Extracts frames from a stream of lines.
type FrameDecoder struct {
	r       io.Reader
	scanner *bufio.Scanner
	pkt     *packet
}

func NewFrameDecoder(r io.Reader) *FrameDecoder {
	return &FrameDecoder{
		r:       r,
		scanner: bufio.NewScanner(r),
	}
}

func hasMarker(line []byte, marker []byte) bool {
	return len(line) >= 2 && line[0] == marker[0] && line[1] == marker[1]
}

// Processes one line.  Returns the PDU if the line completes a frame.
func (d *FrameDecoder) feed(line []byte) ([]byte, error) {
	for len(line) > 1 && line[0] == '\r' {
		line = line[1:]
	}

	start := hasMarker(line, MARKER_START)
	if !start && !hasMarker(line, MARKER_CONT) {
		// Console output; not part of a frame.
		return nil, nil
	}

	data, err := base64.StdEncoding.DecodeString(string(line[2:]))
	if err != nil {
		d.pkt = nil
		return nil, &FrameError{fmt.Sprintf(
			"couldn't decode base64 line:\n%s", hex.Dump(line))}
	}

	if start {
		if len(data) < 2 {
			d.pkt = nil
			return nil, nil
		}

		d.pkt = &packet{
			expected: int(binary.BigEndian.Uint16(data[0:2])),
		}
		data = data[2:]
	}

	if d.pkt == nil {
		return nil, nil
	}

	d.pkt.buf = append(d.pkt.buf, data...)
	if len(d.pkt.buf) < d.pkt.expected {
		return nil, nil
	}

	pkt := d.pkt
	d.pkt = nil

	if len(pkt.buf) > pkt.expected || pkt.expected < 2 {
		return nil, &FrameError{fmt.Sprintf(
			"frame length mismatch: have=%d want=%d",
			len(pkt.buf), pkt.expected)}
	}

	if crc16.Crc16(pkt.buf) != 0 {
		return nil, &FrameError{"CRC error"}
	}

	return pkt.buf[:len(pkt.buf)-2], nil
}

// Blocks until a complete frame is received.
func (d *FrameDecoder) Next() ([]byte, error) {
	for d.scanner.Scan() {
		pdu, err := d.feed(d.scanner.Bytes())
		if err != nil {
			return nil, err
		}
		if pdu != nil {
			log.Debugf("Decoded serial frame:\n%s", hex.Dump(pdu))
			return pdu, nil
		}
	}

	err := d.scanner.Err()
	if err == nil || err == io.ErrNoProgress {
		// The scanner stops at EOF; the port reports one on each read
		// timeout, so start over with a fresh scanner.
		d.scanner = bufio.NewScanner(d.r)
		return nil, errTimeout
	}
	return nil, err
}
