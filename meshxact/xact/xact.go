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

package xact

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"mynewt.apache.org/meshmgr/meshxact/mxutil"
	"mynewt.apache.org/meshmgr/meshxact/sesn"
)

// Runs a command over the session and waits for its result.  The command
// holds the session's exchange for the duration.  If no status arrives
// within opt.Timeout, the command is abandoned and an RspTimeoutError is
// returned.
func RunCmd(s *sesn.Sesn, cmd Cmd, opt sesn.TxOptions) (Result, error) {
	closeCh := s.CloseChan()

	if err := s.AcquireExchange(cmd, cmd.ReceivedData); err != nil {
		return Result{}, err
	}
	defer s.ReleaseExchange()

	ch := make(chan Result, 1)
	err := s.Run(cmd.Name(), func() error {
		return cmd.Execute(s, ch)
	})
	if err != nil {
		return Result{}, err
	}

	select {
	case res := <-ch:
		return res, res.Err

	case <-opt.AfterTimeout():
		s.Run("abandon", func() error {
			cmd.Abandon()
			return nil
		})
		return Result{}, mxutil.FmtRspTimeoutError(
			"%s: no status received after %s", cmd.Name(), opt.Timeout)

	case <-closeCh:
		cmd.Abandon()
		return Result{}, mxutil.NewSesnClosedError(
			cmd.Name() + ": session closed during exchange")
	}
}

// Runs a fresh command from mk up to opt.Tries times, retrying only when an
// attempt times out.
func RunCmdRetry(s *sesn.Sesn, mk func() (Cmd, error),
	opt sesn.TxOptions) (Result, error) {

	retries := opt.Tries - 1
	for i := 0; ; i++ {
		cmd, err := mk()
		if err != nil {
			return Result{}, err
		}

		res, err := RunCmd(s, cmd, opt)
		if err == nil {
			return res, nil
		}

		if !mxutil.IsRspTimeout(err) {
			return res, err
		}
		if i >= retries {
			return res, errors.Wrapf(err, "%s: %d tries", cmd.Name(), i+1)
		}

		log.Debugf("%s timed out; retrying (%d/%d)", cmd.Name(), i+2,
			opt.Tries)
	}
}
