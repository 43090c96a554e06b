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

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mynewt.apache.org/meshmgr/meshmgr/cli"
	"mynewt.apache.org/meshmgr/meshmgr/config"
	"mynewt.apache.org/meshmgr/meshmgr/meshutil"
	"mynewt.apache.org/meshmgr/meshxact/meshserial"
	"mynewt.apache.org/newt/util"
)

func main() {
	meshutil.ToolInfo = meshutil.ToolInfoType{
		ExeName:       "meshmgr",
		ShortName:     "meshmgr",
		LongName:      "Bluetooth mesh configuration tool",
		VersionString: "0.1.0",
		CfgFilename:   ".meshmgr.json",
	}

	if err := config.InitGlobalConnProfileMgr(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}

	onExit := func() {
		s, err := cli.GetSesnIfOpen()
		if err == nil && s.IsOpen() {
			x, _ := cli.GetXportIfOpen()

			// Closing a serial port blocks on macOS while a read is in
			// progress; let the OS close it on termination.
			if _, ok := x.(*meshserial.SerialXport); !ok {
				s.Close()
			}
		}

		cli.CloseReporter()
		cli.CloseStore()
	}
	defer onExit()
	cli.NmSetOnExit(onExit)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		for {
			s := <-sigChan
			switch s {
			case os.Interrupt, syscall.SIGTERM:
				onExit()
				os.Exit(0)

			case syscall.SIGQUIT:
				util.PrintStacks()
			}
		}
	}()

	cli.Commands().Execute()
}
