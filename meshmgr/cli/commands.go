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

package cli

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mynewt.apache.org/meshmgr/meshmgr/meshutil"
	"mynewt.apache.org/meshmgr/meshxact/mxutil"
	"mynewt.apache.org/newt/util"
)

var MeshmgrLogLevel log.Level

func Commands() *cobra.Command {
	logLevelStr := ""
	mmCmd := &cobra.Command{
		Use: meshutil.ToolInfo.ExeName,
		Short: meshutil.ToolInfo.ShortName +
			" configures Bluetooth mesh nodes through a proxy",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var err error
			MeshmgrLogLevel, err = log.ParseLevel(logLevelStr)
			if err != nil {
				nmUsage(nil, util.ChildNewtError(err))
			}

			err = util.Init(MeshmgrLogLevel, "", util.VERBOSITY_DEFAULT)
			if err != nil {
				nmUsage(nil, err)
			}
			mxutil.SetLogLevel(MeshmgrLogLevel)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	mmCmd.PersistentFlags().StringVarP(&meshutil.ConnProfile, "conn", "c", "",
		"connection profile to use")

	mmCmd.PersistentFlags().Float64VarP(&meshutil.Timeout, "timeout", "t",
		10.0, "timeout in seconds (partial seconds allowed)")

	mmCmd.PersistentFlags().IntVarP(&meshutil.Tries, "tries", "r", 1,
		"total number of tries in case of timeout")

	mmCmd.PersistentFlags().StringVarP(&logLevelStr, "loglevel", "l", "info",
		"log level to use")

	mmCmd.PersistentFlags().StringVar(&meshutil.DeviceName, "name",
		"", "name of target BLE proxy; overrides profile setting")

	mmCmd.PersistentFlags().BoolVar(&meshutil.WriteRsp, "write-rsp", false,
		"Send BLE acked write requests instead of unacked write commands")

	mmCmd.PersistentFlags().StringVar(&meshutil.ConnType, "conntype", "",
		"Connection type to use instead of using the profile's type")

	mmCmd.PersistentFlags().StringVar(&meshutil.ConnString, "connstring", "",
		"Connection key-value pairs to use with --conntype")

	mmCmd.PersistentFlags().StringVarP(&meshutil.StateFile, "state", "s", "",
		"network state file (.db for SQLite); default ~/"+
			".meshmgr_state.json")

	mmCmd.PersistentFlags().IntVar(&meshutil.AckDelayMs, "ack-delay", 150,
		"delay in ms before acknowledging a segmented status; 0 disables")

	mmCmd.PersistentFlags().StringVar(&reportBroker, "report", "",
		"MQTT broker URL to publish results to (e.g. tcp://host:1883)")

	versCmd := &cobra.Command{
		Use:     "version",
		Short:   "Display the " + meshutil.ToolInfo.ShortName + " version number",
		Example: "  " + meshutil.ToolInfo.ExeName + " version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s %s\n",
				meshutil.ToolInfo.LongName,
				meshutil.ToolInfo.VersionString)
		},
	}
	mmCmd.AddCommand(versCmd)

	for _, c := range configCmds() {
		mmCmd.AddCommand(c)
	}
	mmCmd.AddCommand(applyCmd())
	mmCmd.AddCommand(nodeCmd())
	mmCmd.AddCommand(connProfileCmd())

	return mmCmd
}
