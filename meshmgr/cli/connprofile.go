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
	"sort"
	"strings"

	"github.com/spf13/cobra"
	bugserial "go.bug.st/serial"

	"mynewt.apache.org/meshmgr/meshmgr/config"
	"mynewt.apache.org/meshmgr/meshmgr/meshutil"
	"mynewt.apache.org/newt/util"
)

func connProfileAddCmd(cmd *cobra.Command, args []string) {
	cpm := config.GlobalConnProfileMgr()

	// Connection Profile name required
	if len(args) == 0 {
		nmUsage(cmd, util.NewNewtError("Need connection profile name"))
	}

	name := args[0]
	cp := config.NewConnProfile()
	cp.Name = name
	cp.Type = config.CONN_TYPE_NONE

	for _, vdef := range args[1:] {
		s := strings.SplitN(vdef, "=", 2)
		if len(s) != 2 {
			nmUsage(cmd, util.NewNewtError("Expected varname=value: "+vdef))
		}

		switch s[0] {
		case "type":
			var err error
			cp.Type, err = config.ConnTypeFromString(s[1])
			if err != nil {
				nmUsage(cmd, err)
			}
		case "connstring":
			cp.ConnString = s[1]
		default:
			nmUsage(cmd, util.NewNewtError("Unknown variable "+s[0]))
		}
	}

	var err error
	switch cp.Type {
	case config.CONN_TYPE_SERIAL:
		_, err = config.ParseSerialConnString(cp.ConnString, 0)
	case config.CONN_TYPE_BLE:
		_, err = config.ParseBleConnString(cp.ConnString)
	default:
		err = util.NewNewtError("Must specify a connection type")
	}
	if err != nil {
		nmUsage(cmd, err)
	}

	if err := cpm.AddConnProfile(cp); err != nil {
		nmUsage(cmd, err)
	}

	fmt.Printf("Connection profile %s successfully added\n", name)
}

func connProfileShowCmd(cmd *cobra.Command, args []string) {
	cpm := config.GlobalConnProfileMgr()

	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	cpList, err := cpm.GetConnProfileList()
	if err != nil {
		nmUsage(cmd, err)
	}

	found := false
	for _, cp := range cpList {
		if name != "" && cp.Name != name {
			continue
		}

		if !found {
			found = true
			fmt.Printf("Connection profiles: \n")
		}
		fmt.Printf("  %s: type=%s, connstring='%s'\n",
			cp.Name, config.ConnTypeToString(cp.Type), cp.ConnString)
	}

	if !found {
		if name == "" {
			fmt.Printf("No connection profiles found!\n")
		} else {
			fmt.Printf("No connection profiles found matching %s\n", name)
		}
	}
}

func connProfileDelCmd(cmd *cobra.Command, args []string) {
	cpm := config.GlobalConnProfileMgr()

	if len(args) == 0 {
		nmUsage(cmd, util.NewNewtError("Need connection profile name"))
	}

	name := args[0]
	if err := cpm.DeleteConnProfile(name); err != nil {
		nmUsage(cmd, err)
	}

	fmt.Printf("Connection profile %s successfully deleted.\n", name)
}

// Lists serial devices that could host a proxy bridge.
func connPortsCmd(cmd *cobra.Command, args []string) {
	ports, err := bugserial.GetPortsList()
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}

	if len(ports) == 0 {
		fmt.Printf("No serial ports found\n")
		return
	}

	sort.Strings(ports)
	for _, p := range ports {
		fmt.Printf("  %s\n", p)
	}
}

func connProfileCmd() *cobra.Command {
	cpCmd := &cobra.Command{
		Use:   "conn",
		Short: "Manage " + meshutil.ToolInfo.ShortName + " connection profiles",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	addHelpText := "Variables:\n" +
		"  type        serial | ble\n" +
		"  connstring  serial: dev=<path>[,baud=<n>][,mtu=<n>]" +
		"[,line_delay_ms=<n>]\n" +
		"              ble: [peer_name=<name>][,peer_addr=<addr>]" +
		"[,ctlr_name=<hci>][,mtu=<n>]\n"

	addCmd := &cobra.Command{
		Use:   "add <conn_profile> <varname=value ...> ",
		Short: "Add a " + meshutil.ToolInfo.ShortName + " connection profile",
		Long:  addHelpText,
		Example: meshutil.ToolInfo.ExeName +
			" conn add mybridge type=serial connstring=dev=/dev/ttyACM0",
		Run: connProfileAddCmd,
	}
	cpCmd.AddCommand(addCmd)

	deleCmd := &cobra.Command{
		Use:   "delete <conn_profile>",
		Short: "Delete a " + meshutil.ToolInfo.ShortName + " connection profile",
		Run:   connProfileDelCmd,
	}
	cpCmd.AddCommand(deleCmd)

	showCmd := &cobra.Command{
		Use:   "show [conn_profile]",
		Short: "Show " + meshutil.ToolInfo.ShortName + " connection profiles",
		Run:   connProfileShowCmd,
	}
	cpCmd.AddCommand(showCmd)

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		Run:   connPortsCmd,
	}
	cpCmd.AddCommand(portsCmd)

	return cpCmd
}
