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
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"mynewt.apache.org/meshmgr/meshmgr/meshutil"
	"mynewt.apache.org/meshmgr/meshmgr/report"
	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/xact"
	"mynewt.apache.org/newt/util"
)

var reportBroker string
var globalReporter report.Reporter

func getReporter() (report.Reporter, error) {
	if reportBroker == "" || globalReporter != nil {
		return globalReporter, nil
	}

	r, err := report.ConnectMqtt(report.NewMqttCfg(reportBroker))
	if err != nil {
		return nil, util.ChildNewtError(err)
	}

	globalReporter = r
	return globalReporter, nil
}

func CloseReporter() {
	if globalReporter != nil {
		globalReporter.Close()
	}
}

// The node a command is sent to.  A node named by address is addressed
// directly; a node named by ID is looked up in the network state, which
// also records the outcome.
type target struct {
	nodeId string
	addr   meshdefs.Address
}

func resolveTarget(arg string) (target, error) {
	if a, err := meshdefs.ParseAddressString(arg); err == nil {
		if !a.IsUnicast() {
			return target{}, util.FmtNewtError(
				"node address %s is not unicast", a)
		}
		return target{addr: a}, nil
	}

	st, err := GetStore()
	if err != nil {
		return target{}, err
	}
	if _, err := st.Node(arg); err != nil {
		return target{}, util.ChildNewtError(err)
	}

	return target{nodeId: arg}, nil
}

func (t target) String() string {
	if t.nodeId != "" {
		return t.nodeId
	}
	return t.addr.String()
}

func (t target) apply(c configurable) error {
	if t.nodeId == "" {
		c.SetDestination(t.addr)
		return nil
	}

	st, err := GetStore()
	if err != nil {
		return err
	}
	c.SetStateStore(st, t.nodeId)
	return nil
}

// Runs one configuration command against the target, retrying on timeout.
func runConfig(tgt target, mk func() (configurable, error)) (xact.Result,
	error) {

	s, err := GetSesn()
	if err != nil {
		return xact.Result{}, err
	}

	name := ""
	res, err := xact.RunCmdRetry(s, func() (xact.Cmd, error) {
		c, err := mk()
		if err != nil {
			return nil, err
		}
		if err := tgt.apply(c); err != nil {
			return nil, err
		}
		c.SetAckDelay(meshutil.AckDelay())

		name = c.Name()
		return c, nil
	}, meshutil.TxOptions())

	if name != "" {
		if r, rerr := getReporter(); rerr != nil {
			log.Warnf("Result not reported: %s", rerr.Error())
		} else if r != nil {
			rres := res
			if rres.Err == nil {
				rres.Err = err
			}
			if rerr := r.Report(tgt.String(), name, rres); rerr != nil {
				log.Warnf("Result not reported: %s", rerr.Error())
			}
		}
	}

	if err != nil {
		return res, util.ChildNewtError(err)
	}
	return res, nil
}

func printResult(res xact.Result) {
	if res.Status == nil {
		fmt.Printf("Done\n")
		return
	}

	code := res.StatusCode()
	if !code.Success() {
		fmt.Printf("Error: %s\n", code)
	}

	for _, f := range report.StatusFields(res.Status) {
		fmt.Printf("    %s: %s\n", f.Name, f.Value)
	}
}

func runConfigCmd(tgtArg string, mk func() (configurable, error)) {
	tgt, err := resolveTarget(tgtArg)
	if err != nil {
		nmUsage(nil, err)
	}

	res, err := runConfig(tgt, mk)
	if err != nil {
		nmUsage(nil, err)
	}

	printResult(res)
}

func argU16(name string, s string) uint16 {
	v, err := cast.ToUint16E(s)
	if err != nil {
		nmUsage(nil, util.FmtNewtError("invalid %s: %s", name, s))
	}
	return v
}

func argU8(name string, s string) uint8 {
	v, err := cast.ToUint8E(s)
	if err != nil {
		nmUsage(nil, util.FmtNewtError("invalid %s: %s", name, s))
	}
	return v
}

func compGetRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, nil)
	}

	step := &compGetStep{}
	if len(args) > 1 {
		step.Page = argU8("page", args[1])
	}

	runConfigCmd(args[0], step.build)
}

func appKeyRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 3 {
		nmUsage(cmd, nil)
	}

	step := &appKeyStep{
		NetKeyIndex: argU16("net key index", args[1]),
		AppKeyIndex: argU16("app key index", args[2]),
	}
	if len(args) > 3 {
		step.AppKey = args[3]
	}

	runConfigCmd(args[0], func() (configurable, error) {
		st, err := GetStore()
		if err != nil {
			return nil, err
		}
		return step.build(st)
	})
}

func bindRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 4 {
		nmUsage(cmd, nil)
	}

	step := &bindStep{
		Element:     argU16("element address", args[1]),
		AppKeyIndex: argU16("app key index", args[2]),
		Model:       args[3],
	}

	runConfigCmd(args[0], step.build)
}

func pubSetCmd() *cobra.Command {
	var ttl, period, count, itvl uint8
	var cred bool

	run := func(cmd *cobra.Command, args []string) {
		if len(args) < 5 {
			nmUsage(cmd, nil)
		}

		step := &pubSetStep{
			Element:     argU16("element address", args[1]),
			Model:       args[2],
			Address:     argU16("publish address", args[3]),
			AppKeyIndex: argU16("app key index", args[4]),
			Credential:  cred,
		}

		flags := cmd.Flags()
		if flags.Changed("ttl") {
			step.Ttl = &ttl
		}
		if flags.Changed("period") {
			step.Period = &period
		}
		if flags.Changed("count") {
			step.RetransmitCount = &count
		}
		if flags.Changed("interval") {
			step.RetransmitInterval = &itvl
		}

		runConfigCmd(args[0], step.build)
	}

	pubSetEx := meshutil.ToolInfo.ExeName +
		" pubset lamp 0x0002 1000 0xc000 1 -c mybridge\n"
	pubSetEx += meshutil.ToolInfo.ExeName +
		" pubset 0x0002 0x0002 0059:0001 0xc001 1 --ttl 7 -c mybridge\n"

	c := &cobra.Command{
		Use: "pubset <node> <element> <model> <publish-addr> " +
			"<app-key-idx> -c <conn_profile>",
		Short:   "Set a model's publication address",
		Example: pubSetEx,
		Run:     run,
	}

	c.Flags().Uint8Var(&ttl, "ttl", 4, "publish TTL")
	c.Flags().Uint8Var(&period, "period", 1, "publish period")
	c.Flags().Uint8Var(&count, "count", 2, "publish retransmit count")
	c.Flags().Uint8Var(&itvl, "interval", 5, "publish retransmit interval")
	c.Flags().BoolVar(&cred, "credential", false, "use friendship credentials")

	return c
}

func subAddRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 4 {
		nmUsage(cmd, nil)
	}

	step := &subAddStep{
		Element: argU16("element address", args[1]),
		Model:   args[2],
		Address: argU16("subscription address", args[3]),
	}

	runConfigCmd(args[0], step.build)
}

func resetRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, nil)
	}

	runConfigCmd(args[0], func() (configurable, error) {
		return xact.NewNodeResetCmd(), nil
	})
}

func configCmds() []*cobra.Command {
	nodeHelp := "<node> is a node ID from the network state or a unicast " +
		"address (0x0001-0x7fff).\nNodes named by ID have their state " +
		"updated on success.\n"

	return []*cobra.Command{
		&cobra.Command{
			Use:   "compget <node> [page] -c <conn_profile>",
			Short: "Read a node's composition data",
			Long:  nodeHelp,
			Run:   compGetRunCmd,
		},
		&cobra.Command{
			Use: "appkey <node> <net-key-idx> <app-key-idx> [app-key-hex] " +
				"-c <conn_profile>",
			Short: "Add an AppKey to a node",
			Long: nodeHelp + "If app-key-hex is omitted, the key stored " +
				"under app-key-idx in the network state is sent.\n",
			Run: appKeyRunCmd,
		},
		&cobra.Command{
			Use:   "bind <node> <element> <app-key-idx> <model> -c <conn_profile>",
			Short: "Bind an AppKey to a model",
			Long:  nodeHelp,
			Run:   bindRunCmd,
		},
		pubSetCmd(),
		&cobra.Command{
			Use:   "subadd <node> <element> <model> <addr> -c <conn_profile>",
			Short: "Add a subscription address to a model",
			Long:  nodeHelp,
			Run:   subAddRunCmd,
		},
		&cobra.Command{
			Use:   "reset <node> -c <conn_profile>",
			Short: "Reset a node and remove it from the network",
			Long:  nodeHelp,
			Run:   resetRunCmd,
		},
	}
}
