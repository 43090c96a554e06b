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
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"mynewt.apache.org/meshmgr/meshxact/meshdefs"
	"mynewt.apache.org/meshmgr/meshxact/meshstate"
	"mynewt.apache.org/newt/util"
)

func newNode(addrStr string, id string) (*meshstate.Node, error) {
	addr, err := meshdefs.ParseAddressString(addrStr)
	if err != nil {
		return nil, util.ChildNewtError(err)
	}
	if !addr.IsUnicast() {
		return nil, util.FmtNewtError("node address %s is not unicast", addr)
	}

	if id == "" {
		id = uuid.New().String()
	}

	return meshstate.NewNode(id, addr), nil
}

func nodeAddCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, util.NewNewtError("Need node unicast address"))
	}

	id := ""
	if len(args) > 1 {
		id = args[1]
	}

	n, err := newNode(args[0], id)
	if err != nil {
		nmUsage(cmd, err)
	}

	st, err := GetStore()
	if err != nil {
		nmUsage(nil, err)
	}
	if err := st.AddNode(n); err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Node %s (%s) successfully added\n", n.NodeId, n.Unicast)
}

func sortedKeys(m map[string][]meshdefs.Address) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printNode(n *meshstate.Node) {
	fmt.Printf("  %s: unicast=%s\n", n.NodeId, n.Unicast)

	if len(n.AppKeys) > 0 {
		fmt.Printf("    app keys: %v\n", n.AppKeys)
	}

	models := map[string][]meshdefs.Address{}
	for k := range n.ModelKeyBindings {
		models[k] = nil
	}
	for k := range n.ModelPublishAddresses {
		models[k] = nil
	}
	for k, subs := range n.ModelSubscriptions {
		models[k] = subs
	}

	for _, k := range sortedKeys(models) {
		fmt.Printf("    model %s:", k)
		if idx, ok := n.ModelKeyBindings[k]; ok {
			fmt.Printf(" app_key=%s", idx)
		}
		if pub, ok := n.ModelPublishAddresses[k]; ok {
			fmt.Printf(" pub=%s", pub)
		}
		if len(models[k]) > 0 {
			fmt.Printf(" subs=%v", models[k])
		}
		fmt.Printf("\n")
	}

	if len(n.CompositionData) > 0 {
		fmt.Printf("    composition: %s\n",
			hex.EncodeToString(n.CompositionData))
	}
}

func nodeShowCmd(cmd *cobra.Command, args []string) {
	st, err := GetStore()
	if err != nil {
		nmUsage(nil, err)
	}

	nodes, err := st.Nodes()
	if err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}

	found := false
	for _, n := range nodes {
		if len(args) > 0 && n.NodeId != args[0] {
			continue
		}

		if !found {
			found = true
			fmt.Printf("Nodes:\n")
		}
		printNode(n)
	}

	if !found {
		fmt.Printf("No nodes found\n")
	}
}

func nodeDelCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, util.NewNewtError("Need node ID"))
	}

	st, err := GetStore()
	if err != nil {
		nmUsage(nil, err)
	}
	if err := st.RemoveNode(args[0]); err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("Node %s successfully deleted.\n", args[0])
}

func generateAppKey() (meshdefs.AppKey, error) {
	var k meshdefs.AppKey
	if _, err := rand.Read(k[:]); err != nil {
		return k, util.ChildNewtError(err)
	}
	return k, nil
}

func nodeKeyCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, util.NewNewtError("Need app key index"))
	}

	idx, err := keyIndex(argU16("app key index", args[0]))
	if err != nil {
		nmUsage(nil, err)
	}

	var key meshdefs.AppKey
	if len(args) > 1 {
		key, err = parseAppKey(args[1])
	} else {
		key, err = generateAppKey()
	}
	if err != nil {
		nmUsage(nil, err)
	}

	st, err := GetStore()
	if err != nil {
		nmUsage(nil, err)
	}
	if err := st.PutAppKey(idx, key); err != nil {
		nmUsage(nil, util.ChildNewtError(err))
	}

	fmt.Printf("App key %s stored: %s\n", idx, hex.EncodeToString(key[:]))
}

func nodeCmd() *cobra.Command {
	nCmd := &cobra.Command{
		Use:   "node",
		Short: "Manage the network state",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	nCmd.AddCommand(&cobra.Command{
		Use:   "add <unicast-addr> [node-id]",
		Short: "Add a provisioned node; a random ID is assigned if none given",
		Run:   nodeAddCmd,
	})

	nCmd.AddCommand(&cobra.Command{
		Use:   "show [node-id]",
		Short: "Show one or all nodes",
		Run:   nodeShowCmd,
	})

	nCmd.AddCommand(&cobra.Command{
		Use:   "delete <node-id>",
		Short: "Remove a node from the network state",
		Run:   nodeDelCmd,
	})

	nCmd.AddCommand(&cobra.Command{
		Use:   "appkey <app-key-idx> [app-key-hex]",
		Short: "Store an AppKey; a random key is generated if none given",
		Run:   nodeKeyCmd,
	})

	return nCmd
}
