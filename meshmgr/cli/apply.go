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
	"mynewt.apache.org/meshmgr/meshxact/meshstate"
)

// Opens the network state if the plan updates a stored node or reads an
// AppKey from it.  Returns nil when neither applies.
func planStore(p *Plan, tgt target) (meshstate.Store, error) {
	need := tgt.nodeId != ""
	for _, s := range p.Steps {
		if s.AppKey != nil && s.AppKey.AppKey == "" {
			need = true
		}
	}
	if !need {
		return nil, nil
	}

	return GetStore()
}

func applyRunCmd(cmd *cobra.Command, args []string) {
	if len(args) < 1 {
		nmUsage(cmd, nil)
	}

	plan, err := ReadPlan(args[0])
	if err != nil {
		nmUsage(nil, err)
	}

	tgt, err := resolveTarget(plan.Node)
	if err != nil {
		nmUsage(nil, err)
	}

	st, err := planStore(plan, tgt)
	if err != nil {
		nmUsage(nil, err)
	}

	for i := range plan.Steps {
		step := &plan.Steps[i]
		log.Debugf("Applying step %d of %d", i+1, len(plan.Steps))

		res, err := runConfig(tgt, func() (configurable, error) {
			return step.build(st)
		})
		if err != nil {
			nmUsage(nil, err)
		}

		fmt.Printf("[%d/%d] ", i+1, len(plan.Steps))
		printResult(res)

		if !res.StatusCode().Success() {
			fmt.Printf("Stopping; %d step(s) not applied\n",
				len(plan.Steps)-i-1)
			return
		}
	}
}

func applyCmd() *cobra.Command {
	applyHelpText := "Apply a YAML configuration plan to a node.  Steps run " +
		"in order and stop\nat the first failure.  Example plan:\n\n" +
		"  node: lamp\n" +
		"  steps:\n" +
		"    - appkey: {net_key_index: 0, app_key_index: 1}\n" +
		"    - bind: {element: 0x0002, app_key_index: 1, model: \"1000\"}\n" +
		"    - pubset: {element: 0x0002, model: \"1000\", " +
		"address: 0xc000, app_key_index: 1}\n" +
		"    - subadd: {element: 0x0002, model: \"1000\", address: 0xc001}\n"

	return &cobra.Command{
		Use:     "apply <plan-file> -c <conn_profile>",
		Short:   "Apply a configuration plan to a node",
		Long:    applyHelpText,
		Example: meshutil.ToolInfo.ExeName + " apply lamp.yml -c mybridge",
		Run:     applyRunCmd,
	}
}
