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

package xport

// Called with each chunk received from the remote proxy.
type RxFn func(b []byte)

// A link to a mesh proxy node.  Each Tx call writes exactly one chunk; the
// chunk must not exceed MaxWriteLen.
type Xport interface {
	// Opens the link and begins delivering inbound chunks to rx.
	Start(rx RxFn) error
	Stop() error

	// @param rsp               Whether the link layer should wait for a
	//                              write acknowledgement.
	Tx(b []byte, rsp bool) error

	MaxWriteLen() int
}
