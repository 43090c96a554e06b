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
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mynewt.apache.org/meshmgr/meshmgr/config"
	"mynewt.apache.org/meshmgr/meshmgr/meshutil"
	"mynewt.apache.org/meshmgr/meshxact/meshble"
	"mynewt.apache.org/meshmgr/meshxact/meshserial"
	"mynewt.apache.org/meshmgr/meshxact/meshstate"
	"mynewt.apache.org/meshmgr/meshxact/sesn"
	"mynewt.apache.org/meshmgr/meshxact/xport"
	"mynewt.apache.org/newt/util"
)

var globalSesn *sesn.Sesn
var globalXport xport.Xport
var globalStore meshstate.Store

var onExit func()

func NmSetOnExit(fn func()) {
	onExit = fn
}

func nmUsage(cmd *cobra.Command, err error) {
	if err != nil {
		sErr, ok := err.(*util.NewtError)
		if !ok {
			sErr = util.ChildNewtError(err)
		}
		log.Debugf("%s", sErr.StackTrace)
		fmt.Fprintf(os.Stderr, "Error: %s\n", sErr.Text)
	}

	if cmd != nil {
		fmt.Printf("\n")
		fmt.Printf("%s - ", cmd.Name())
		cmd.Help()
	}

	if onExit != nil {
		onExit()
	}
	os.Exit(1)
}

func getConnProfile() (*config.ConnProfile, error) {
	if meshutil.ConnType != "" {
		ct, err := config.ConnTypeFromString(meshutil.ConnType)
		if err != nil {
			return nil, err
		}

		return &config.ConnProfile{
			Name:       "(command line)",
			Type:       ct,
			ConnString: meshutil.ConnString,
		}, nil
	}

	if meshutil.ConnProfile == "" {
		return nil, util.NewNewtError(
			"no connection specified; use --conn or --conntype")
	}

	return config.GlobalConnProfileMgr().GetConnProfile(meshutil.ConnProfile)
}

func buildXport(cp *config.ConnProfile) (xport.Xport, error) {
	switch cp.Type {
	case config.CONN_TYPE_SERIAL:
		sc, err := config.ParseSerialConnString(cp.ConnString,
			meshutil.TxOptions().Timeout)
		if err != nil {
			return nil, err
		}
		return meshserial.NewSerialXport(sc), nil

	case config.CONN_TYPE_BLE:
		bc, err := config.ParseBleConnString(cp.ConnString)
		if err != nil {
			return nil, err
		}
		if meshutil.DeviceName != "" {
			bc.PeerName = meshutil.DeviceName
		}

		if err := meshble.InitDevice(bc.CtlrName); err != nil {
			return nil, err
		}
		return meshble.NewProxyXport(bc), nil

	default:
		return nil, util.FmtNewtError("Unknown connection type: %s (%d)",
			config.ConnTypeToString(cp.Type), int(cp.Type))
	}
}

func GetXportIfOpen() (xport.Xport, error) {
	if globalXport == nil {
		return nil, fmt.Errorf("xport not initialized")
	}

	return globalXport, nil
}

// Opens the session described by the selected connection profile.  The
// session is opened once and reused by later calls.
func GetSesn() (*sesn.Sesn, error) {
	if globalSesn != nil {
		return globalSesn, nil
	}

	cp, err := getConnProfile()
	if err != nil {
		return nil, err
	}
	log.Debugf("Using connection profile: %s", cp.String())

	x, err := buildXport(cp)
	if err != nil {
		return nil, util.ChildNewtError(err)
	}
	globalXport = x

	sc := sesn.NewSesnCfg()
	sc.Name = cp.Name
	sc.WriteRsp = meshutil.WriteRsp

	s := sesn.NewSesn(x, sc)
	if err := s.Open(); err != nil {
		return nil, util.ChildNewtError(err)
	}
	globalSesn = s

	return globalSesn, nil
}

func GetSesnIfOpen() (*sesn.Sesn, error) {
	if globalSesn == nil {
		return nil, fmt.Errorf("sesn not initialized")
	}

	return globalSesn, nil
}

func statePath() (string, error) {
	if meshutil.StateFile != "" {
		return meshutil.StateFile, nil
	}

	p, err := meshstate.DfltStatePath()
	if err != nil {
		return "", util.ChildNewtError(err)
	}
	return p, nil
}

// Opens the network state store.  Paths ending in .db select the SQLite
// store; anything else is a JSON state file.
func GetStore() (meshstate.Store, error) {
	if globalStore != nil {
		return globalStore, nil
	}

	path, err := statePath()
	if err != nil {
		return nil, err
	}

	var st meshstate.Store
	switch filepath.Ext(path) {
	case ".db", ".sqlite":
		st, err = meshstate.OpenSqlStore(path)
	default:
		st, err = meshstate.OpenFileStore(path)
	}
	if err != nil {
		return nil, util.ChildNewtError(err)
	}

	globalStore = st
	return globalStore, nil
}

// Closes any store that holds an open handle.
func CloseStore() {
	if sq, ok := globalStore.(*meshstate.SqlStore); ok {
		sq.Close()
	}
}
