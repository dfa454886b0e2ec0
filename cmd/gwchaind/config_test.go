// Copyright 2024 The Gwchain Authors
// This file is part of Gwchain.
//
// Gwchain is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gwchain is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Gwchain. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	gwlog "github.com/godwokenrises/gwchain/log"
)

func TestLoadNodeConfigEmptyPathReturnsDevnet(t *testing.T) {
	cfg, err := loadNodeConfig("")
	require.NoError(t, err)
	require.Equal(t, devnetConfig(), cfg)
}

func TestLoadNodeConfigYamlRoundTrips(t *testing.T) {
	want := devnetConfig()
	buf, err := yaml.Marshal(want)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, buf, 0o644))

	got, err := loadNodeConfig(path)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadNodeConfigRejectsMissingFile(t *testing.T) {
	_, err := loadNodeConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestBuildStackInitializesGenesisOnFirstBoot(t *testing.T) {
	cfg := devnetConfig()
	s, err := buildStack(context.Background(), "", cfg, gwlog.Nop())
	require.NoError(t, err)
	defer s.Close()

	require.False(t, s.chain.TipBlockHash().IsZero())
	require.Equal(t, uint64(0), s.chain.TipBlockNumber())
	require.NotNil(t, s.pool)
	require.NotNil(t, s.metrics)
}

func TestBuildStackReopensExistingChainWithoutReInit(t *testing.T) {
	cfg := devnetConfig()
	datadir := t.TempDir()

	s1, err := buildStack(context.Background(), datadir, cfg, gwlog.Nop())
	require.NoError(t, err)
	tip := s1.chain.TipBlockHash()
	s1.Close()

	s2, err := buildStack(context.Background(), datadir, cfg, gwlog.Nop())
	require.NoError(t, err)
	defer s2.Close()

	require.Equal(t, tip, s2.chain.TipBlockHash())
	require.Equal(t, uint64(0), s2.chain.TipBlockNumber())
}
