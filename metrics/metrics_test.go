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

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandlerServesRegisteredCollectors(t *testing.T) {
	m := New()
	m.ChainTipBlockNumber.Set(42)
	m.TxPoolPending.Set(3)
	m.ChainBadBlocks.Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "gwchain_chain_tip_block_number 42"))
	require.True(t, strings.Contains(body, "gwchain_txpool_pending_transactions 3"))
	require.True(t, strings.Contains(body, "gwchain_chain_bad_blocks_total 1"))
}

func TestNewRegistersIndependentInstances(t *testing.T) {
	a := New()
	b := New()
	a.ChainTipBlockNumber.Set(1)
	b.ChainTipBlockNumber.Set(2)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	recA := httptest.NewRecorder()
	a.Handler().ServeHTTP(recA, req)
	require.True(t, strings.Contains(recA.Body.String(), "gwchain_chain_tip_block_number 1"))

	recB := httptest.NewRecorder()
	b.Handler().ServeHTTP(recB, req)
	require.True(t, strings.Contains(recB.Body.String(), "gwchain_chain_tip_block_number 2"))
}
