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

// Package metrics exposes the service's Prometheus instrumentation:
// mem-pool occupancy, generator VM cycle usage, and chain
// submit/revert/bad-block counters. Grounded on the
// prometheus/client_golang usage pattern in the retrieval pack
// (orbas1-Synnergy's system_health_logging.go), adapted to this
// module's own gauges/counters and served over promhttp instead of a
// periodic JSON dump.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every gauge/counter the C6-C8 packages report
// through. It carries its own prometheus.Registry rather than using
// the global DefaultRegisterer, so tests can construct disposable
// instances without colliding on registration.
type Metrics struct {
	registry *prometheus.Registry

	TxPoolPending     prometheus.Gauge
	TxPoolWithdrawals prometheus.Gauge
	TxPoolPackaged    prometheus.Counter
	TxPoolRejected    prometheus.Counter

	GeneratorCyclesUsed   prometheus.Histogram
	GeneratorTxApplied    prometheus.Counter
	GeneratorTxReverted   prometheus.Counter

	ChainTipBlockNumber prometheus.Gauge
	ChainBadBlocks      prometheus.Counter
	ChainReverts        prometheus.Counter
	ChainHalted         prometheus.Gauge
}

// New builds a Metrics instance with every collector registered
// against a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,

		TxPoolPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gwchain_txpool_pending_transactions",
			Help: "Number of transactions currently queued in the mem-pool.",
		}),
		TxPoolWithdrawals: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gwchain_txpool_pending_withdrawals",
			Help: "Number of withdrawal requests currently queued in the mem-pool.",
		}),
		TxPoolPackaged: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwchain_txpool_packaged_total",
			Help: "Total number of entries drained by Pool.Package calls.",
		}),
		TxPoolRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwchain_txpool_rejected_total",
			Help: "Total number of push/refresh rejections (bad nonce, signature, insufficient balance, ...).",
		}),

		GeneratorCyclesUsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "gwchain_generator_cycles_used",
			Help:    "VM cycles consumed per applied transaction.",
			Buckets: prometheus.ExponentialBuckets(1<<10, 4, 10),
		}),
		GeneratorTxApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwchain_generator_transactions_applied_total",
			Help: "Total number of transactions successfully applied by the generator.",
		}),
		GeneratorTxReverted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwchain_generator_transactions_reverted_total",
			Help: "Total number of transactions whose VM dispatch reverted (nonzero exit code or dispatch error).",
		}),

		ChainTipBlockNumber: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gwchain_chain_tip_block_number",
			Help: "Current local tip block number.",
		}),
		ChainBadBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwchain_chain_bad_blocks_total",
			Help: "Total number of submitted blocks rejected for a state-checkpoint mismatch.",
		}),
		ChainReverts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gwchain_chain_reverted_blocks_total",
			Help: "Total number of blocks undone via Chain.Revert.",
		}),
		ChainHalted: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gwchain_chain_halted",
			Help: "1 if the rollup is currently halted pending challenge resolution, else 0.",
		}),
	}

	reg.MustRegister(
		m.TxPoolPending, m.TxPoolWithdrawals, m.TxPoolPackaged, m.TxPoolRejected,
		m.GeneratorCyclesUsed, m.GeneratorTxApplied, m.GeneratorTxReverted,
		m.ChainTipBlockNumber, m.ChainBadBlocks, m.ChainReverts, m.ChainHalted,
	)
	return m
}

// Handler returns the http.Handler serving m's collectors in the
// Prometheus exposition format, wired under "/metrics" by cmd/gwchaind.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
