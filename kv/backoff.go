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

package kv

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// IsTransient classifies an error as worth retrying. Only the KV layer's
// own transient failures (write-write conflicts, and whatever the
// concrete engine flags as transient) are retried; everything else
// (corruption, missing key, proof mismatch) is fatal per spec §7.
type IsTransient func(error) bool

// DefaultIsTransient retries exactly the optimistic write-write conflict;
// a concrete engine may widen this (e.g. MDBX MAP_FULL during a retry
// window) by supplying its own IsTransient to RetryUpdate.
func DefaultIsTransient(err error) bool {
	return err == ErrWriteConflict
}

// RetryUpdate runs fn against db.Update, retrying transient failures
// with exponential backoff: base 500ms, factor 2, cap 32x, with jitter
// (spec §7 retry policy).
func RetryUpdate(ctx context.Context, db DB, isTransient IsTransient, fn func(Tx) error) error {
	if isTransient == nil {
		isTransient = DefaultIsTransient
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.Multiplier = 2
	b.MaxInterval = 32 * b.InitialInterval
	b.MaxElapsedTime = 0 // caller controls total budget via ctx
	bctx := backoff.WithContext(b, ctx)

	return backoff.Retry(func() error {
		err := db.Update(ctx, fn)
		if err == nil {
			return nil
		}
		if isTransient(err) {
			return err // retryable
		}
		return backoff.Permanent(err)
	}, bctx)
}
