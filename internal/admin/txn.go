// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package admin

// Optimistic applies a speculative local update and then attempts the
// backend commit. On commit failure the target is restored to the
// snapshot taken before apply ran, and the commit error is returned.
//
// target must not be shared across goroutines while the transaction is
// in flight; the helper takes a value snapshot, so S should be a value
// type or a struct without aliased pointers for the fields apply
// touches.
func Optimistic[S any](target *S, apply func(*S), commit func() error) error {
	snapshot := *target
	apply(target)
	if err := commit(); err != nil {
		*target = snapshot
		return err
	}
	return nil
}
