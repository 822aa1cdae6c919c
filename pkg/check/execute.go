// SPDX-License-Identifier: GPL-3.0-or-later

package check

import (
	"context"
)

// Session is an open connection to a device or resolver.
type Session interface {
	Close() error
}

// Execute opens exactly one session, runs query over it and closes it on every path.
// Open failures are reported as *ConnectionError and query failures as *QueryError,
// unless the callee already returned a typed error.
func Execute[S Session, T any](
	ctx context.Context,
	target string,
	open func(context.Context) (S, error),
	query func(context.Context, S) (T, error),
) (T, error) {
	var zero T

	sess, err := open(ctx)
	if err != nil {
		if isTyped(err) {
			return zero, err
		}
		return zero, &ConnectionError{Target: target, Err: err}
	}
	defer func() { _ = sess.Close() }()

	res, err := query(ctx, sess)
	if err != nil {
		if isTyped(err) {
			return zero, err
		}
		return zero, &QueryError{Err: err}
	}

	return res, nil
}
