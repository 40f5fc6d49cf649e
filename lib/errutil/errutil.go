// Copyright (c) 2018 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package errutil

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

func Join(err1, err2 error) error {
	switch {
	case err1 == nil:
		return err2
	case err2 == nil:
		return err1
	default:
		return multierror.Append(err1, err2)
	}
}

// IsCtxError reports whether err is absent or caused by ctx cancel.
// Use it to keep expected shutdown errors out of failure logs.
func IsCtxError(ctx context.Context, err error) bool {
	if err == nil {
		return true
	}
	select {
	case <-ctx.Done():
		if ctx.Err() == errors.Cause(err) { // Support github.com/pkg/errors wrapping.
			return true
		}
	default:
	}
	return false
}
