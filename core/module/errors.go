// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrEmptyIdentifier is returned when a module is requested or defined
	// without an identifier.
	ErrEmptyIdentifier = errors.New("module identifier is empty")
	// ErrCapabilityExists is returned on dynamic capability registration
	// when the name is already taken.
	ErrCapabilityExists = errors.New("capability already exists")
)

// TransformError is returned when a definition could not be turned into a
// module instance. It wraps the underlying failure: constructor error or
// panic, override decode failure, unknown type or mixin.
type TransformError struct {
	Module string
	Err    error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("module %q transformation failed: %s", e.Module, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

func newTransformError(moduleName string, err error) *TransformError {
	return &TransformError{Module: moduleName, Err: err}
}

// LookupError is returned on capability or field lookup miss. It carries the
// module identity and the attribute name, so callers can report context
// without keeping it themselves.
type LookupError struct {
	Module string
	Type   string
	Attr   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("module %q (type %q) has no attribute %q", e.Module, e.Type, e.Attr)
}
