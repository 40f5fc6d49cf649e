// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

// Package module turns registered Go constructors into named singleton
// instances with uniform capability tables.
//
// A module type is registered once under a unique name with a constructor
// like:
//
//	func([config Conf|*Conf]) (Impl[, error])
//
// and an optional default config factory:
//
//	func() Conf
//
// A module definition binds an identifier to a registered type, with
// optional config overrides, mixins and static capabilities. The first Get
// or Registry.Instance call with a definition name resolves the config
// (overrides win over the default config, the default config over zero
// values), runs the constructor and harvests exported methods of the
// implementation into a capability table under snake case names. Every
// later call returns the same instance. A failed transformation is not
// cached, so nothing half constructed is ever observable.
//
// Mixins are registered like module types, but act as capability donors:
// an instance that declares mixins gets their capabilities merged into its
// table in declaration order, later mixins overwriting earlier ones, own
// capabilities always winning.
//
// Type, mixin and definition registration is expected at init time, and
// panics on programmer errors. Materialize registers definitions at runtime
// and returns errors instead. Override decode and constructors may resolve
// other modules from the registry that is constructing them; a definition
// that resolves itself, directly or through its overrides, recurses without
// end.
package module
