// Copyright (c) 2018 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package testutil

import (
	"github.com/stretchr/testify/require"
)

type TestingT interface {
	require.TestingT
}

func getHelper(t TestingT) helper {
	var tInterface interface{} = t
	if h, ok := tInterface.(helper); ok {
		return h
	}
	return nopHelper{}
}

type nopHelper struct{}

func (nopHelper) Helper() {}

type helper interface {
	Helper()
}
