// Copyright (c) 2018 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package testutil

import (
	"io"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ReadString(t TestingT, r io.Reader) string {
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(data)
}

func ReadFileString(t TestingT, fs afero.Fs, name string) string {
	getHelper(t).Helper()
	data, err := afero.ReadFile(fs, name)
	require.NoError(t, err)
	return string(data)
}

func WriteFileString(t TestingT, fs afero.Fs, name string, data string) {
	getHelper(t).Helper()
	err := afero.WriteFile(fs, name, []byte(data), 0644)
	require.NoError(t, err)
}

func AssertFileEqual(t TestingT, fs afero.Fs, name string, expected string) {
	getHelper(t).Helper()
	actual := ReadFileString(t, fs, name)
	assert.Equal(t, expected, actual)
}
