// Copyright (c) 2018 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package testutil

import (
	"strings"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// ParseYAML parses data into a map the way the config file reader does.
func ParseYAML(t TestingT, data string) map[string]interface{} {
	getHelper(t).Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	err := v.ReadConfig(strings.NewReader(data))
	require.NoError(t, err)
	return v.AllSettings()
}
