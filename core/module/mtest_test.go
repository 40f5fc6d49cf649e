// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

// mtest vocabulary, test module and mixin types for registry and
// transformation specs.

import (
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"

	"github.com/buildeasy/buildeasy/core/config"
)

const (
	mtestType      = "mtest_type"
	mtestName      = "mtest_module"
	mtestEchoName  = "mtest_echo"
	mtestOtherName = "mtest_other"

	mtestInitValue    = "init"
	mtestDefaultValue = "default"
	mtestFilledValue  = "filled"
)

type mtestImpl struct {
	Value string
}

func (i *mtestImpl) Report() string       { return i.Value }
func (i *mtestImpl) SetValue(v string)    { i.Value = v }
func (i *mtestImpl) Echo(s string) string { return "own:" + s }

type mtestConfig struct {
	Value string `config:"value"`
}

func (c mtestConfig) expectConfigValue(val string) { Expect(c.Value).To(Equal(val)) }

type confChecker interface{ expectConfigValue(val string) }

func expectConfigValue(conf interface{}, val string) {
	checker, ok := conf.(confChecker)
	Expect(ok).To(BeTrue())
	checker.expectConfigValue(val)
}

var mtestCreateFailedErr = errors.New("mtest module create failed")

func mtestNew() *mtestImpl                      { return &mtestImpl{Value: mtestInitValue} }
func mtestNewConf(c mtestConfig) *mtestImpl     { return &mtestImpl{Value: c.Value} }
func mtestNewPtrConf(c *mtestConfig) *mtestImpl { return &mtestImpl{Value: c.Value} }
func mtestNewErr() (*mtestImpl, error)          { return &mtestImpl{Value: mtestInitValue}, nil }
func mtestNewErrFailing() (*mtestImpl, error)   { return nil, mtestCreateFailedErr }
func mtestNewPanicking() *mtestImpl             { panic("mtest constructor panic") }

func mtestDefaultConf() mtestConfig        { return mtestConfig{mtestDefaultValue} }
func mtestNewDefaultPtrConf() *mtestConfig { return &mtestConfig{mtestDefaultValue} }

func mtestOverrides() map[string]interface{} {
	return map[string]interface{}{"value": mtestFilledValue}
}

func mtestFillConf(conf interface{}) error {
	return config.Decode(map[string]interface{}{"Value": mtestFilledValue}, conf)
}

// mtestEchoMixin donates echo and report capabilities, to check that own
// capabilities win over mixin ones.
type mtestEchoMixin struct {
	Prefix string `config:"prefix"`
}

func (m *mtestEchoMixin) Echo(s string) string { return m.Prefix + s }
func (m *mtestEchoMixin) Report() string       { return "mixin report" }
func (m *mtestEchoMixin) Shared() string       { return "echo shared" }

func mtestNewEchoMixin(c *mtestEchoMixin) *mtestEchoMixin {
	if c.Prefix == "" {
		c.Prefix = "echo:"
	}
	return c
}

type mtestOtherMixin struct{}

func (m *mtestOtherMixin) Shared() string { return "other shared" }

func mtestNewOtherMixin() *mtestOtherMixin { return &mtestOtherMixin{} }

func recoverExpectationFail() {
	r := recover()
	Expect(r).NotTo(BeNil())
	Expect(r).To(ContainSubstring("expectation failed"))
}
