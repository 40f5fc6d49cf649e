// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package testutil

import (
	"testing"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/format"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func RunSuite(t *testing.T, description string) {
	format.UseStringerRepresentation = true // Otherwise error stacks have binary format.
	log := NewGinkgoLogger()
	zap.ReplaceGlobals(log)
	zap.RedirectStdLog(log)
	RegisterFailHandler(Fail)
	RunSpecs(t, description)
}

func NewGinkgoLogger() *zap.Logger {
	conf := zap.NewDevelopmentConfig()
	enc := zapcore.NewConsoleEncoder(conf.EncoderConfig)
	core := zapcore.NewCore(enc, zapcore.AddSync(GinkgoWriter), zap.DebugLevel)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zap.DPanicLevel))
}
