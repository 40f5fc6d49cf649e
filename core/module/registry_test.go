// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

import (
	"reflect"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

func (r *Registry) mtestRegisterType(newModule interface{}, newDefaultConfigOptional ...interface{}) {
	r.RegisterType(mtestType, newModule, newDefaultConfigOptional...)
}

var _ = Describe("type register", func() {
	It("valid", func() {
		r := NewRegistry()
		r.mtestRegisterType(mtestNew)
		Expect(r.LookupType(mtestType)).To(BeTrue())
		Expect(r.TypeNames()).To(Equal([]string{mtestType}))
	})

	It("duplicate name", func() {
		r := NewRegistry()
		r.mtestRegisterType(mtestNew)
		defer recoverExpectationFail()
		r.mtestRegisterType(mtestNew)
	})

	It("empty name", func() {
		r := NewRegistry()
		defer recoverExpectationFail()
		r.RegisterType("", mtestNew)
	})

	table.DescribeTable("invalid constructor",
		func(newModule interface{}, newDefaultConfigOptional ...interface{}) {
			r := NewRegistry()
			defer recoverExpectationFail()
			r.mtestRegisterType(newModule, newDefaultConfigOptional...)
		},
		table.Entry("not func",
			errors.New("that is not constructor")),
		table.Entry("too many inputs",
			func(_, _ mtestConfig) *mtestImpl { panic("") }),
		table.Entry("no outputs",
			func() { panic("") }),
		table.Entry("too many outputs",
			func() (*mtestImpl, error, error) { panic("") }),
		table.Entry("second output not error",
			func() (*mtestImpl, string) { panic("") }),
		table.Entry("func output",
			func() func() *mtestImpl { panic("") }),
		table.Entry("default config without config input",
			mtestNew, mtestDefaultConf),
		table.Entry("default config accepts input",
			mtestNewConf, func(int) mtestConfig { panic("") }),
		table.Entry("default config type mismatch",
			mtestNewConf, mtestNewDefaultPtrConf),
	)
})

var _ = Describe("mixin register", func() {
	It("valid", func() {
		r := NewRegistry()
		r.RegisterMixin(mtestEchoName, mtestNewEchoMixin)
		Expect(r.LookupMixin(mtestEchoName)).To(BeTrue())
		Expect(r.MixinNames()).To(Equal([]string{mtestEchoName}))
	})

	It("duplicate name", func() {
		r := NewRegistry()
		r.RegisterMixin(mtestEchoName, mtestNewEchoMixin)
		defer recoverExpectationFail()
		r.RegisterMixin(mtestEchoName, mtestNewEchoMixin)
	})
})

var _ = Describe("definition register", func() {
	It("valid", func() {
		r := NewRegistry()
		r.Register(Definition{Name: mtestName, Type: mtestType})
		Expect(r.Lookup(mtestName)).To(BeTrue())
		Expect(r.Names()).To(Equal([]string{mtestName}))
	})

	It("type defaults to name", func() {
		r := NewRegistry()
		r.RegisterType(mtestName, mtestNew)
		r.Register(Definition{Name: mtestName})
		inst, err := r.Instance(mtestName)
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Info().Type).To(Equal(mtestName))
	})

	It("empty name", func() {
		r := NewRegistry()
		defer recoverExpectationFail()
		r.Register(Definition{})
	})

	It("duplicate name", func() {
		r := NewRegistry()
		r.Register(Definition{Name: mtestName, Type: mtestType})
		defer recoverExpectationFail()
		r.Register(Definition{Name: mtestName, Type: mtestType})
	})

	It("static not func", func() {
		r := NewRegistry()
		defer recoverExpectationFail()
		r.Register(Definition{
			Name:    mtestName,
			Type:    mtestType,
			Statics: map[string]interface{}{"version": "0.1.0"},
		})
	})

	It("static reserved name", func() {
		r := NewRegistry()
		defer recoverExpectationFail()
		r.Register(Definition{
			Name:    mtestName,
			Type:    mtestType,
			Statics: map[string]interface{}{InstanceCapability: func() {}},
		})
	})
})

var _ = Describe("default config container", func() {
	table.DescribeTable("get",
		func(newModule interface{}, newDefaultConfig interface{}, fillConf func(interface{}) error, expectedValue string) {
			container := newDefaultConfigContainer(reflect.TypeOf(newModule), newDefaultConfig)
			maybeConf, err := container.Get(fillConf)
			Expect(err).NotTo(HaveOccurred())
			Expect(maybeConf).To(HaveLen(1))
			expectConfigValue(maybeConf[0].Interface(), expectedValue)
		},
		table.Entry("zero config",
			mtestNewConf, nil, nil, ""),
		table.Entry("default config",
			mtestNewConf, mtestDefaultConf, nil, mtestDefaultValue),
		table.Entry("zero ptr config",
			mtestNewPtrConf, nil, nil, ""),
		table.Entry("default ptr config",
			mtestNewPtrConf, mtestNewDefaultPtrConf, nil, mtestDefaultValue),
		table.Entry("fill over zero",
			mtestNewConf, nil, mtestFillConf, mtestFilledValue),
		table.Entry("fill over default",
			mtestNewConf, mtestDefaultConf, mtestFillConf, mtestFilledValue),
		table.Entry("fill over default ptr",
			mtestNewPtrConf, mtestNewDefaultPtrConf, mtestFillConf, mtestFilledValue),
	)

	It("no config required", func() {
		container := newDefaultConfigContainer(reflect.TypeOf(mtestNew), nil)
		maybeConf, err := container.Get(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(maybeConf).To(BeEmpty())
	})
})

var _ = Describe("instance", func() {
	var r *Registry
	BeforeEach(func() { r = NewRegistry() })

	instanceValue := func() string {
		inst, err := r.Instance(mtestName)
		Expect(err).NotTo(HaveOccurred())
		impl, ok := inst.Impl().(*mtestImpl)
		Expect(ok).To(BeTrue())
		return impl.Value
	}

	Context("module constructor", func() {
		register := func(newModule interface{}, newDefaultConfigOptional ...interface{}) {
			r.mtestRegisterType(newModule, newDefaultConfigOptional...)
			r.Register(Definition{Name: mtestName, Type: mtestType})
		}

		It("no config", func() {
			register(mtestNew)
			Expect(instanceValue()).To(Equal(mtestInitValue))
		})
		It("no config, error constructor", func() {
			register(mtestNewErr)
			Expect(instanceValue()).To(Equal(mtestInitValue))
		})
		It("zero config", func() {
			register(mtestNewConf)
			Expect(instanceValue()).To(Equal(""))
		})
		It("zero ptr config", func() {
			register(mtestNewPtrConf)
			Expect(instanceValue()).To(Equal(""))
		})
		It("default config", func() {
			register(mtestNewConf, mtestDefaultConf)
			Expect(instanceValue()).To(Equal(mtestDefaultValue))
		})
		It("default ptr config", func() {
			register(mtestNewPtrConf, mtestNewDefaultPtrConf)
			Expect(instanceValue()).To(Equal(mtestDefaultValue))
		})
	})

	Context("overrides", func() {
		It("win over default config", func() {
			r.mtestRegisterType(mtestNewConf, mtestDefaultConf)
			r.Register(Definition{Name: mtestName, Type: mtestType, Overrides: mtestOverrides()})
			Expect(instanceValue()).To(Equal(mtestFilledValue))
		})

		It("unused keys rejected", func() {
			r.mtestRegisterType(mtestNewConf)
			r.Register(Definition{
				Name: mtestName, Type: mtestType,
				Overrides: map[string]interface{}{"no_such_field": 1},
			})
			_, err := r.Instance(mtestName)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("transformation failed"))
		})

		It("rejected when constructor takes no config", func() {
			r.mtestRegisterType(mtestNew)
			r.Register(Definition{Name: mtestName, Type: mtestType, Overrides: mtestOverrides()})
			_, err := r.Instance(mtestName)
			Expect(err).To(HaveOccurred())
		})
	})

	It("same instance on every call", func() {
		r.mtestRegisterType(mtestNew)
		r.Register(Definition{Name: mtestName, Type: mtestType})
		first, err := r.Instance(mtestName)
		Expect(err).NotTo(HaveOccurred())
		second, err := r.Instance(mtestName)
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(BeIdenticalTo(second))
		cached, ok := r.Cached(mtestName)
		Expect(ok).To(BeTrue())
		Expect(cached).To(BeIdenticalTo(first))
	})

	It("constructor error not cached", func() {
		calls := 0
		r.mtestRegisterType(func() (*mtestImpl, error) {
			calls++
			if calls == 1 {
				return nil, mtestCreateFailedErr
			}
			return mtestNew(), nil
		})
		r.Register(Definition{Name: mtestName, Type: mtestType})

		_, err := r.Instance(mtestName)
		Expect(err).To(HaveOccurred())
		var transformErr *TransformError
		Expect(errors.As(err, &transformErr)).To(BeTrue())
		Expect(transformErr.Module).To(Equal(mtestName))
		_, ok := r.Cached(mtestName)
		Expect(ok).To(BeFalse())

		Expect(instanceValue()).To(Equal(mtestInitValue))
	})

	It("constructor resolves another module", func(done Done) {
		defer close(done)
		r.mtestRegisterType(mtestNew)
		r.Register(Definition{Name: mtestOtherName, Type: mtestType})
		r.RegisterType("nested", func() (*mtestImpl, error) {
			dep, err := r.Instance(mtestOtherName)
			if err != nil {
				return nil, err
			}
			return dep.Impl().(*mtestImpl), nil
		})
		r.Register(Definition{Name: mtestName, Type: "nested"})

		inst, err := r.Instance(mtestName)
		Expect(err).NotTo(HaveOccurred())
		dep, err := r.Instance(mtestOtherName)
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Impl()).To(BeIdenticalTo(dep.Impl()))
	}, 5)

	It("constructor panic recovered", func() {
		r.mtestRegisterType(mtestNewPanicking)
		r.Register(Definition{Name: mtestName, Type: mtestType})
		_, err := r.Instance(mtestName)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("constructor panic"))
	})

	It("empty name", func() {
		_, err := r.Instance("")
		Expect(errors.Is(err, ErrEmptyIdentifier)).To(BeTrue())
	})

	It("unknown name", func() {
		_, err := r.Instance("never_registered")
		Expect(err).To(HaveOccurred())
	})

	It("unknown type", func() {
		r.Register(Definition{Name: mtestName, Type: "never_registered"})
		_, err := r.Instance(mtestName)
		var transformErr *TransformError
		Expect(errors.As(err, &transformErr)).To(BeTrue())
	})
})

var _ = Describe("materialize", func() {
	var r *Registry
	BeforeEach(func() {
		r = NewRegistry()
		r.mtestRegisterType(mtestNewConf, mtestDefaultConf)
	})

	It("registers and constructs", func() {
		inst, err := r.Materialize(Definition{Name: mtestName, Type: mtestType})
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Impl().(*mtestImpl).Value).To(Equal(mtestDefaultValue))
		Expect(r.Lookup(mtestName)).To(BeTrue())
	})

	It("empty name", func() {
		_, err := r.Materialize(Definition{})
		Expect(errors.Is(err, ErrEmptyIdentifier)).To(BeTrue())
	})

	It("cached instance wins", func() {
		first, err := r.Materialize(Definition{Name: mtestName, Type: mtestType})
		Expect(err).NotTo(HaveOccurred())
		second, err := r.Materialize(Definition{
			Name: mtestName, Type: mtestType, Overrides: mtestOverrides(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(BeIdenticalTo(first))
		Expect(second.Impl().(*mtestImpl).Value).To(Equal(mtestDefaultValue))
	})

	It("first registered definition wins", func() {
		r.Register(Definition{Name: mtestName, Type: mtestType})
		inst, err := r.Materialize(Definition{
			Name: mtestName, Type: mtestType, Overrides: mtestOverrides(),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(inst.Impl().(*mtestImpl).Value).To(Equal(mtestDefaultValue))
	})

	It("invalid statics", func() {
		_, err := r.Materialize(Definition{
			Name: mtestName, Type: mtestType,
			Statics: map[string]interface{}{"broken": 1},
		})
		var transformErr *TransformError
		Expect(errors.As(err, &transformErr)).To(BeTrue())
	})
})
