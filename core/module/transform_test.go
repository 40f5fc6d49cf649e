// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

import (
	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

var _ = Describe("capability name", func() {
	table.DescribeTable("method to snake case",
		func(method, expected string) {
			Expect(capabilityName(method)).To(Equal(expected))
		},
		table.Entry("single word", "Greet", "greet"),
		table.Entry("two words", "SaveState", "save_state"),
		table.Entry("initialism", "ID", "id"),
		table.Entry("trailing initialism", "GetID", "get_id"),
		table.Entry("leading initialism", "HTTPServe", "http_serve"),
		table.Entry("inner initialism", "ParseURLPath", "parse_url_path"),
		table.Entry("digits", "Md5Sum", "md5_sum"),
	)
})

var _ = Describe("transform", func() {
	var r *Registry
	BeforeEach(func() {
		r = NewRegistry()
		r.mtestRegisterType(mtestNewConf, mtestDefaultConf)
		r.RegisterMixin(mtestEchoName, mtestNewEchoMixin)
		r.RegisterMixin(mtestOtherName, mtestNewOtherMixin)
	})

	instance := func(def Definition) *Instance {
		r.Register(def)
		inst, err := r.Instance(def.Name)
		Expect(err).NotTo(HaveOccurred())
		return inst
	}

	It("harvests exported methods", func() {
		inst := instance(Definition{Name: mtestName, Type: mtestType})
		Expect(inst.Capabilities()).To(Equal([]string{
			"echo", "report", "set_value", InstanceCapability,
		}))
	})

	It("fills identity info", func() {
		inst := instance(Definition{
			Name: mtestName, Type: mtestType,
			Path: "mtest.yaml", Loader: "scanner",
			Doc: "mtest module",
		})
		info := inst.Info()
		Expect(info.Name).To(Equal(mtestName))
		Expect(info.Type).To(Equal(mtestType))
		Expect(info.Package).To(Equal("github.com/buildeasy/buildeasy/core/module"))
		Expect(info.Path).To(Equal("mtest.yaml"))
		Expect(info.Loader).To(Equal("scanner"))
		Expect(info.Doc).To(Equal("mtest module"))
	})

	It("defaults loader to code", func() {
		inst := instance(Definition{Name: mtestName, Type: mtestType})
		Expect(inst.Info().Loader).To(Equal("code"))
		Expect(inst.Info().Path).To(BeEmpty())
	})

	Context("mixins", func() {
		It("merge donated capabilities", func() {
			inst := instance(Definition{
				Name: mtestName, Type: mtestType,
				Mixins: []string{mtestEchoName},
			})
			out, err := inst.Call("shared")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"echo shared"}))
		})

		It("own capabilities win", func() {
			inst := instance(Definition{
				Name: mtestName, Type: mtestType,
				Mixins: []string{mtestEchoName},
			})
			out, err := inst.Call("echo", "x")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"own:x"}))
			out, err = inst.Call("report")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{mtestDefaultValue}))
		})

		It("later mixin overwrites earlier", func() {
			inst := instance(Definition{
				Name: mtestName, Type: mtestType,
				Mixins: []string{mtestEchoName, mtestOtherName},
			})
			out, err := inst.Call("shared")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"other shared"}))
		})

		It("declaration order decides, not mixin name", func() {
			inst := instance(Definition{
				Name: mtestName, Type: mtestType,
				Mixins: []string{mtestOtherName, mtestEchoName},
			})
			out, err := inst.Call("shared")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"echo shared"}))
		})

		It("not listed in capabilities", func() {
			inst := instance(Definition{
				Name: mtestName, Type: mtestType,
				Mixins: []string{mtestEchoName},
			})
			Expect(inst.Capabilities()).NotTo(ContainElement("shared"))
			var origins []string
			for _, c := range inst.Describe() {
				if c.Name == "shared" {
					origins = append(origins, c.Origin)
				}
			}
			Expect(origins).To(Equal([]string{OriginMixinPrefix + mtestEchoName}))
		})

		It("unknown mixin", func() {
			r.Register(Definition{
				Name: mtestName, Type: mtestType,
				Mixins: []string{"never_registered"},
			})
			_, err := r.Instance(mtestName)
			var transformErr *TransformError
			Expect(errors.As(err, &transformErr)).To(BeTrue())
			Expect(transformErr.Error()).To(ContainSubstring("never_registered"))
		})
	})

	Context("statics", func() {
		It("overwrite methods and mixins", func() {
			inst := instance(Definition{
				Name: mtestName, Type: mtestType,
				Mixins: []string{mtestEchoName},
				Statics: map[string]interface{}{
					"report": func() string { return "static report" },
					"shared": func() string { return "static shared" },
				},
			})
			out, err := inst.Call("report")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"static report"}))
			out, err = inst.Call("shared")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"static shared"}))
		})

		It("listed in capabilities", func() {
			inst := instance(Definition{
				Name: mtestName, Type: mtestType,
				Statics: map[string]interface{}{
					"build_info": func() string { return "0.1.0" },
				},
			})
			Expect(inst.Capabilities()).To(ContainElement("build_info"))
		})

		It("described with static origin", func() {
			inst := instance(Definition{
				Name: mtestName, Type: mtestType,
				Statics: map[string]interface{}{
					"report": func() string { return "static report" },
				},
			})
			for _, c := range inst.Describe() {
				if c.Name == "report" {
					Expect(c.Origin).To(Equal(OriginStatic))
				}
			}
		})
	})

	It("describe table sorted by name", func() {
		inst := instance(Definition{
			Name: mtestName, Type: mtestType,
			Mixins: []string{mtestEchoName},
		})
		caps := inst.Describe()
		var names []string
		for _, c := range caps {
			names = append(names, c.Name)
		}
		Expect(names).To(Equal([]string{"echo", "report", "set_value", "shared"}))
	})
})
