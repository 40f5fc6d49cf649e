// Copyright (c) 2017 Yandex LLC. All rights reserved.
// Use of this source code is governed by a MPL 2.0
// license that can be found in the LICENSE file.

package module

import (
	"strings"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/pkg/errors"
)

type itestImpl struct {
	Greeting string
	Count    int
}

func (i *itestImpl) Greet(name string) string {
	i.Count++
	return i.Greeting + ", " + name
}

func (i *itestImpl) Sum(vals ...int) int {
	var sum int
	for _, v := range vals {
		sum += v
	}
	return sum
}

func (i *itestImpl) Wait(d time.Duration) time.Duration { return d }

func (i *itestImpl) Fail() error { return errors.New("itest fail") }

func (i *itestImpl) Split(s string) (string, string, error) {
	before, after, found := strings.Cut(s, "=")
	if !found {
		return "", "", errors.New("no separator")
	}
	return before, after, nil
}

var _ = Describe("instance lookup and call", func() {
	var inst *Instance
	BeforeEach(func() {
		r := NewRegistry()
		r.RegisterType("itest", func() *itestImpl { return &itestImpl{Greeting: "hello"} })
		r.Register(Definition{Name: "itest"})
		var err error
		inst, err = r.Instance("itest")
		Expect(err).NotTo(HaveOccurred())
	})

	Context("lookup", func() {
		It("instance resolves to self", func() {
			v, err := inst.Lookup(InstanceCapability)
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(BeIdenticalTo(inst))
		})

		It("capability resolves to bare func", func() {
			v, err := inst.Lookup("greet")
			Expect(err).NotTo(HaveOccurred())
			greet, ok := v.(func(string) string)
			Expect(ok).To(BeTrue())
			Expect(greet("world")).To(Equal("hello, world"))
		})

		It("exported field by capability name", func() {
			v, err := inst.Lookup("greeting")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("hello"))
		})

		It("exported field by Go name", func() {
			v, err := inst.Lookup("Greeting")
			Expect(err).NotTo(HaveOccurred())
			Expect(v).To(Equal("hello"))
		})

		It("miss returns lookup error", func() {
			_, err := inst.Lookup("no_such_attr")
			var lookupErr *LookupError
			Expect(errors.As(err, &lookupErr)).To(BeTrue())
			Expect(lookupErr.Module).To(Equal("itest"))
			Expect(lookupErr.Type).To(Equal("itest"))
			Expect(lookupErr.Attr).To(Equal("no_such_attr"))
		})
	})

	Context("call", func() {
		It("invokes with exact args", func() {
			out, err := inst.Call("greet", "world")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"hello, world"}))
			Expect(inst.Impl().(*itestImpl).Count).To(Equal(1))
		})

		It("parses string args into numbers", func() {
			out, err := inst.Call("sum", "1", "2", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{6}))
		})

		It("parses string args into durations", func() {
			out, err := inst.Call("wait", "15ms")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{15 * time.Millisecond}))
		})

		It("splits trailing error", func() {
			out, err := inst.Call("split", "key=val")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"key", "val"}))

			out, err = inst.Call("split", "unseparated")
			Expect(err).To(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"", ""}))
		})

		It("returns capability error", func() {
			_, err := inst.Call("fail")
			Expect(err).To(MatchError("itest fail"))
		})

		It("arity mismatch", func() {
			_, err := inst.Call("greet")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("want 1 args"))
		})

		It("unconvertible arg", func() {
			_, err := inst.Call("greet", struct{}{})
			Expect(err).To(HaveOccurred())
		})

		It("unknown capability", func() {
			_, err := inst.Call("no_such_capability")
			var lookupErr *LookupError
			Expect(errors.As(err, &lookupErr)).To(BeTrue())
		})
	})

	Context("add capability", func() {
		It("registers dynamic capability", func() {
			err := inst.AddCapability("shout", func(s string) string { return strings.ToUpper(s) })
			Expect(err).NotTo(HaveOccurred())
			out, err := inst.Call("shout", "hey")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal([]interface{}{"HEY"}))
			Expect(inst.Capabilities()).NotTo(ContainElement("shout"))
			for _, c := range inst.Describe() {
				if c.Name == "shout" {
					Expect(c.Origin).To(Equal(OriginDynamic))
				}
			}
		})

		It("dynamic capability doesn't extend declared list", func() {
			before := inst.Capabilities()
			Expect(inst.AddCapability("shout", func() {})).To(Succeed())
			Expect(inst.Capabilities()).To(Equal(before))
			_, err := inst.Lookup("shout")
			Expect(err).NotTo(HaveOccurred())
		})

		It("method collision", func() {
			err := inst.AddCapability("greet", func() {})
			Expect(errors.Is(err, ErrCapabilityExists)).To(BeTrue())
		})

		It("dynamic collision", func() {
			Expect(inst.AddCapability("shout", func() {})).To(Succeed())
			err := inst.AddCapability("shout", func() {})
			Expect(errors.Is(err, ErrCapabilityExists)).To(BeTrue())
		})

		It("reserved name collision", func() {
			err := inst.AddCapability(InstanceCapability, func() {})
			Expect(errors.Is(err, ErrCapabilityExists)).To(BeTrue())
		})

		It("empty name", func() {
			err := inst.AddCapability("", func() {})
			Expect(errors.Is(err, ErrEmptyIdentifier)).To(BeTrue())
		})

		It("not func", func() {
			err := inst.AddCapability("shout", "not a func")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, ErrCapabilityExists)).To(BeFalse())
		})
	})

	It("string form", func() {
		Expect(inst.String()).To(Equal(`module "itest" of type "itest"`))
	})
})
