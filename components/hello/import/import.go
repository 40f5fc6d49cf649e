package hello

import (
	"github.com/buildeasy/buildeasy/components/hello"
	"github.com/buildeasy/buildeasy/core/register"
)

func Import() {
	register.Module("hello", hello.New, hello.DefaultConfig)
}
