package scanner

import (
	"math/big"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v2"

	"github.com/buildeasy/buildeasy/core/config"
	"github.com/buildeasy/buildeasy/core/module"
)

// Loader is the definition origin marker of scanner loaded modules.
const Loader = "scanner"

// Manifest is one module definition read from a manifest file.
type Manifest struct {
	// Name is the module identifier. Defaults to the manifest file stem.
	Name string `config:"name" validate:"omitempty,identifier"`
	// Type is the registered module type to construct from. Required.
	Type string `config:"type" validate:"required"`
	// Params are config overrides passed to the type's constructor.
	Params map[string]interface{} `config:"params"`
	// Mixins name registered mixins to merge, in declaration order.
	Mixins []string `config:"mixins"`
	// Doc is an optional human readable description.
	Doc string `config:"doc"`
}

// Definition converts the manifest into a module definition originating
// at path.
func (m Manifest) Definition(path string) module.Definition {
	return module.Definition{
		Name:      m.Name,
		Type:      m.Type,
		Overrides: m.Params,
		Mixins:    m.Mixins,
		Path:      path,
		Loader:    Loader,
		Doc:       m.Doc,
	}
}

// ParseManifest decodes and validates manifest data in the format chosen by
// the path extension: HCL for ".hcl", YAML otherwise. An omitted name
// defaults to the file stem.
func ParseManifest(path string, data []byte) (Manifest, error) {
	var (
		man Manifest
		err error
	)
	if strings.EqualFold(filepath.Ext(path), ".hcl") {
		man, err = parseHCL(path, data)
	} else {
		man, err = parseYAML(data)
	}
	if err != nil {
		return Manifest{}, err
	}
	if man.Name == "" {
		man.Name = fileStem(path)
	}
	return man, nil
}

func parseYAML(data []byte) (Manifest, error) {
	raw := make(map[string]interface{})
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Manifest{}, errors.WithMessage(err, "manifest unmarshal")
	}
	var man Manifest
	if err := config.DecodeAndValidate(raw, &man); err != nil {
		return Manifest{}, errors.WithMessage(err, "manifest decode")
	}
	return man, nil
}

type manifestHCL struct {
	Name   string    `hcl:"name,optional"`
	Type   string    `hcl:"type"`
	Params cty.Value `hcl:"params,optional"`
	Mixins []string  `hcl:"mixins,optional"`
	Doc    string    `hcl:"doc,optional"`
}

func parseHCL(path string, data []byte) (Manifest, error) {
	var raw manifestHCL
	if err := hclsimple.Decode(path, data, nil, &raw); err != nil {
		return Manifest{}, errors.WithMessage(err, "manifest decode")
	}
	man := Manifest{Name: raw.Name, Type: raw.Type, Mixins: raw.Mixins, Doc: raw.Doc}
	if !raw.Params.IsNull() {
		params, err := ctyToGo(raw.Params)
		if err != nil {
			return Manifest{}, errors.WithMessage(err, "manifest params")
		}
		paramsMap, ok := params.(map[string]interface{})
		if !ok {
			return Manifest{}, errors.Errorf("manifest params should be an object, but have: %T", params)
		}
		man.Params = paramsMap
	}
	if err := config.Validate(man); err != nil {
		return Manifest{}, errors.WithMessage(err, "manifest validate")
	}
	return man, nil
}

// ctyToGo converts an HCL attribute value into the plain Go value config
// decoding expects. Exact integers stay integers, so numeric params decode
// into int config fields without precision surprises.
func ctyToGo(val cty.Value) (interface{}, error) {
	if val.IsNull() || !val.IsKnown() {
		return nil, nil
	}
	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if n, acc := bf.Int64(); acc == big.Exact {
			return n, nil
		}
		f, _ := bf.Float64()
		return f, nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]interface{})
		for it := val.ElementIterator(); it.Next(); {
			k, v := it.Element()
			conv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out[k.AsString()] = conv
		}
		return out, nil
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]interface{}, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, v := it.Element()
			conv, err := ctyToGo(v)
			if err != nil {
				return nil, err
			}
			out = append(out, conv)
		}
		return out, nil
	}
	return nil, errors.Errorf("unsupported value type %s", ty.FriendlyName())
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
