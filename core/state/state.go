// Package state captures and restores module instance attribute state.
//
// A snapshot is an explicit versioned schema: module name, schema version
// and a sorted list of typed fields with JSON encoded values. By default
// state is the exported fields of the implementation struct, fields of
// unserializable kinds silently skipped. Implementations take over by
// implementing Snapshotter and Restorer.
package state

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/buildeasy/buildeasy/core/module"
)

// SnapshotVersion is the current snapshot schema version. Snapshots with
// another version are rejected on restore.
const SnapshotVersion = 1

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshotter lets an implementation define its own state instead of the
// default exported fields walk.
type Snapshotter interface {
	SnapshotState() (map[string]interface{}, error)
}

// Restorer lets an implementation apply restored state itself instead of
// the default in place field set.
type Restorer interface {
	RestoreState(map[string]interface{}) error
}

// Field is one state entry: field name, Go type it was captured from, and
// JSON encoded value.
type Field struct {
	Name  string          `json:"name"`
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

// Snapshot is the serializable state of one module instance.
type Snapshot struct {
	Version int     `json:"version"`
	Module  string  `json:"module"`
	Fields  []Field `json:"fields"`
}

// Capture takes a snapshot of inst state. Implementations of Snapshotter
// define the state themselves, otherwise exported fields of the
// implementation struct are captured. Fields of func, chan, complex and
// unsafe pointer kinds are skipped.
func Capture(inst *module.Instance) (*Snapshot, error) {
	snap := &Snapshot{
		Version: SnapshotVersion,
		Module:  inst.Info().Name,
	}
	if snapshotter, ok := inst.Impl().(Snapshotter); ok {
		stateMap, err := snapshotter.SnapshotState()
		if err != nil {
			return nil, errors.WithMessagef(err, "module %q snapshot", inst.Info().Name)
		}
		for name, val := range stateMap {
			field, err := encodeField(name, fmt.Sprintf("%T", val), val)
			if err != nil {
				return nil, errors.WithMessagef(err, "module %q snapshot", inst.Info().Name)
			}
			snap.Fields = append(snap.Fields, field)
		}
		sortFields(snap.Fields)
		return snap, nil
	}

	val, ok := implStruct(inst.Impl())
	if !ok {
		return snap, nil
	}
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if f.PkgPath != "" || !serializableKind(f.Type.Kind()) {
			continue
		}
		field, err := encodeField(f.Name, f.Type.String(), val.Field(i).Interface())
		if err != nil {
			return nil, errors.WithMessagef(err, "module %q field %q", inst.Info().Name, f.Name)
		}
		snap.Fields = append(snap.Fields, field)
	}
	sortFields(snap.Fields)
	return snap, nil
}

// Apply restores snap onto the cached singleton state in place, so every
// holder of the instance sees the restored values. Implementations of
// Restorer apply the state themselves. Snapshot version, module name and
// field type mismatches are errors.
func Apply(inst *module.Instance, snap *Snapshot) error {
	if snap.Version != SnapshotVersion {
		return errors.Errorf("snapshot version %v not supported, want %v", snap.Version, SnapshotVersion)
	}
	if snap.Module != inst.Info().Name {
		return errors.Errorf("snapshot of module %q cannot be applied to module %q", snap.Module, inst.Info().Name)
	}
	if restorer, ok := inst.Impl().(Restorer); ok {
		stateMap := make(map[string]interface{}, len(snap.Fields))
		for _, field := range snap.Fields {
			var val interface{}
			if err := jsonAPI.Unmarshal(field.Value, &val); err != nil {
				return errors.WithMessagef(err, "field %q decode", field.Name)
			}
			stateMap[field.Name] = val
		}
		err := restorer.RestoreState(stateMap)
		return errors.WithMessagef(err, "module %q restore", inst.Info().Name)
	}

	val, ok := implStruct(inst.Impl())
	if !ok {
		return errors.Errorf("module %q implementation is not a struct pointer, state cannot be restored in place", inst.Info().Name)
	}
	if !val.CanSet() {
		return errors.Errorf("module %q implementation is not addressable, state cannot be restored in place", inst.Info().Name)
	}
	for _, field := range snap.Fields {
		structField, ok := val.Type().FieldByName(field.Name)
		if !ok || structField.PkgPath != "" {
			return errors.Errorf("module %q has no field %q", inst.Info().Name, field.Name)
		}
		if structField.Type.String() != field.Type {
			return errors.Errorf("field %q type changed: snapshot has %s, module has %s",
				field.Name, field.Type, structField.Type)
		}
		target := reflect.New(structField.Type)
		if err := jsonAPI.Unmarshal(field.Value, target.Interface()); err != nil {
			return errors.WithMessagef(err, "field %q decode", field.Name)
		}
		val.FieldByIndex(structField.Index).Set(target.Elem())
	}
	return nil
}

func encodeField(name, typeName string, val interface{}) (Field, error) {
	data, err := jsonAPI.Marshal(val)
	if err != nil {
		return Field{}, errors.WithMessage(err, "value encode")
	}
	return Field{Name: name, Type: typeName, Value: data}, nil
}

func sortFields(fields []Field) {
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })
}

func implStruct(impl interface{}) (reflect.Value, bool) {
	val := reflect.ValueOf(impl)
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return reflect.Value{}, false
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return val, true
}

func serializableKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer, reflect.Complex64, reflect.Complex128:
		return false
	}
	return true
}
