package serialize

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	ctymsgpack "github.com/zclconf/go-cty/cty/msgpack"
)

// Blob is an encoded cty value together with its type.
type Blob struct {
	Type string `yaml:"type" msgpack:"type"`
	Data []byte `yaml:"data" msgpack:"data"`
}

// IsZero reports whether the blob carries nothing.
func (b Blob) IsZero() bool { return b.Type == "" && len(b.Data) == 0 }

var ctyValueType = reflect.TypeOf(cty.Value{})

// EncodeValue encodes v into a blob. A cty.NilVal encodes as a null of
// dynamic type.
func EncodeValue(v cty.Value) (Blob, error) {
	if v.Type() == cty.NilType {
		v = cty.NullVal(cty.DynamicPseudoType)
	}
	t, err := ctyjson.MarshalType(v.Type())
	if err != nil {
		return Blob{}, fmt.Errorf("encode type: %w", err)
	}
	data, err := ctymsgpack.Marshal(v, v.Type())
	if err != nil {
		return Blob{}, fmt.Errorf("encode value: %w", err)
	}
	return Blob{Type: string(t), Data: data}, nil
}

// DecodeValue reverses EncodeValue.
func DecodeValue(b Blob) (cty.Value, error) {
	t, err := ctyjson.UnmarshalType([]byte(b.Type))
	if err != nil {
		return cty.NilVal, fmt.Errorf("decode type: %w", err)
	}
	v, err := ctymsgpack.Unmarshal(b.Data, t)
	if err != nil {
		return cty.NilVal, fmt.Errorf("decode value: %w", err)
	}
	return v, nil
}

// attrFields lists the struct fields of n decoded from plain hcl attributes.
// Blocks, labels and remain bodies are not node state.
func attrFields(n any) (reflect.Value, map[string]int, error) {
	rv := reflect.ValueOf(n)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, nil, fmt.Errorf("node state must be a pointer to a struct, got %T", n)
	}
	rv = rv.Elem()
	fields := make(map[string]int)
	for i := 0; i < rv.NumField(); i++ {
		tag, ok := rv.Type().Field(i).Tag.Lookup("hcl")
		if !ok {
			continue
		}
		name, kind, _ := strings.Cut(tag, ",")
		if name == "" || (kind != "" && kind != "optional" && kind != "attr") {
			continue
		}
		fields[name] = i
	}
	return rv, fields, nil
}

// EncodeState encodes the hcl-tagged attribute fields of a node.
func EncodeState(n any) (Blob, error) {
	rv, fields, err := attrFields(n)
	if err != nil {
		return Blob{}, err
	}
	attrs := make(map[string]cty.Value, len(fields))
	for name, i := range fields {
		f := rv.Field(i)
		if f.Type() == ctyValueType {
			v := f.Interface().(cty.Value)
			if v.Type() == cty.NilType {
				v = cty.NullVal(cty.DynamicPseudoType)
			}
			attrs[name] = v
			continue
		}
		t, err := gocty.ImpliedType(f.Interface())
		if err != nil {
			return Blob{}, fmt.Errorf("field %q: %w", name, err)
		}
		v, err := gocty.ToCtyValue(f.Interface(), t)
		if err != nil {
			return Blob{}, fmt.Errorf("field %q: %w", name, err)
		}
		attrs[name] = v
	}
	return EncodeValue(cty.ObjectVal(attrs))
}

// DecodeState sets the hcl-tagged attribute fields of n from a blob.
// Attributes the node no longer has are ignored, and fields the blob does not
// mention keep their defaults, so state survives a change of node version.
func DecodeState(b Blob, n any) error {
	if b.IsZero() {
		return nil
	}
	obj, err := DecodeValue(b)
	if err != nil {
		return err
	}
	if !obj.Type().IsObjectType() {
		return errors.New("node state is not an object")
	}
	rv, fields, err := attrFields(n)
	if err != nil {
		return err
	}
	for name, i := range fields {
		if !obj.Type().HasAttribute(name) {
			continue
		}
		v := obj.GetAttr(name)
		f := rv.Field(i)
		if f.Type() == ctyValueType {
			f.Set(reflect.ValueOf(v))
			continue
		}
		if v.IsNull() {
			continue
		}
		if err := gocty.FromCtyValue(v, f.Addr().Interface()); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}

func marshalOpaque(b Blob) ([]byte, error) { return msgpack.Marshal(b) }

func unmarshalOpaque(data []byte) (Blob, error) {
	var b Blob
	err := msgpack.Unmarshal(data, &b)
	return b, err
}

// OpaqueState packs the attributes of a node whose type is unknown into the
// form kept in NodeObject.Opaque.
func OpaqueState(attrs cty.Value) ([]byte, error) {
	b, err := EncodeValue(attrs)
	if err != nil {
		return nil, err
	}
	return marshalOpaque(b)
}
