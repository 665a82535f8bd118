package registry

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/vk/flowgridgo/internal/ctxlog"
	"github.com/vk/flowgridgo/internal/graph"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

var ctyValueType = reflect.TypeOf(cty.Value{})

// ValidateRegistry performs a strict parity check between the interpreted and
// the emitted contract of every registered type, and checks that config
// fields can be represented as cty values.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, name := range r.Types() {
		n := r.types[name].New()
		if n == nil {
			errs = append(errs, fmt.Sprintf("type '%s': constructor returned nil", name))
			continue
		}

		_, getter := n.(graph.ValueGetter)
		_, valueEmitter := n.(graph.ValueEmitter)
		_, exec := n.(graph.FlowExecutor)
		_, co := n.(graph.CoroutineExecutor)
		_, flowEmitter := n.(graph.FlowEmitter)
		_, trigger := n.(graph.Triggerer)
		_, generative := n.(graph.Generative)
		_, updatable := n.(graph.Updatable)
		_, tickEmitter := n.(graph.TickEmitter)

		if !getter && !exec && !co && !trigger && !updatable {
			errs = append(errs, fmt.Sprintf("type '%s': implements no interpreted contract", name))
		}
		if getter && !valueEmitter {
			errs = append(errs, fmt.Sprintf("type '%s': has GetValue but no GenerateValueCode", name))
		}
		if (exec || co) && !flowEmitter {
			errs = append(errs, fmt.Sprintf("type '%s': is executable but has no GenerateFlowCode", name))
		}
		if updatable && !tickEmitter {
			errs = append(errs, fmt.Sprintf("type '%s': has OnUpdate but no GenerateTick", name))
		}
		if !generative {
			errs = append(errs, fmt.Sprintf("type '%s': does not implement OnGeneratorInitialize", name))
		}

		errs = append(errs, checkConfigFields(ctx, name, n)...)
		logger.Debug("Validated node type.", "type", name)
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

// checkConfigFields ensures every hcl-tagged field has an implied cty type.
func checkConfigFields(ctx context.Context, name string, n graph.Node) []string {
	var errs []string
	v := reflect.ValueOf(n)
	if v.Kind() != reflect.Pointer || v.Elem().Kind() != reflect.Struct {
		return []string{fmt.Sprintf("type '%s': node must be a pointer to a struct", name)}
	}
	st := v.Elem().Type()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		tag := strings.Split(field.Tag.Get("hcl"), ",")[0]
		if tag == "" || !field.IsExported() {
			continue
		}
		if field.Type == ctyValueType {
			ctxlog.FromContext(ctx).Debug("Config field is dynamically typed.", "type", name, "field", tag)
			continue
		}
		if _, err := gocty.ImpliedType(reflect.Zero(field.Type).Interface()); err != nil {
			errs = append(errs, fmt.Sprintf("type '%s', field '%s': could not imply cty type from Go field type %s: %v", name, tag, field.Type, err))
		}
	}
	return errs
}
