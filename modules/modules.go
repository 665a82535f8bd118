// Package modules lists the node catalogs compiled into flowgridgo.
package modules

import (
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vk/flowgridgo/modules/env_vars"
	"github.com/vk/flowgridgo/modules/event"
	"github.com/vk/flowgridgo/modules/flow"
	"github.com/vk/flowgridgo/modules/print"
	"github.com/vk/flowgridgo/modules/statemachine"
	"github.com/vk/flowgridgo/modules/value"
	"github.com/vk/flowgridgo/modules/variable"
)

// All returns the definitive list of built-in modules.
func All() []registry.Module {
	return []registry.Module{
		&event.Module{},
		&value.Module{},
		&flow.Module{},
		&variable.Module{},
		&print.Module{},
		&env_vars.Module{},
		&statemachine.Module{},
	}
}
