// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/mfigueira/formpilot/pkg/actions/click"
	"github.com/mfigueira/formpilot/pkg/actions/navigate"
	"github.com/mfigueira/formpilot/pkg/actions/screenshot"
	"github.com/mfigueira/formpilot/pkg/actions/script"
	"github.com/mfigueira/formpilot/pkg/actions/selectoption"
	"github.com/mfigueira/formpilot/pkg/actions/typetext"
	"github.com/mfigueira/formpilot/pkg/actions/wait"
	"github.com/mfigueira/formpilot/pkg/actions/waitelement"
	"github.com/mfigueira/formpilot/pkg/actions/waituser"
	"github.com/mfigueira/formpilot/pkg/registry"
)

func registerNativeActions(reg *registry.Registry) {
	reg.RegisterAction(navigate.NewFactory())
	reg.RegisterAction(click.NewFactory())
	reg.RegisterAction(typetext.NewFactory())
	reg.RegisterAction(selectoption.NewFactory())
	reg.RegisterAction(wait.NewFactory())
	reg.RegisterAction(waitelement.NewFactory())
	reg.RegisterAction(screenshot.NewFactory())
	reg.RegisterAction(script.NewFactory())
	reg.RegisterAction(waituser.NewFactory())
}

func NewRegistry(log *slog.Logger) *registry.Registry {
	reg := registry.NewRegistry(log)

	registerNativeActions(reg)

	return reg
}
