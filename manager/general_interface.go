// File: manager/general_interface.go
// Author: momentics <momentics@gmail.com>
//
// The manager's inbuilt interface, installed automatically by Start
// and counted toward the expected-interfaces total (spec §4.F).

package manager

import "github.com/momentics/hioload-io/api"

type generalInterface struct{}

func newGeneralInterface() api.Interface { return &generalInterface{} }

func (g *generalInterface) Identify() api.InterfaceType { return api.InterfaceGeneral }
func (g *generalInterface) AttachCompletionCallback(api.CompletionCallback) {}
func (g *generalInterface) OnIOThreadStart(api.IOThreadContext) error { return nil }
func (g *generalInterface) OnIOThreadStopped(api.IOThreadContext) {}
