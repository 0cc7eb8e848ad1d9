package platform

import (
	"fmt"
	"runtime"
)

// Provider bundles all platform backends.
type Provider struct {
	Reader           TreeReader
	HitTester        HitTester
	Inputter         Inputter
	Apps             AppDirectory
	ActionPerformer  ActionPerformer
	ValueSetter      ValueSetter
	ClipboardManager ClipboardManager
}

// ErrUnsupported is returned when no live backend is registered.
var ErrUnsupported = fmt.Errorf("desktop-replay has no live accessibility backend on %s/%s; pass --tree with a snapshot fixture", runtime.GOOS, runtime.GOARCH)

// NewProviderFunc is set by live backends via init().
var NewProviderFunc func() (*Provider, error)

// NewProvider returns the registered live Provider.
func NewProvider() (*Provider, error) {
	if NewProviderFunc == nil {
		return nil, ErrUnsupported
	}
	return NewProviderFunc()
}

// Validate reports the first missing backend.
func (p *Provider) Validate() error {
	switch {
	case p.Reader == nil:
		return fmt.Errorf("provider: tree reader not available")
	case p.HitTester == nil:
		return fmt.Errorf("provider: hit tester not available")
	case p.Inputter == nil:
		return fmt.Errorf("provider: inputter not available")
	case p.Apps == nil:
		return fmt.Errorf("provider: app directory not available")
	case p.ActionPerformer == nil:
		return fmt.Errorf("provider: action performer not available")
	}
	return nil
}
