// Package devices manages the catalog of x-ray units and their fixed
// beam parameters.
//
// A built-in catalog ships with the package; site-specific units can be
// merged in from a YAML file with the same layout as the packaged one.
package devices

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/radkit/spekdose/spek"
)

//go:embed devices.yaml
var builtinYAML []byte

// Errors returned by the manager.
var (
	ErrUnknownDevice = errors.New("devices: unknown device")
	ErrDeviceExists  = errors.New("devices: device already defined")
	ErrInvalidDevice = errors.New("devices: invalid device definition")
)

// Device is one x-ray unit with its fixed beam geometry and inherent
// filtration.
type Device struct {
	Name          string        `yaml:"name" json:"name"`
	AnodeAngleDeg float64       `yaml:"anode_angle_deg" json:"anode_angle_deg"`
	Filters       []spek.Filter `yaml:"filters" json:"filters"`
	Description   string        `yaml:"description,omitempty" json:"description,omitempty"`
}

// Validate checks the definition.
func (d Device) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDevice)
	}

	if d.AnodeAngleDeg <= 0 || d.AnodeAngleDeg >= 90 {
		return fmt.Errorf("%w: %s: anode angle %v out of range", ErrInvalidDevice, d.Name, d.AnodeAngleDeg)
	}

	for _, f := range d.Filters {
		if f.Material == "" || f.ThicknessMM < 0 {
			return fmt.Errorf("%w: %s: bad filter %+v", ErrInvalidDevice, d.Name, f)
		}
	}

	return nil
}

// Apply copies the device's beam parameters onto the exposure fields.
func (d Device) Apply(p *spek.Params) {
	p.AnodeAngleDeg = d.AnodeAngleDeg
}

type catalogFile struct {
	Devices []Device `yaml:"devices"`
}

// Manager holds the device catalog. Safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	devices map[string]Device
	builtin map[string]bool
}

// NewManager loads the built-in catalog.
func NewManager() (*Manager, error) {
	m := &Manager{
		devices: make(map[string]Device),
		builtin: make(map[string]bool),
	}

	if err := m.merge(bytes.NewReader(builtinYAML), true); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *Manager) merge(r io.Reader, builtin bool) error {
	var file catalogFile

	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&file); err != nil {
		return fmt.Errorf("devices: decoding catalog: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, d := range file.Devices {
		if err := d.Validate(); err != nil {
			return err
		}

		m.devices[d.Name] = d
		if builtin {
			m.builtin[d.Name] = true
		}
	}

	return nil
}

// LoadFile merges a site catalog from a YAML file. Entries with the
// same name replace existing ones.
func (m *Manager) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("devices: opening catalog: %w", err)
	}
	defer f.Close()

	return m.merge(f, false)
}

// Names returns all device names in sorted order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.devices))
	for name := range m.devices {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Get looks a device up by name.
func (m *Manager) Get(name string) (Device, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.devices[name]
	if !ok {
		return Device{}, fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}

	return d, nil
}

// IsBuiltin reports whether the name is in the packaged catalog.
func (m *Manager) IsBuiltin(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.builtin[name]
}

// Add registers a new device. The name must be free.
func (m *Manager) Add(d Device) error {
	if err := d.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.devices[d.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDeviceExists, d.Name)
	}

	m.devices[d.Name] = d

	return nil
}

// Update replaces an existing device definition.
func (m *Manager) Update(d Device) error {
	if err := d.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.devices[d.Name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, d.Name)
	}

	m.devices[d.Name] = d

	return nil
}

// Remove deletes a device from the catalog.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.devices[name]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownDevice, name)
	}

	delete(m.devices, name)

	return nil
}

// Summary renders a plain-text overview of the catalog.
func (m *Manager) Summary() string {
	var b strings.Builder

	b.WriteString("=== Device Catalog ===\n\n")

	for _, name := range m.Names() {
		d, _ := m.Get(name)

		fmt.Fprintf(&b, "Device: %s\n", d.Name)
		fmt.Fprintf(&b, "  Anode angle: %.1f deg\n", d.AnodeAngleDeg)

		for _, f := range d.Filters {
			fmt.Fprintf(&b, "  Filter: %s %.2f mm\n", f.Material, f.ThicknessMM)
		}

		if d.Description != "" {
			fmt.Fprintf(&b, "  %s\n", d.Description)
		}

		b.WriteString("\n")
	}

	return b.String()
}
