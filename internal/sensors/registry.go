// Package sensors turns the text printed by `sensors -u` into an ordered
// list of named readings. It does no I/O: callers hand it the raw command
// output and get back parsed chips or a flat sample.
package sensors

import (
	"fmt"
	"strings"
)

// ChipIdentity maps a raw chip name, as printed on the first line of a
// chip block, to the short prefix used in metric keys.
type ChipIdentity struct {
	RawName   string
	ShortName string
}

var defaultChips = []ChipIdentity{
	{RawName: "pch_cannonlake-virtual-0", ShortName: "pch"},
	{RawName: "coretemp-isa-0000", ShortName: "coretemp"},
	{RawName: "system76-isa-0000", ShortName: "s76"},
}

// Registry is an immutable, ordered table of known chips.
type Registry struct {
	chips  []ChipIdentity
	byName map[string]string
}

// DefaultRegistry returns the built-in chip table.
func DefaultRegistry() *Registry {
	registry, err := NewRegistry(defaultChips...)
	if err != nil {
		panic(err)
	}
	return registry
}

// NewRegistry builds a registry from the given chips. Raw names must be
// unique and neither name may be blank.
func NewRegistry(chips ...ChipIdentity) (*Registry, error) {
	registry := &Registry{
		chips:  make([]ChipIdentity, 0, len(chips)),
		byName: make(map[string]string, len(chips)),
	}

	for _, chip := range chips {
		rawName := strings.TrimSpace(chip.RawName)
		shortName := strings.TrimSpace(chip.ShortName)
		if rawName == "" || shortName == "" {
			return nil, fmt.Errorf("chip identity %q=%q has an empty name", chip.RawName, chip.ShortName)
		}
		if _, exists := registry.byName[rawName]; exists {
			return nil, fmt.Errorf("duplicate chip identity: %s", rawName)
		}

		registry.byName[rawName] = shortName
		registry.chips = append(registry.chips, ChipIdentity{RawName: rawName, ShortName: shortName})
	}

	return registry, nil
}

// With returns a new registry holding the receiver's chips followed by extra.
func (r *Registry) With(extra ...ChipIdentity) (*Registry, error) {
	chips := append(r.Chips(), extra...)
	return NewRegistry(chips...)
}

// Chips returns a copy of the table in registration order.
func (r *Registry) Chips() []ChipIdentity {
	return append([]ChipIdentity(nil), r.chips...)
}

// ShortName looks up the canonical short name of a raw chip name.
func (r *Registry) ShortName(rawName string) (string, bool) {
	shortName, ok := r.byName[rawName]
	return shortName, ok
}

// Knows reports whether rawName is registered.
func (r *Registry) Knows(rawName string) bool {
	_, ok := r.byName[rawName]
	return ok
}

// SynthesizeShortName derives a short name for a chip missing from the
// registry.
func SynthesizeShortName(rawName string) string {
	return keyReplacer.Replace(rawName)
}
