package protocol

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// data holds the descriptor YAML files compiled into the binary, so a new
// radio model is a data file, never new code, the same way src/deviceid.go
// embeds tocalls.yaml.
//
//go:embed data/*.yaml
var data embed.FS

// Registry is an immutable, process-long lookup of protocols and models,
// read-only after Load.
type Registry struct {
	protocols map[string]ProtocolDescriptor
	models    map[string]ModelDescriptor
}

type protocolFile struct {
	Protocols []ProtocolDescriptor `yaml:"protocols"`
}

type modelFile struct {
	Models []ModelDescriptor `yaml:"models"`
}

// Load reads every YAML file under protocol/data/ and builds a Registry.
// Each file may contain a `protocols:` list, a `models:` list, or both;
// every file is parsed for both, the same way deviceid.go builds one
// in-memory table from one embedded YAML document at init.
func Load() (*Registry, error) {
	entries, err := data.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("protocol: read embedded data dir: %w", err)
	}

	reg := &Registry{
		protocols: make(map[string]ProtocolDescriptor),
		models:    make(map[string]ModelDescriptor),
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		raw, err := data.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("protocol: read %s: %w", entry.Name(), err)
		}

		var pf protocolFile
		if err := yaml.Unmarshal(raw, &pf); err != nil {
			return nil, fmt.Errorf("protocol: parse %s: %w", entry.Name(), err)
		}
		for _, p := range pf.Protocols {
			if _, exists := reg.protocols[p.ID]; exists {
				return nil, fmt.Errorf("protocol: duplicate protocol id %q in %s", p.ID, entry.Name())
			}
			reg.protocols[p.ID] = p
		}

		var mf modelFile
		if err := yaml.Unmarshal(raw, &mf); err != nil {
			return nil, fmt.Errorf("protocol: parse %s: %w", entry.Name(), err)
		}
		for _, m := range mf.Models {
			key := m.Vendor + "/" + m.Model
			if _, exists := reg.models[key]; exists {
				return nil, fmt.Errorf("protocol: duplicate model %q in %s", key, entry.Name())
			}
			reg.models[key] = m
		}
	}

	for key, m := range reg.models {
		if _, ok := reg.protocols[m.ProtocolID]; !ok {
			return nil, fmt.Errorf("protocol: model %q references unknown protocol %q", key, m.ProtocolID)
		}
	}

	return reg, nil
}

// Protocol returns the named protocol descriptor.
func (r *Registry) Protocol(id string) (ProtocolDescriptor, bool) {
	p, ok := r.protocols[id]
	return p, ok
}

// Model returns the named model descriptor ("vendor/model").
func (r *Registry) Model(key string) (ModelDescriptor, bool) {
	m, ok := r.models[key]
	return m, ok
}

// Resolved is a ModelDescriptor merged with its ProtocolDescriptor, with
// model overrides applied on top.
type Resolved struct {
	Model    ModelDescriptor
	Protocol ProtocolDescriptor
}

// Resolve looks up a model and applies its overrides to a copy of its
// protocol descriptor.
func (r *Registry) Resolve(key string) (Resolved, error) {
	m, ok := r.Model(key)
	if !ok {
		return Resolved{}, fmt.Errorf("protocol: unknown model %q", key)
	}
	p, ok := r.Protocol(m.ProtocolID)
	if !ok {
		return Resolved{}, fmt.Errorf("protocol: model %q references unknown protocol %q", key, m.ProtocolID)
	}

	if m.BaudOverride != nil {
		p.Baud = *m.BaudOverride
	}
	if m.MaxNameLenOverride != nil {
		p.MemoryFormat.MaxNameLen = *m.MaxNameLenOverride
	}

	return Resolved{Model: m, Protocol: p}, nil
}

// ModelKeys returns every registered model key, sorted, for listing tools
// such as cmd/radioclone-list.
func (r *Registry) ModelKeys() []string {
	keys := make([]string, 0, len(r.models))
	for k := range r.models {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
