// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chainfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/strata/lib/keychain"
	"github.com/bureau-foundation/strata/lib/pathspec"
	"github.com/bureau-foundation/strata/lib/registry"
	"github.com/bureau-foundation/strata/lib/secret"
	"github.com/bureau-foundation/strata/lib/vfs"
)

// Format selects the decoder for a chain file.
type Format int

const (
	// YAML is the default format.
	YAML Format = iota
	// JSONC is JSON with comments and trailing commas.
	JSONC
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return JSONC
	default:
		return YAML
	}
}

// Layer is one chain node: its type tag and constructor attributes.
type Layer struct {
	Type       pathspec.Tag
	Attributes pathspec.Attributes
}

// Credential binds one credential to a layer. Exactly one of Env and
// File names where the value comes from.
type Credential struct {
	Layer int    `yaml:"layer" json:"layer"`
	Kind  string `yaml:"kind" json:"kind"`
	Env   string `yaml:"env,omitempty" json:"env,omitempty"`
	File  string `yaml:"file,omitempty" json:"file,omitempty"`
}

// File is a decoded chain file.
type File struct {
	Layers      []Layer
	Credentials []Credential
}

// document is the shared decoding target of both formats.
type document struct {
	Chain       []map[string]any `yaml:"chain" json:"chain"`
	Credentials []Credential     `yaml:"credentials" json:"credentials"`
}

// Parse decodes a chain file in the given format.
func Parse(data []byte, format Format) (*File, error) {
	var doc document
	switch format {
	case JSONC:
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.UseNumber()
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing chain file: %w", err)
		}
	default:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&doc); err != nil {
			return nil, fmt.Errorf("parsing chain file: %w", err)
		}
	}

	if len(doc.Chain) == 0 {
		return nil, fmt.Errorf("chain file has no layers")
	}

	file := &File{Credentials: doc.Credentials}
	for index, raw := range doc.Chain {
		tag, ok := raw["type"].(string)
		if !ok || tag == "" {
			return nil, fmt.Errorf("chain layer %d: missing type", index)
		}
		attributes := make(pathspec.Attributes, len(raw)-1)
		for name, value := range raw {
			if name != "type" {
				attributes[name] = value
			}
		}
		file.Layers = append(file.Layers, Layer{Type: pathspec.Tag(tag), Attributes: attributes})
	}

	for index, credential := range file.Credentials {
		if credential.Layer < 0 || credential.Layer >= len(file.Layers) {
			return nil, fmt.Errorf("credential %d: layer %d out of range (chain has %d layers)", index, credential.Layer, len(file.Layers))
		}
		if _, err := vfs.ParseCredentialKind(credential.Kind); err != nil {
			return nil, fmt.Errorf("credential %d: %w", index, err)
		}
		if (credential.Env == "") == (credential.File == "") {
			return nil, fmt.Errorf("credential %d: exactly one of env and file is required", index)
		}
	}

	return file, nil
}

// ReadFile reads and parses a chain file, choosing the format from its
// extension.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	file, err := Parse(data, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file, nil
}

// Build constructs the chain with the registry's constructors and
// returns every node, root first. The last node is the chain the file
// describes.
func (f *File) Build(reg *registry.Registry) ([]*pathspec.PathSpec, error) {
	nodes := make([]*pathspec.PathSpec, 0, len(f.Layers))
	var parent *pathspec.PathSpec
	for index, layer := range f.Layers {
		spec, err := reg.NewPathSpec(layer.Type, layer.Attributes, parent)
		if err != nil {
			return nil, fmt.Errorf("chain layer %d: %w", index, err)
		}
		nodes = append(nodes, spec)
		parent = spec
	}
	return nodes, nil
}

// ApplyCredentials reads every credential value and stores it in keys
// against the layer it names. nodes is the result of [File.Build].
func (f *File) ApplyCredentials(nodes []*pathspec.PathSpec, keys *keychain.KeyChain) error {
	for index, credential := range f.Credentials {
		if credential.Layer >= len(nodes) {
			return fmt.Errorf("credential %d: layer %d not built", index, credential.Layer)
		}
		buffer, err := credential.read()
		if err != nil {
			return fmt.Errorf("credential %d: %w", index, err)
		}
		if err := keys.SetCredentialBuffer(nodes[credential.Layer], vfs.CredentialKind(credential.Kind), buffer); err != nil {
			return fmt.Errorf("credential %d: %w", index, err)
		}
	}
	return nil
}

func (c Credential) read() (*secret.Buffer, error) {
	if c.Env != "" {
		return secret.ReadFromEnv(c.Env)
	}
	return secret.ReadFromPath(c.File)
}

// FromPathSpec returns the chain file describing spec, without
// credentials.
func FromPathSpec(spec *pathspec.PathSpec) *File {
	elements := spec.Elements()
	file := &File{Layers: make([]Layer, len(elements))}
	for index, element := range elements {
		file.Layers[index] = Layer{Type: element.Type, Attributes: element.Attributes}
	}
	return file
}

// MarshalYAML encodes the file in the YAML chain file form.
func (f *File) MarshalYAML() (any, error) {
	doc := document{Credentials: f.Credentials}
	for _, layer := range f.Layers {
		raw := make(map[string]any, len(layer.Attributes)+1)
		for name, value := range layer.Attributes {
			raw[name] = value
		}
		raw["type"] = string(layer.Type)
		doc.Chain = append(doc.Chain, raw)
	}
	return doc, nil
}
