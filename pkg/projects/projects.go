// Package projects runs packaged training code described by a
// newronproject.yaml file. A project declares named entry points with
// parameterized commands; Run substitutes parameters, executes the command
// under a tracking run, and records the outcome as the run's final status.
package projects

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DescriptorFile is the project descriptor file name.
const DescriptorFile = "newronproject.yaml"

// Parameter declares one entry point parameter.
type Parameter struct {
	Type    string `yaml:"type,omitempty"`
	Default string `yaml:"default,omitempty"`
}

// EntryPoint is one runnable command of a project.
type EntryPoint struct {
	Parameters map[string]Parameter `yaml:"parameters,omitempty"`
	Command    string               `yaml:"command"`
}

// Project is a parsed project descriptor.
type Project struct {
	Name        string                `yaml:"name"`
	EntryPoints map[string]EntryPoint `yaml:"entry_points"`

	dir string
}

// Dir returns the project's root directory.
func (p *Project) Dir() string { return p.dir }

// Load reads the project descriptor from dir.
func Load(dir string) (*Project, error) {
	data, err := os.ReadFile(filepath.Join(dir, DescriptorFile))
	if err != nil {
		return nil, fmt.Errorf("projects: read descriptor: %w", err)
	}

	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("projects: parse descriptor: %w", err)
	}
	if p.Name == "" {
		p.Name = filepath.Base(dir)
	}
	p.dir = dir

	return &p, nil
}

// EntryPoint returns the named entry point, defaulting to "main" when name is
// empty.
func (p *Project) EntryPoint(name string) (EntryPoint, error) {
	if name == "" {
		name = "main"
	}

	ep, ok := p.EntryPoints[name]
	if !ok {
		return EntryPoint{}, fmt.Errorf("projects: project %q has no entry point %q", p.Name, name)
	}

	return ep, nil
}

// BuildCommand substitutes parameters into the entry point's command.
// Declared parameters fall back to their defaults; parameters without a
// default must be supplied. Unknown supplied parameters are appended as
// --key value flags, matching how extra parameters behave in project runs.
func (ep EntryPoint) BuildCommand(params map[string]string) (string, error) {
	resolved := map[string]string{}
	for name, decl := range ep.Parameters {
		if v, ok := params[name]; ok {
			resolved[name] = v
			continue
		}
		if decl.Default == "" {
			return "", fmt.Errorf("projects: parameter %q has no value and no default", name)
		}
		resolved[name] = decl.Default
	}

	command := ep.Command
	for name, value := range resolved {
		command = strings.ReplaceAll(command, "{"+name+"}", value)
	}

	var extras []string
	for name, value := range params {
		if _, declared := ep.Parameters[name]; !declared {
			extras = append(extras, "--"+name+" "+value)
		}
	}
	sort.Strings(extras)
	if len(extras) > 0 {
		command += " " + strings.Join(extras, " ")
	}

	return command, nil
}
