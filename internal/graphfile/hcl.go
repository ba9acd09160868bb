package graphfile

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

type hclFile struct {
	Tasks []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	Name      string   `hcl:"name,label"`
	Action    string   `hcl:"action"`
	Message   *string  `hcl:"message"`
	Duration  *string  `hcl:"duration"`
	Command   []string `hcl:"command,optional"`
	DependsOn []string `hcl:"depends_on,optional"`
}

func (t *hclTask) spec() TaskSpec {
	s := TaskSpec{
		Name:      t.Name,
		Action:    t.Action,
		Command:   t.Command,
		DependsOn: t.DependsOn,
	}
	if t.Message != nil {
		s.Message = *t.Message
	}
	if t.Duration != nil {
		s.Duration = *t.Duration
	}
	return s
}

// ParseHCL parses an HCL graph. filename is used in diagnostics. env
// supplies the env.* variables; pass nil to use the process environment.
func ParseHCL(data []byte, filename string, env map[string]string) (*Graph, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL graph %s: %w", filename, diags)
	}

	var root hclFile
	diags = gohcl.DecodeBody(file.Body, evalContext(env), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL graph %s: %w", filename, diags)
	}

	g := &Graph{Tasks: make([]TaskSpec, 0, len(root.Tasks))}
	for _, t := range root.Tasks {
		g.Tasks = append(g.Tasks, t.spec())
	}
	return g, nil
}

// evalContext exposes env as the object variable "env".
func evalContext(env map[string]string) *hcl.EvalContext {
	if env == nil {
		env = environ()
	}
	vals := make(map[string]cty.Value, len(env))
	for k, v := range env {
		vals[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": cty.ObjectVal(vals),
		},
	}
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	return env
}
