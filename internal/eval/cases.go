// Package eval runs write-evaluation cases through the add agent and scores
// the documents it produces.
package eval

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/worldview/internal/score"
)

//go:embed cases.yaml
var defaultCases []byte

// Complexity buckets cases for the summary
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityComplex  Complexity = "complex"
)

// Complexities lists the buckets in report order
var Complexities = []Complexity{ComplexitySimple, ComplexityModerate, ComplexityComplex}

// TaskType says what the agent does to base_content
type TaskType string

const (
	TaskCreate TaskType = "create"
	TaskAppend TaskType = "append"
	TaskUpdate TaskType = "update"
)

// Case is one fact to add and the structure the result should have
type Case struct {
	ID          string         `yaml:"id" json:"id"`
	Name        string         `yaml:"name" json:"name"`
	Complexity  Complexity     `yaml:"complexity" json:"complexity"`
	TaskType    TaskType       `yaml:"task_type" json:"task_type"`
	Fact        string         `yaml:"fact" json:"fact"`
	BaseContent string         `yaml:"base_content,omitempty" json:"base_content,omitempty"`
	Expected    score.Expected `yaml:"expected" json:"expected"`
	Notes       string         `yaml:"notes,omitempty" json:"notes,omitempty"`
}

type caseFile struct {
	Cases []Case `yaml:"cases"`
}

// DefaultCases returns the built-in case set
func DefaultCases() []Case {
	cases, err := ParseCases(defaultCases)
	if err != nil {
		panic(fmt.Sprintf("embedded eval cases: %v", err))
	}
	return cases
}

// LoadCases reads a case file
func LoadCases(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	cases, err := ParseCases(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// ParseCases decodes and checks a case file
func ParseCases(data []byte) ([]Case, error) {
	var file caseFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse cases: %w", err)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("no cases defined")
	}

	seen := make(map[string]bool)
	for i := range file.Cases {
		c := &file.Cases[i]
		if c.ID == "" {
			return nil, fmt.Errorf("case %d: missing id", i+1)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("case %s: duplicate id", c.ID)
		}
		seen[c.ID] = true
		if strings.TrimSpace(c.Fact) == "" {
			return nil, fmt.Errorf("case %s: missing fact", c.ID)
		}
		switch c.Complexity {
		case ComplexitySimple, ComplexityModerate, ComplexityComplex:
		case "":
			c.Complexity = ComplexitySimple
		default:
			return nil, fmt.Errorf("case %s: unknown complexity %q", c.ID, c.Complexity)
		}
		switch c.TaskType {
		case TaskCreate, TaskAppend, TaskUpdate:
		case "":
			c.TaskType = TaskCreate
		default:
			return nil, fmt.Errorf("case %s: unknown task_type %q", c.ID, c.TaskType)
		}
	}
	return file.Cases, nil
}

// Filter keeps the cases listed in ids that have the given complexity. An
// empty ids or complexity does not filter on that field.
func Filter(cases []Case, ids []string, complexity Complexity) []Case {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}

	var out []Case
	for _, c := range cases {
		if len(want) > 0 && !want[c.ID] {
			continue
		}
		if complexity != "" && c.Complexity != complexity {
			continue
		}
		out = append(out, c)
	}
	return out
}
