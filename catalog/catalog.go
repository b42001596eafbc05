// Package catalog provides the built-in practice problem bank.
package catalog

import (
	_ "embed"
	"fmt"

	"github.com/richinex/calcflow/model"
	"gopkg.in/yaml.v3"
)

//go:embed problems.yaml
var problemsYAML []byte

// Catalog is an immutable, ordered set of practice problems.
type Catalog struct {
	problems []model.PracticeProblem
	byID     map[string]int
}

var builtin = mustParse(problemsYAML)

// Default returns the built-in catalog.
func Default() *Catalog {
	return builtin
}

// Parse decodes a YAML list of problems. IDs must be unique and every
// problem needs a question and a known type.
func Parse(data []byte) (*Catalog, error) {
	var problems []model.PracticeProblem
	if err := yaml.Unmarshal(data, &problems); err != nil {
		return nil, fmt.Errorf("decode practice problems: %w", err)
	}

	c := &Catalog{problems: problems, byID: make(map[string]int, len(problems))}
	for i, p := range problems {
		if p.ID == "" {
			return nil, fmt.Errorf("practice problem %d: missing id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("practice problem %q: duplicate id", p.ID)
		}
		if p.Question == "" {
			return nil, fmt.Errorf("practice problem %q: missing question", p.ID)
		}
		if p.Type != model.TopicPartial && p.Type != model.TopicDirectional {
			return nil, fmt.Errorf("practice problem %q: unknown type %q", p.ID, p.Type)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

func mustParse(data []byte) *Catalog {
	c, err := Parse(data)
	if err != nil {
		panic(err)
	}
	return c
}

// Problems returns a copy of every problem in catalog order.
func (c *Catalog) Problems() []model.PracticeProblem {
	return append([]model.PracticeProblem(nil), c.problems...)
}

// Lookup returns the problem with the given id.
func (c *Catalog) Lookup(id string) (model.PracticeProblem, bool) {
	i, ok := c.byID[id]
	if !ok {
		return model.PracticeProblem{}, false
	}
	return c.problems[i], true
}

// ByType returns the problems of one topic in catalog order.
func (c *Catalog) ByType(topic model.Topic) []model.PracticeProblem {
	var out []model.PracticeProblem
	for _, p := range c.problems {
		if p.Type == topic {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of problems.
func (c *Catalog) Len() int {
	return len(c.problems)
}
