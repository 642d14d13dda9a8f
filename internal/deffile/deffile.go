// Package deffile reads definition graphs from YAML files of the form
//
//	definitions:
//	  - name: int
//	  - name: list
//	    label: record
//	    edges: [int, list]
//
// A definition without a label is labelled by its name.
package deffile

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/i5heu/typecanon/pkg/model"
)

var (
	ErrEmptyName     = errors.New("deffile: definition without a name")
	ErrDuplicateName = errors.New("deffile: duplicate definition")
	ErrUnknownName   = errors.New("deffile: edge to unknown definition")
)

type definition struct {
	Name  string   `yaml:"name"`
	Label string   `yaml:"label"`
	Edges []string `yaml:"edges"`
}

type file struct {
	Definitions []definition `yaml:"definitions"`
}

// Graph is a parsed definition file. Definition i is called Names[i], has
// Labels[i] and successors Succs[i].
type Graph struct {
	Names  []string
	Labels []model.Label
	Succs  [][]int
}

func (g *Graph) Len() int { return len(g.Names) }

// Index returns the position of the definition called name.
func (g *Graph) Index(name string) (int, bool) {
	for i, n := range g.Names {
		if n == name {
			return i, true
		}
	}
	return -1, false
}

func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("deffile: read %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Graph, error) { // A
	var f file
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("deffile: %w", err)
	}

	index := make(map[string]int, len(f.Definitions))
	g := &Graph{
		Names:  make([]string, len(f.Definitions)),
		Labels: make([]model.Label, len(f.Definitions)),
		Succs:  make([][]int, len(f.Definitions)),
	}
	for i, d := range f.Definitions {
		if d.Name == "" {
			return nil, fmt.Errorf("%w: entry %d", ErrEmptyName, i)
		}
		if _, dup := index[d.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, d.Name)
		}
		index[d.Name] = i
		g.Names[i] = d.Name
		g.Labels[i] = model.Label(d.Name)
		if d.Label != "" {
			g.Labels[i] = model.Label(d.Label)
		}
	}

	for i, d := range f.Definitions {
		g.Succs[i] = make([]int, len(d.Edges))
		for j, target := range d.Edges {
			t, ok := index[target]
			if !ok {
				return nil, fmt.Errorf("%w: %q -> %q", ErrUnknownName, d.Name, target)
			}
			g.Succs[i][j] = t
		}
	}
	return g, nil
}
