// Package typecanon keeps recursive structural type definitions in a
// canonical, deduplicated form. Two definitions receive the same id iff
// they describe the same infinite type tree.
package typecanon

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/i5heu/typecanon/pkg/key"
	"github.com/i5heu/typecanon/pkg/model"
	"github.com/i5heu/typecanon/pkg/repository"
	"github.com/i5heu/typecanon/pkg/scc"
	"github.com/i5heu/typecanon/pkg/validate"
)

var (
	ErrUnknownID = errors.New("typecanon: unknown id")
	ErrGraph     = errors.New("typecanon: malformed graph")
)

// Canon is a repository guarded for one writer and many readers.
type Canon struct {
	log    *slog.Logger
	config Config

	mu   sync.RWMutex
	repo *repository.Repository
}

// New returns an empty Canon.
func New(conf Config) *Canon { // A
	if conf.Logger == nil {
		conf.Logger = defaultLogger()
	}
	return &Canon{
		log:    conf.Logger,
		config: conf,
		repo:   repository.New(conf.options()),
	}
}

// AddSCC canonicalizes one SCC of defs, see repository.Repository.AddSCC.
// The call holds the write lock throughout.
func (c *Canon) AddSCC(members []int, defs []repository.Definition, out []model.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.repo.AddSCC(members, defs, out)
}

// AddGraph canonicalizes a whole definition graph: definition i has
// labels[i] and successors succs[i]. It returns the id of every definition.
func (c *Canon) AddGraph(labels []model.Label, succs [][]int) ([]model.ID, error) { // A
	if len(labels) != len(succs) {
		return nil, fmt.Errorf("%w: %d labels, %d successor lists", ErrGraph, len(labels), len(succs))
	}
	defs := make([]repository.Definition, len(labels))
	for i := range defs {
		refs := make([]repository.Ref, len(succs[i]))
		for j, s := range succs[i] {
			if s < 0 || s >= len(labels) {
				return nil, fmt.Errorf("%w: definition %d edge %d -> %d", ErrGraph, i, j, s)
			}
			refs[j] = repository.Local(s)
		}
		defs[i] = repository.Definition{Label: labels[i], Succs: refs}
	}

	comps := scc.Components(len(defs), func(i int) []int { return succs[i] })
	out := repository.NewMapping(len(defs))

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, comp := range comps {
		c.repo.AddSCC(comp, defs, out)
	}
	c.log.Debug("graph canonicalized",
		"definitions", len(defs),
		"components", len(comps),
	)
	return out, nil
}

// Lookup returns the id table entry of id and a copy of its component.
func (c *Canon) Lookup(id model.ID) (model.Entry, *model.Component, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.repo.Storage().Has(id) {
		return model.Entry{}, nil, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	e, comp := c.repo.Lookup(id)
	return e, comp, nil
}

// Signature renders the structural key of id.
func (c *Canon) Signature(id model.ID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.repo.Storage().Has(id) {
		return "", fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	comp, i := c.repo.Storage().ComponentOf(id)
	return key.Signature(comp.Vertices, i).String(), nil
}

// Fingerprint returns the xxhash digest of the structural key of id. Runs
// that assign the same ids to a type's dependencies give it the same
// fingerprint.
func (c *Canon) Fingerprint(id model.ID) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.repo.Storage().Has(id) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	comp, i := c.repo.Storage().ComponentOf(id)
	return key.Digest(key.Fingerprint(comp.Vertices, i)), nil
}

// Equal reports whether a and b denote the same type. Canonical ids are
// equal iff their types are.
func (c *Canon) Equal(a, b model.ID) bool { return a == b }

func (c *Canon) Stats() repository.Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repo.Stats()
}

// Validate runs the deep storage checks.
func (c *Canon) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return validate.Storage(c.repo.Storage(), c.config.CheckWorkers)
}

func (c *Canon) String() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.repo.String()
}
