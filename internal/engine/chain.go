package engine

import "github.com/roach88/tickerflow/internal/ir"

// chain is the per-entity state of a run. A chain is only touched by the
// goroutine running its entity.
type chain struct {
	entity    string
	artifacts map[ir.ArtifactKey]ir.Artifact
	result    *ir.Result
}

func newChain(entity string) *chain {
	return &chain{entity: entity, artifacts: map[ir.ArtifactKey]ir.Artifact{}}
}

func (c *chain) put(a ir.Artifact) {
	c.artifacts[a.Address()] = a
}

func (c *chain) artifact(kind ir.Kind) (ir.Artifact, bool) {
	a, ok := c.artifacts[ir.ArtifactKey{Kind: kind, Key: c.entity}]
	return a, ok
}
