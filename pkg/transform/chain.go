package transform

import (
	"errors"
	"fmt"
)

// Names of the three transforms every layer chain carries, in order.
const (
	TileToData       = "tile2data"
	DataToPhysical   = "data2physical"
	PhysicalToWorld  = "physical2world"
	defaultChainName = "chain"
)

// ErrEmptyChain is returned by operations that need at least one member.
var ErrEmptyChain = errors.New("transform: empty chain")

// Chain is an ordered sequence of transforms. The first member is applied
// to data first. The composed transform is cached until a member changes.
type Chain struct {
	transforms []*Affine

	version    uint64
	cachedAt   uint64
	simplified *Affine
}

// NewChain builds a chain from the given members. All members must share
// the same dimensionality.
func NewChain(transforms ...*Affine) (*Chain, error) {
	for i, t := range transforms {
		if t.NDim() != transforms[0].NDim() {
			return nil, fmt.Errorf("transform: chain member %d (%s) has %d dims, want %d: %w",
				i, t.Name, t.NDim(), transforms[0].NDim(), ErrDimMismatch)
		}
	}
	return &Chain{transforms: transforms, version: 1}, nil
}

// NewLayerChain returns the identity tile2data, data2physical,
// physical2world chain of the given dimensionality.
func NewLayerChain(ndim int) *Chain {
	c, _ := NewChain(
		Identity(ndim, TileToData),
		Identity(ndim, DataToPhysical),
		Identity(ndim, PhysicalToWorld),
	)
	return c
}

// Len returns the number of members.
func (c *Chain) Len() int { return len(c.transforms) }

// NDim returns the dimensionality shared by all members, or 0 if empty.
func (c *Chain) NDim() int {
	if len(c.transforms) == 0 {
		return 0
	}
	return c.transforms[0].NDim()
}

// Version changes whenever a member is replaced.
func (c *Chain) Version() uint64 { return c.version }

// At returns member i.
func (c *Chain) At(i int) *Affine { return c.transforms[i] }

// ByName returns the first member with the given name, or nil.
func (c *Chain) ByName(name string) *Affine {
	for _, t := range c.transforms {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// Set replaces member i and invalidates the cached composition.
func (c *Chain) Set(i int, t *Affine) error {
	if c.NDim() != t.NDim() {
		return fmt.Errorf("transform: replacing %s with %d dims in a %d-dim chain: %w",
			c.transforms[i].Name, t.NDim(), c.NDim(), ErrDimMismatch)
	}
	c.transforms[i] = t
	c.version++
	return nil
}

// SetByName replaces the first member with the given name.
func (c *Chain) SetByName(name string, t *Affine) error {
	for i, m := range c.transforms {
		if m.Name == name {
			return c.Set(i, t)
		}
	}
	return fmt.Errorf("transform: no chain member named %q", name)
}

// Sub returns a new chain over members [i, j).
func (c *Chain) Sub(i, j int) *Chain {
	members := make([]*Affine, j-i)
	copy(members, c.transforms[i:j])
	return &Chain{transforms: members, version: 1}
}

// Simplified returns the single transform equal to applying every member
// in order.
func (c *Chain) Simplified() *Affine {
	if c.simplified != nil && c.cachedAt == c.version {
		return c.simplified
	}
	if len(c.transforms) == 0 {
		return nil
	}
	out := c.transforms[0].Clone()
	for _, t := range c.transforms[1:] {
		out = out.Compose(t)
	}
	out.Name = defaultChainName
	c.simplified = out
	c.cachedAt = c.version
	return out
}

// Apply maps a point through the whole chain.
func (c *Chain) Apply(p []float64) []float64 {
	return c.Simplified().Apply(p)
}

// Inverse returns the chain of member inverses in reverse order.
func (c *Chain) Inverse() (*Chain, error) {
	if len(c.transforms) == 0 {
		return nil, ErrEmptyChain
	}
	members := make([]*Affine, len(c.transforms))
	for i, t := range c.transforms {
		inv, err := t.Inverse()
		if err != nil {
			return nil, err
		}
		members[len(members)-1-i] = inv
	}
	return &Chain{transforms: members, version: 1}, nil
}

// SetSlice returns a chain with every member restricted to axes.
func (c *Chain) SetSlice(axes []int) *Chain {
	members := make([]*Affine, len(c.transforms))
	for i, t := range c.transforms {
		members[i] = t.SetSlice(axes)
	}
	return &Chain{transforms: members, version: 1}
}

// ExpandDims returns a chain with identity axes inserted into every member.
func (c *Chain) ExpandDims(axes []int) *Chain {
	members := make([]*Affine, len(c.transforms))
	for i, t := range c.transforms {
		members[i] = t.ExpandDims(axes)
	}
	return &Chain{transforms: members, version: 1}
}
