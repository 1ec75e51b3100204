package extent

// Cache holds a layer's plain and augmented extents behind dirty flags.
// Compute functions are supplied by the owning layer and only run when the
// corresponding flag is set.
type Cache struct {
	plain        Extent
	augmented    Extent
	plainDirty   bool
	augDirty     bool
	recomputed   int
	computePlain func() Extent
	computeAug   func() Extent
}

// NewCache returns a cache with both entries dirty.
func NewCache(plain, augmented func() Extent) *Cache {
	return &Cache{
		plainDirty:   true,
		augDirty:     true,
		computePlain: plain,
		computeAug:   augmented,
	}
}

// Get returns the plain extent, recomputing it if dirty.
func (c *Cache) Get() Extent {
	if c.plainDirty {
		c.plain = c.computePlain()
		c.plainDirty = false
		c.recomputed++
	}
	return c.plain
}

// Augmented returns the augmented extent, recomputing it if dirty.
func (c *Cache) Augmented() Extent {
	if c.augDirty {
		c.augmented = c.computeAug()
		c.augDirty = false
		c.recomputed++
	}
	return c.augmented
}

// Invalidate marks both entries dirty.
func (c *Cache) Invalidate() {
	c.plainDirty = true
	c.augDirty = true
}

// Dirty reports whether either entry needs recomputation.
func (c *Cache) Dirty() bool { return c.plainDirty || c.augDirty }

// Recomputations returns how many times an entry was recomputed.
func (c *Cache) Recomputations() int { return c.recomputed }
