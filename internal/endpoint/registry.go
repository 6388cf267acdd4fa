package endpoint

type handlerEntry struct {
	opcode   byte
	fn       Handler
	userData any
}

// RegisterHandler binds fn to opcode. Re-registering an opcode replaces its
// handler and userData in place. A nil fn removes any existing registration
// for opcode and never fails. A new opcode beyond the construction-time
// capacity fails with ErrTableFull.
//
// Dispatch is a linear scan over the registered entries. The table holds
// tens of entries at most and bus transfer time dominates dispatch cost by
// orders of magnitude, so the scan stays simpler and smaller than a 256-slot
// jump table.
func (c *Context) RegisterHandler(opcode byte, fn Handler, userData any) error {
	if fn == nil {
		c.UnregisterHandler(opcode)
		return nil
	}

	for i := range c.handlers {
		if c.handlers[i].opcode == opcode {
			c.handlers[i].fn = fn
			c.handlers[i].userData = userData
			return nil
		}
	}

	if len(c.handlers) >= c.capacity {
		return ErrTableFull
	}
	c.handlers = append(c.handlers, handlerEntry{opcode: opcode, fn: fn, userData: userData})
	return nil
}

// UnregisterHandler removes the registration for opcode. Removing an
// unregistered opcode is a no-op.
func (c *Context) UnregisterHandler(opcode byte) {
	for i := range c.handlers {
		if c.handlers[i].opcode == opcode {
			c.handlers = append(c.handlers[:i], c.handlers[i+1:]...)
			return
		}
	}
}

// HandlerCount reports how many opcodes are registered.
func (c *Context) HandlerCount() int { return len(c.handlers) }

// HandlerCapacity reports the registry bound chosen at construction.
func (c *Context) HandlerCapacity() int { return c.capacity }

func (c *Context) handlerFor(opcode byte) (Handler, any, bool) {
	for i := range c.handlers {
		if c.handlers[i].opcode == opcode {
			return c.handlers[i].fn, c.handlers[i].userData, true
		}
	}
	return nil, nil, false
}
