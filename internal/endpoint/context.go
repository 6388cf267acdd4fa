package endpoint

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/FEASTorg/crumbs-go/internal/protocol"
)

// DefaultHandlerCapacity bounds the handler registry unless
// WithHandlerCapacity overrides it. Registries stay small by design; see
// RegisterHandler.
const DefaultHandlerCapacity = 16

// Handler processes one dispatched message. data aliases the decoded frame
// and is only valid for the duration of the call; handlers must not block.
type Handler func(c *Context, opcode byte, data []byte, userData any)

// MessageCallback observes every successfully decoded non-staging message,
// before and independent of opcode dispatch.
type MessageCallback func(c *Context, msg *protocol.Message)

// RequestCallback populates the reply a peripheral sends on a read request.
// Leaving the message empty is valid and encodes to a zero-payload frame.
type RequestCallback func(c *Context, reply *protocol.Message)

// Context is the per-participant protocol state: role, address, CRC
// statistics, reply-staging state and the handler registry. Create one per
// bus participant at startup and keep it for the process lifetime.
type Context struct {
	role    Role
	address byte

	crcErrorCount uint32
	lastCRCOK     bool

	requestedOpcode byte

	handlers []handlerEntry
	capacity int

	onMessage MessageCallback
	onRequest RequestCallback
	userData  any

	log zerolog.Logger
}

// Option configures a Context at construction.
type Option func(*Context)

// WithHandlerCapacity sets the registry bound. Values below 1 are ignored.
// The capacity travels inside the Context itself, so two packages sharing a
// Context can never disagree about it.
func WithHandlerCapacity(n int) Option {
	return func(c *Context) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithLogger attaches a logger for engine diagnostics. The default is
// zerolog.Nop(), which keeps the receive path silent and allocation-free.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Context) {
		c.log = log
	}
}

// WithCallbacks installs the hooks at construction; equivalent to calling
// SetCallbacks afterwards.
func WithCallbacks(onMessage MessageCallback, onRequest RequestCallback, userData any) Option {
	return func(c *Context) {
		c.onMessage = onMessage
		c.onRequest = onRequest
		c.userData = userData
	}
}

// New constructs a Context. Controllers have no bus identity, so their
// address is forced to 0 regardless of the argument.
func New(role Role, address byte, opts ...Option) *Context {
	if role == RoleController {
		address = 0
	}
	c := &Context{
		role:     role,
		address:  address,
		capacity: DefaultHandlerCapacity,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.handlers = make([]handlerEntry, 0, c.capacity)
	return c
}

// SetCallbacks installs or replaces the optional hooks. Either callback may
// be nil.
func (c *Context) SetCallbacks(onMessage MessageCallback, onRequest RequestCallback, userData any) {
	c.onMessage = onMessage
	c.onRequest = onRequest
	c.userData = userData
}

// Role reports the fixed role.
func (c *Context) Role() Role { return c.role }

// Address reports the bus address; always 0 for controllers.
func (c *Context) Address() byte { return c.address }

// UserData returns the opaque pointer installed with the callbacks.
func (c *Context) UserData() any { return c.userData }

// RequestedOpcode reports the staged reply opcode. It starts at
// protocol.OpcodeIdentity and persists until the next staging frame
// overwrites it; reading a reply does not consume it.
func (c *Context) RequestedOpcode() byte { return c.requestedOpcode }

// CRCErrorCount reports the cumulative number of CRC failures observed by
// decodes through this context.
func (c *Context) CRCErrorCount() uint32 { return c.crcErrorCount }

// LastCRCOK reports whether the most recent decode through this context
// passed the integrity gate. False until the first successful decode.
func (c *Context) LastCRCOK() bool { return c.lastCRCOK }

// ResetCRCStats clears the error counter and marks the last decode good.
func (c *Context) ResetCRCStats() {
	c.crcErrorCount = 0
	c.lastCRCOK = true
}

// DecodeFrame decodes one frame while maintaining this context's CRC
// statistics. Controllers use it on reply bytes they read back; the
// peripheral receive path uses it internally. Structural failures clear
// LastCRCOK without touching the counter; only CRC mismatches count.
func (c *Context) DecodeFrame(buf []byte, msg *protocol.Message) error {
	err := protocol.Decode(buf, msg)
	switch {
	case err == nil:
		c.lastCRCOK = true
	case errors.Is(err, protocol.ErrCRCMismatch):
		c.crcErrorCount++
		c.lastCRCOK = false
		c.log.Debug().
			Uint32("crc_errors", c.crcErrorCount).
			Msg("frame failed crc")
	default:
		c.lastCRCOK = false
	}
	return err
}
