package auth

import (
	"fmt"
	"strings"
	"sync"
)

// Capability is a one-shot delegated authorization for a single privileged
// call: it names the target component, the operation, and the exact
// argument tuple, and can be consumed at most once. A component mints one
// inside its own authenticated call and hands it to the callee, which
// accepts the call without re-checking the original caller's signature.
type Capability struct {
	granter Principal
	target  string
	op      string
	args    string

	mu   sync.Mutex
	used bool
}

// NewCapability mints a capability granted by the calling component.
func NewCapability(granter Principal, target, op string, args ...any) *Capability {
	return &Capability{
		granter: granter,
		target:  target,
		op:      op,
		args:    encodeArgs(args),
	}
}

// Granter is the principal that minted the capability.
func (c *Capability) Granter() Principal {
	if c == nil {
		return ""
	}
	return c.granter
}

// Consume validates that the capability is scoped to exactly this call and
// marks it spent. A second Consume, or any mismatch in target, operation or
// arguments, fails.
func (c *Capability) Consume(target, op string, args ...any) error {
	if c == nil {
		return fmt.Errorf("missing capability")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.used {
		return fmt.Errorf("capability already consumed")
	}
	if c.target != target {
		return fmt.Errorf("capability scoped to target %q, not %q", c.target, target)
	}
	if c.op != op {
		return fmt.Errorf("capability scoped to operation %q, not %q", c.op, op)
	}
	if encoded := encodeArgs(args); c.args != encoded {
		return fmt.Errorf("capability arguments do not match the call")
	}
	c.used = true
	return nil
}

func encodeArgs(args []any) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprintf("%v", a)
	}
	return strings.Join(parts, "|")
}
