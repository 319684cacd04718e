package core

import (
	"fmt"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// ownerGuard pins a Network to a single goroutine.
//
// A zero owner means unbound: any goroutine may use the network, and callers
// are responsible for serializing access themselves (tests, historical
// replay). The owner is read atomically because the check runs on whichever
// goroutine touches the network, including the ones that must be rejected.
type ownerGuard struct {
	owner atomic.Int64
}

func (g *ownerGuard) bind() int64 {
	gid := goid.Get()
	g.owner.Store(gid)
	return gid
}

func (g *ownerGuard) unbind() {
	g.owner.Store(0)
}

func (g *ownerGuard) bound() bool {
	return g.owner.Load() != 0
}

// check panics if the network is bound to another goroutine. A mutation from
// the wrong goroutine is a data race on the graph tables, so it is treated
// like Go's own concurrent map write detection: fatal, not an error value.
func (g *ownerGuard) check(op string) {
	owner := g.owner.Load()
	if owner == 0 {
		return
	}
	if gid := goid.Get(); gid != owner {
		panic(fmt.Sprintf("tau: single-writer violation: %s from goroutine %d, network owned by goroutine %d", op, gid, owner))
	}
}
