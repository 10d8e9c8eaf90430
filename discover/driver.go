package discover

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/steveford-obs/btsdp/l2cap"
	"github.com/steveford-obs/btsdp/sdp"
)

// ResultHandler receives the frozen Service set a Discover call
// produced, or the error that aborted it.
type ResultHandler func(services []*Service, err error)

// Driver issues the ServiceSearch → ServiceAttribute sequence described
// in §4.6. It holds no per-discovery state between calls; each Discover
// call tracks its own deadline and service list through the callback
// chain it builds.
type Driver struct{}

// NewDriver returns a Driver. Its methods are reentrant across sockets;
// only the socket's queue serializes command delivery.
func NewDriver() *Driver { return &Driver{} }

// Discover runs a ServiceSearch for uuids, then one ServiceAttribute
// request (attribute range AllAttrs) per returned handle, and hands the
// resulting frozen Services to handler. wait is a per-discovery time
// budget, not per-PDU: the remaining budget is recomputed before every
// ServiceAttribute request, and exhaustion aborts without sending
// further requests (§4.6).
func (d *Driver) Discover(ctx context.Context, wait time.Duration, sock *l2cap.Socket, uuids []sdp.UUID, handler ResultHandler) {
	deadline := time.Now().Add(wait)

	cmd, err := sdp.NewServiceSearchRequest(uuids, 0xFFFF)
	if err != nil {
		handler(nil, err)
		return
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		handler(nil, sdp.NewTimeoutError("discover: budget exhausted before ServiceSearch"))
		return
	}

	err = sock.Execute(remaining, cmd, func(_ *sdp.Command, result *sdp.Result, err error) {
		if err != nil {
			handler(nil, err)
			return
		}
		if result.Status != sdp.StatusSuccess {
			handler(nil, sdp.NewProtocolError(result.Status))
			return
		}

		log.Debugf("discover: ServiceSearch returned %d handle(s)", len(result.Handles))
		services := make([]*Service, 0, len(result.Handles))
		for _, h := range result.Handles {
			services = append(services, NewService(h))
		}

		// This callback runs with the queue's lock held, so the next
		// Execute is issued from a new goroutine.
		go d.fetchAttributes(ctx, sock, deadline, services, 0, handler)
	})
	if err != nil {
		handler(nil, err)
	}
}

func (d *Driver) fetchAttributes(ctx context.Context, sock *l2cap.Socket, deadline time.Time, services []*Service, idx int, handler ResultHandler) {
	if err := ctx.Err(); err != nil {
		handler(nil, err)
		return
	}

	if idx >= len(services) {
		for _, s := range services {
			s.freeze()
		}
		handler(services, nil)
		return
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		handler(nil, sdp.NewTimeoutError("discover: budget exhausted before ServiceAttribute"))
		return
	}

	svc := services[idx]
	cmd, err := sdp.NewServiceAttributeRequest(svc.Handle, []sdp.AttrRange{sdp.AllAttrs})
	if err != nil {
		handler(nil, err)
		return
	}

	err = sock.Execute(remaining, cmd, func(_ *sdp.Command, result *sdp.Result, err error) {
		if err != nil {
			handler(nil, err)
			return
		}
		if result.Status != sdp.StatusSuccess {
			handler(nil, sdp.NewProtocolError(result.Status))
			return
		}

		for id, val := range result.Attributes {
			svc.applyAttribute(id, val)
		}

		go d.fetchAttributes(ctx, sock, deadline, services, idx+1, handler)
	})
	if err != nil {
		handler(nil, err)
	}
}
