package service

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/tenessy0570/netrefer-api-interface/pkg/models"
)

var (
	errMissingSegment = errors.New("response has no collection segment")
	errPageLimit      = errors.New("page limit exceeded")
)

// UpstreamError describes a failed call to the NetRefer API. It matches
// models.ErrUpstream, and models.ErrUpstreamTimeout when the call timed out.
type UpstreamError struct {
	Query string
	Skip  int
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("netrefer %s query (skip %d): %v", e.Query, e.Skip, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func (e *UpstreamError) Is(target error) bool {
	switch target {
	case models.ErrUpstream:
		return true
	case models.ErrUpstreamTimeout:
		return isTimeout(e.Err)
	}
	return false
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
