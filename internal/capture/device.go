package capture

import (
	"context"
	"image"
)

type Facing string

const (
	FacingUser        Facing = "user"
	FacingEnvironment Facing = "environment"
)

func (f Facing) Opposite() Facing {
	if f == FacingUser {
		return FacingEnvironment
	}
	return FacingUser
}

// Device hands out camera streams. Open blocks until the user answers the
// permission prompt and returns ErrPermissionDenied (possibly wrapped) on refusal.
type Device interface {
	Open(ctx context.Context, facing Facing) (Stream, error)
}

// Stream is a live camera feed. Dimensions reports 0x0 until the first frame arrives.
type Stream interface {
	Dimensions() (width, height int)
	Frame() (image.Image, error)
	HasTorch() bool
	SetTorch(on bool) error
	Stop()
}
