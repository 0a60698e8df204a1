package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type State int

const (
	StateIdle State = iota
	StateRequestingPermission
	StateDenied
	StateLive
	StateCaptured
	StateConfirmed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRequestingPermission:
		return "requesting_permission"
	case StateDenied:
		return "denied"
	case StateLive:
		return "live"
	case StateCaptured:
		return "captured"
	case StateConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Camera drives one capture session over a Device.
//
// Every request to the device is tagged with a generation number. Cancel and
// new requests bump it, so a stream delivered for a stale request is stopped
// as soon as it arrives instead of being left running.
type Camera struct {
	device Device

	mu      sync.Mutex
	state   State
	facing  Facing
	stream  Stream
	torch   bool
	pending *Image
	denied  error
	gen     uint64
}

func NewCamera(device Device, facing Facing) *Camera {
	if facing == "" {
		facing = FacingEnvironment
	}
	return &Camera{device: device, facing: facing}
}

func (c *Camera) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Camera) Facing() Facing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.facing
}

func (c *Camera) TorchOn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.torch
}

// Denied returns the reason of the last permission failure, or nil.
func (c *Camera) Denied() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.denied
}

// Open requests a stream with the given facing mode. A refused or failed
// request leaves the camera in StateDenied with the reason available from
// Denied; only cancellation is reported as an error.
func (c *Camera) Open(ctx context.Context, facing Facing) error {
	c.mu.Lock()
	c.stopStreamLocked()
	c.facing = facing
	c.torch = false
	c.pending = nil
	c.denied = nil
	c.state = StateRequestingPermission
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	stream, err := c.device.Open(ctx, facing)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		if stream != nil {
			stream.Stop()
		}
		return ErrCancelled
	}

	if err != nil {
		if stream != nil {
			stream.Stop()
		}
		if errors.Is(err, context.Canceled) {
			c.state = StateIdle
			return ErrCancelled
		}
		c.state = StateDenied
		c.denied = err
		return nil
	}

	c.stream = stream
	c.state = StateLive
	return nil
}

// Retry re-requests the stream with the current facing mode.
func (c *Camera) Retry(ctx context.Context) error {
	return c.Open(ctx, c.Facing())
}

// SwitchFacing stops the current stream and opens the opposite camera with the torch off.
func (c *Camera) SwitchFacing(ctx context.Context) error {
	return c.Open(ctx, c.Facing().Opposite())
}

// ToggleTorch flips the torch. It does nothing when the stream has no torch.
func (c *Camera) ToggleTorch() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateLive || c.stream == nil || !c.stream.HasTorch() {
		return nil
	}
	if err := c.stream.SetTorch(!c.torch); err != nil {
		return fmt.Errorf("set torch: %w", err)
	}
	c.torch = !c.torch
	return nil
}

// Capture grabs the current frame and encodes it as JPEG.
func (c *Camera) Capture() (Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateLive || c.stream == nil {
		return Image{}, ErrNotReady
	}
	if w, h := c.stream.Dimensions(); w == 0 || h == 0 {
		return Image{}, ErrNotReady
	}

	frame, err := c.stream.Frame()
	if err != nil {
		return Image{}, fmt.Errorf("grab frame: %w", err)
	}
	img, err := encodeJPEG(frame)
	if err != nil {
		return Image{}, err
	}

	c.pending = &img
	c.state = StateCaptured
	return img, nil
}

// UseFile takes a gallery image instead of a live capture.
func (c *Camera) UseFile(data []byte) (Image, error) {
	img, err := FromFile(data)
	if err != nil {
		return Image{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = &img
	c.state = StateCaptured
	return img, nil
}

// Retake drops the pending image and goes back to the live preview without a new request.
func (c *Camera) Retake() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCaptured {
		return ErrInvalidState
	}
	c.pending = nil
	switch {
	case c.stream != nil:
		c.state = StateLive
	case c.denied != nil:
		c.state = StateDenied
	default:
		c.state = StateIdle
	}
	return nil
}

// Confirm hands out the pending image and releases the stream.
func (c *Camera) Confirm() (Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateCaptured || c.pending == nil {
		return Image{}, ErrNoCapture
	}
	img := *c.pending
	c.pending = nil
	c.stopStreamLocked()
	c.state = StateConfirmed
	return img, nil
}

// Cancel abandons the session. A request still waiting on the device is
// released when the device answers.
func (c *Camera) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.pending = nil
	c.stopStreamLocked()
	c.state = StateIdle
}

func (c *Camera) Close() error {
	c.Cancel()
	return nil
}

func (c *Camera) stopStreamLocked() {
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
	c.torch = false
}
