package darkroom

import (
	"errors"
	"sync"

	"github.com/gogpu/darkroom/cube"
)

// PixelFormat is the channel order of a read-back framebuffer.
type PixelFormat int

const (
	// FormatRGBA8 stores bytes R, G, B, A.
	FormatRGBA8 PixelFormat = iota

	// FormatBGRA8 stores bytes B, G, R, A.
	FormatBGRA8
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatBGRA8:
		return "BGRA8"
	default:
		return "unknown"
	}
}

// Quad is the textured rectangle drawn each frame, centered on the origin.
type Quad struct {
	// HalfW and HalfH are the half extents from FitInside.
	HalfW, HalfH float64

	// UV is the source region mapped onto the quad: UV.Left/Top at the
	// top-left corner, UV.Right/Bottom at the bottom-right.
	UV Rect
}

// DrawCall carries everything a device needs to render one frame.
type DrawCall struct {
	Quad Quad

	// MVP places the quad in clip space.
	MVP Mat4

	// HasLUT selects the uploaded lookup table; when false the bypass
	// table is bound and the lookup stage is skipped.
	HasLUT bool

	Intensity  float32
	Brightness float32
	Contrast   float32
	Saturation float32

	// Clear fills pixels outside the quad.
	Clear [4]float32
}

// Device is the rendering context owned by a pipeline's render goroutine.
//
// A device holds one source texture, one lookup table and one color
// buffer sized by Resize. Methods are called from a single goroutine.
type Device interface {
	// Name identifies the implementation in logs.
	Name() string

	// CreateProgram builds the shading program. It is called once per
	// session before any other method.
	CreateProgram() error

	// UploadSource replaces the source texture.
	UploadSource(src *Pixmap) error

	// UploadLUT replaces the lookup table. A nil table binds a 1x1x1
	// bypass table.
	UploadLUT(t *cube.Table) error

	// Resize reallocates the color buffer.
	Resize(w, h int) error

	// Draw renders one frame into the color buffer.
	Draw(dc DrawCall) error

	// ReadPixels copies the color buffer into dst, which holds w*h*4
	// bytes. Rows are bottom-up, as framebuffers store them.
	ReadPixels(dst []byte) (PixelFormat, error)

	// Destroy releases all device resources.
	Destroy()
}

// DeviceProvider creates devices for new rendering sessions.
//
// Providers are registered by backend packages via blank import:
//
//	import _ "github.com/gogpu/darkroom/gpu"
type DeviceProvider interface {
	// Name returns the provider name (e.g., "vulkan").
	Name() string

	// NewDevice opens a device for one session.
	NewDevice() (Device, error)
}

var (
	providerMu sync.RWMutex
	provider   DeviceProvider
)

// RegisterDeviceProvider installs the provider used by pipelines that were
// not given a device explicitly. Only one provider is kept; a later call
// replaces the earlier one.
func RegisterDeviceProvider(p DeviceProvider) error {
	if p == nil {
		return errors.New("darkroom: device provider must not be nil")
	}
	providerMu.Lock()
	provider = p
	providerMu.Unlock()

	propagateLogger(p, Logger())
	slogger().Info("device provider registered", "name", p.Name())
	return nil
}

// RegisteredDeviceProvider returns the current provider, or nil if none.
func RegisteredDeviceProvider() DeviceProvider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return provider
}

// openDevice opens a device from the registered provider, falling back to
// the software device when there is no provider or it fails.
func openDevice() Device {
	providerMu.RLock()
	p := provider
	providerMu.RUnlock()

	if p != nil {
		dev, err := p.NewDevice()
		if err == nil {
			slogger().Info("device selected", "name", dev.Name())
			return dev
		}
		slogger().Warn("device provider failed, using software device", "provider", p.Name(), "err", err)
	}
	return NewSoftwareDevice()
}

// deviceSharer is implemented by providers that can render on a device
// owned by the host application.
type deviceSharer interface {
	SetDeviceProvider(provider any) error
}

// ShareDevice passes a host GPU device to the registered provider so new
// sessions render on it instead of opening their own. It is a no-op when
// no provider is registered or the provider cannot share devices.
//
// The host provider should implement HalDevice() any and HalQueue() any
// returning wgpu/hal types.
func ShareDevice(host any) error {
	p := RegisteredDeviceProvider()
	if p == nil {
		return nil
	}
	if s, ok := p.(deviceSharer); ok {
		return s.SetDeviceProvider(host)
	}
	return nil
}
