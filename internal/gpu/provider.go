//go:build !nogpu

package gpu

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/darkroom"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Provider opens compute devices on the first Vulkan adapter, preferring
// discrete and integrated GPUs. It implements darkroom.DeviceProvider.
//
// A host application that already owns a device can share it through
// SetDeviceProvider; devices opened afterwards use it instead of creating
// their own instance.
type Provider struct {
	mu     sync.Mutex
	shared *sharedDevice
}

type sharedDevice struct {
	device hal.Device
	queue  hal.Queue
}

var _ darkroom.DeviceProvider = (*Provider)(nil)

// Name implements darkroom.DeviceProvider.
func (p *Provider) Name() string { return "wgpu-hal" }

// SetLogger receives the logger from darkroom.SetLogger.
func (p *Provider) SetLogger(l *slog.Logger) { setLogger(l) }

// SetDeviceProvider shares a host GPU device with future sessions. The
// provider must implement HalDevice() any and HalQueue() any returning
// hal.Device and hal.Queue.
func (p *Provider) SetDeviceProvider(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return fmt.Errorf("gpu: provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return fmt.Errorf("gpu: provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return fmt.Errorf("gpu: provider HalQueue is not hal.Queue")
	}

	p.mu.Lock()
	p.shared = &sharedDevice{device: device, queue: queue}
	p.mu.Unlock()
	slogger().Info("gpu: using shared device")
	return nil
}

// NewDevice implements darkroom.DeviceProvider.
func (p *Provider) NewDevice() (darkroom.Device, error) {
	p.mu.Lock()
	shared := p.shared
	p.mu.Unlock()

	if shared != nil {
		return &Device{name: "gpu (shared)", device: shared.device, queue: shared.queue, external: true}, nil
	}
	return openVulkan()
}

func openVulkan() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("gpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}
	slogger().Info("gpu: device opened", "adapter", selected.Info.Name)
	return &Device{
		name:     fmt.Sprintf("gpu (%s)", selected.Info.Name),
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}, nil
}
