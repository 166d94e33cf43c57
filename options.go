package darkroom

// PipelineOption configures a Pipeline during creation.
//
// Example:
//
//	p, err := darkroom.NewPipeline(src,
//	    darkroom.WithClearColor(0, 0, 0, 1),
//	    darkroom.WithOnError(func(err error) { log.Print(err) }),
//	)
type PipelineOption func(*pipelineOptions)

type pipelineOptions struct {
	device    Device
	clear     [4]float32
	intensity float32
	onError   func(error)
	onFrame   func()
}

func defaultPipelineOptions() pipelineOptions {
	return pipelineOptions{
		device:    nil, // opened on the first frame
		clear:     [4]float32{0.1, 0.1, 0.1, 1},
		intensity: 1,
	}
}

// WithDevice renders with d instead of a device from the registered
// provider. The pipeline takes ownership and destroys d when it is done.
func WithDevice(d Device) PipelineOption {
	return func(o *pipelineOptions) {
		o.device = d
	}
}

// WithClearColor sets the color drawn outside the image. The default is
// dark gray (0.1, 0.1, 0.1, 1).
func WithClearColor(r, g, b, a float32) PipelineOption {
	return func(o *pipelineOptions) {
		o.clear = [4]float32{r, g, b, a}
	}
}

// WithIntensity sets the initial filter intensity in [0, 1].
func WithIntensity(v float32) PipelineOption {
	return func(o *pipelineOptions) {
		o.intensity = clampIntensity(v)
	}
}

// WithOnError installs a hook receiving every error the pipeline reports
// asynchronously: session failures, rejected filters, failed crops and
// exports. It runs on the render goroutine.
func WithOnError(fn func(error)) PipelineOption {
	return func(o *pipelineOptions) {
		o.onError = fn
	}
}

// WithOnFrame installs a hook called by Run after every rendered frame,
// typically to present it.
func WithOnFrame(fn func()) PipelineOption {
	return func(o *pipelineOptions) {
		o.onFrame = fn
	}
}

// EditorOption configures an Editor during creation.
type EditorOption func(*editorOptions)

type editorOptions struct {
	depth    int
	filters  LUTLoader
	onChange func(canUndo, canRedo bool)
	onError  func(error)
}

// WithHistoryDepth sets the number of undo steps kept. The default is
// DefaultHistoryDepth.
func WithHistoryDepth(n int) EditorOption {
	return func(o *editorOptions) {
		o.depth = n
	}
}

// WithFilters sets the source of lookup tables for ApplyFilter, Undo and
// Redo.
func WithFilters(l LUTLoader) EditorOption {
	return func(o *editorOptions) {
		o.filters = l
	}
}

// WithHistoryChanged installs a hook called after every history change,
// typically to enable or disable undo and redo controls.
func WithHistoryChanged(fn func(canUndo, canRedo bool)) EditorOption {
	return func(o *editorOptions) {
		o.onChange = fn
	}
}

// WithEditorOnError installs a hook receiving filter load failures.
func WithEditorOnError(fn func(error)) EditorOption {
	return func(o *editorOptions) {
		o.onError = fn
	}
}

func clampIntensity(v float32) float32 {
	if !(v >= 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
