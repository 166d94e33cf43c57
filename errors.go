package darkroom

import "errors"

var (
	// ErrDegenerateTransform is returned when the view transform cannot be
	// inverted (for example a zero scale) or when a crop selection maps to
	// an empty region of the image. The operation is aborted and no state
	// changes.
	ErrDegenerateTransform = errors.New("darkroom: degenerate view transform")

	// ErrResourceCreation is returned when the rendering session cannot
	// create its device program or upload its textures. It is fatal to the
	// session: the pipeline stops drawing afterwards.
	ErrResourceCreation = errors.New("darkroom: device resource creation failed")

	// ErrExportFailure is delivered to an export callback when reading back
	// the rendered frame fails.
	ErrExportFailure = errors.New("darkroom: export failed")

	// ErrExportPending is returned by Pipeline.Export while an earlier
	// export request has not been delivered yet.
	ErrExportPending = errors.New("darkroom: export already pending")

	// ErrPipelineDisabled is returned by RenderFrame after a resource
	// creation failure disabled the session.
	ErrPipelineDisabled = errors.New("darkroom: pipeline disabled")

	// ErrClosed is returned by operations on a closed pipeline.
	ErrClosed = errors.New("darkroom: pipeline closed")

	// ErrFilterSuperseded is delivered to a filter request whose result
	// arrived after a newer filter request, undo or redo. The result is
	// dropped.
	ErrFilterSuperseded = errors.New("darkroom: filter request superseded")

	// ErrInvalidSize is returned for empty images and viewports.
	ErrInvalidSize = errors.New("darkroom: invalid size")
)
