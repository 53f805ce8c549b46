package video

import "errors"

var (
	// ErrScreenNotCompiled is returned when screen support was not compiled in.
	ErrScreenNotCompiled = errors.New("screen support not compiled in (build with -tags=screen)")

	// ErrBadRotation is returned for a rotation other than 0, 90, 180 or 270.
	ErrBadRotation = errors.New("video: unsupported rotation")

	// ErrUnsupportedDepth is returned for framebuffers that are not RGB565.
	ErrUnsupportedDepth = errors.New("video: unsupported color depth")
)
