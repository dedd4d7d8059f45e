package pixelconv

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed Kernel or PixelBuffer. It is always raised
// at construction time.
type ConfigError struct {
	Op  string
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// StateError reports an operation applied to a buffer whose channel layout
// or shape does not allow it.
type StateError struct {
	Op     string
	Buffer string // which argument failed, e.g. "green"
	Want   string
	Got    string
}

func (e *StateError) Error() string {
	if e.Buffer == "" {
		return fmt.Sprintf("%s: want %s, got %s", e.Op, e.Want, e.Got)
	}
	return fmt.Sprintf("%s: %s buffer: want %s, got %s", e.Op, e.Buffer, e.Want, e.Got)
}

// UnsupportedFormatError is returned by decoders for rasters that are not
// 8 bits per sample with 1 or 3 channels.
type UnsupportedFormatError struct {
	Format string
	Detail string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported %s image: %s", e.Format, e.Detail)
}

func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

func IsStateError(err error) bool {
	var target *StateError
	return errors.As(err, &target)
}

func IsUnsupportedFormat(err error) bool {
	var target *UnsupportedFormatError
	return errors.As(err, &target)
}

func shapeString(b *PixelBuffer) string {
	if b == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%dx%d %s", b.width, b.height, b.layout)
}
