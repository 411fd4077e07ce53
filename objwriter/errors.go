package objwriter

import (
	"errors"
	"fmt"

	"github.com/pattyshack/gt/parseutil"
)

var (
	// The symbol / relocation graph is malformed.  This always indicates a
	// producer side defect.
	ErrInvalidProgram = errors.New("invalid program")

	// The output artifact could not be created, written, or cleaned up.
	ErrIOFailure = errors.New("io failure")
)

func invalidProgram(
	loc parseutil.Location,
	format string,
	args ...interface{},
) error {
	return fmt.Errorf(
		"%w: %w",
		ErrInvalidProgram,
		parseutil.NewLocationError(loc, format, args...))
}

func asInvalidProgram(err error) error {
	if errors.Is(err, ErrInvalidProgram) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInvalidProgram, err)
}

func ioFailure(err error) error {
	if errors.Is(err, ErrIOFailure) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrIOFailure, err)
}
