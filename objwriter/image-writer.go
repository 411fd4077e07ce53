package objwriter

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/pattyshack/nuthatch/object"
)

// Emits nodes (in the given order) into a single image file at path.  On
// success the file is complete and closed.  On failure the partially written
// file is removed (best effort) before the error is returned; a removal
// failure is joined into the returned error.
func WriteImage(
	path string,
	nodes []*object.Node,
	options Options,
) (
	err error,
) {
	if options.Platform == nil {
		return fmt.Errorf("%w: no target platform specified", ErrInvalidProgram)
	}

	if options.NewBackend == nil {
		return fmt.Errorf("%w: no backend specified", ErrInvalidProgram)
	}

	file, err := os.Create(path)
	if err != nil {
		return ioFailure(err)
	}

	closed := false
	defer func() {
		recovered := recover()
		if err == nil && recovered == nil {
			return
		}

		if !closed {
			_ = file.Close()
		}

		removeErr := os.Remove(path)
		if removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
			err = errors.Join(err, ioFailure(removeErr))
		}

		if recovered != nil {
			panic(recovered)
		}
	}()

	writer := bufio.NewWriter(file)
	session := NewSession(
		options.NewBackend(writer, options.Platform),
		options)

	err = session.EmitNodes(nodes)
	if err != nil {
		return err
	}

	err = session.Finalize()
	if err != nil {
		return err
	}

	err = writer.Flush()
	if err != nil {
		return ioFailure(err)
	}

	closed = true
	err = file.Close()
	if err != nil {
		return ioFailure(err)
	}

	return nil
}
