package aggregate

import (
	"errors"
	"fmt"
)

// ErrUnknownEvent marks an observation whose EventID is not in the index.
var ErrUnknownEvent = errors.New("unknown event")

func errUnknownEvent(id string) error {
	return fmt.Errorf("%w: %q", ErrUnknownEvent, id)
}
