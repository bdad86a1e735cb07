package port

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPortBusy indicates another session in this process already holds
// the port. Check with errors.Is on the error returned by Open.
var ErrPortBusy = errors.New("port is already in use by another update session")

var (
	claimsMu sync.Mutex
	claims   = make(map[string]struct{})
)

// claim marks a device as owned by one session. Two sessions against the
// same port must fail fast rather than interleave frames, so a second
// claim is rejected even on platforms where a second OS-level open would
// succeed.
func claim(device string) error {
	claimsMu.Lock()
	defer claimsMu.Unlock()

	if _, held := claims[device]; held {
		return fmt.Errorf("%s: %w", device, ErrPortBusy)
	}
	claims[device] = struct{}{}
	return nil
}

// release frees a claimed device.
func release(device string) {
	claimsMu.Lock()
	defer claimsMu.Unlock()
	delete(claims, device)
}
