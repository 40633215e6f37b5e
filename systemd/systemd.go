// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package systemd

import (
	"context"
	"net"
)

// State represents the sd-notify state.
// See https://www.freedesktop.org/software/systemd/man/latest/sd_notify.html#Well-known%20assignments for all possible values.
type State string

const (
	// Ready tells the service manager that the server accepts requests.
	Ready State = "READY=1"
	// Stopping tells the service manager that the server is shutting down.
	Stopping State = "STOPPING=1"
	// watchdog updates the watchdog timestamp.
	watchdog State = "WATCHDOG=1"
)

// Status returns a State carrying a free-form status line that systemctl
// status shows next to the unit.
func Status(status string) State {
	return State("STATUS=" + status)
}

// Socket retrieves a named listener passed by systemd socket activation.
// The name is the FileDescriptorName= of the socket unit.
//
// Socket activation is only implemented on Linux. On other platforms Socket
// always returns an error.
func Socket(ctx context.Context, name string) (net.Listener, error) {
	return socket(ctx, name)
}
