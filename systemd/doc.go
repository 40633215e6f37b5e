// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Package systemd lets the adhoc server run as a systemd service.

It implements the parts of the sd-notify protocol the server needs
(readiness, stopping, status and watchdog keep-alives) and retrieves
listeners passed by socket activation, which the server uses when its
address has the "sd-socket:" prefix.

Everything is configured through the environment systemd sets up
(NOTIFY_SOCKET, WATCHDOG_USEC, LISTEN_PID, LISTEN_FDS, LISTEN_FDNAMES), read
through [cli.GetEnv] so tests can inject it. Outside of systemd all functions
are no-ops or return an error.

[cli.GetEnv]: https://pkg.go.dev/go.astrophena.name/adhoc/cli#GetEnv
*/
package systemd
