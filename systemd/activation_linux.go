// © 2025 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

//go:build linux

package systemd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"slices"
	"strconv"
	"strings"

	"go.astrophena.name/adhoc/cli"
)

// listenFDsStart is the first file descriptor passed by systemd.
const listenFDsStart = 3

var errNoActivation = errors.New("systemd: LISTEN_PID not set, not running under socket activation")

func socket(ctx context.Context, name string) (net.Listener, error) {
	names, err := listenFDNames(cli.GetEnv(ctx).Getenv)
	if err != nil {
		return nil, err
	}

	i := slices.Index(names, name)
	if i == -1 {
		return nil, fmt.Errorf("systemd: socket name %q not found in LISTEN_FDNAMES", name)
	}

	fd := listenFDsStart + i
	f := os.NewFile(uintptr(fd), name)
	if f == nil {
		return nil, fmt.Errorf("systemd: invalid file descriptor %d", fd)
	}
	defer f.Close()
	return net.FileListener(f)
}

// listenFDNames validates the socket activation environment and returns the
// names of the passed descriptors in order.
func listenFDNames(getenv func(string) string) ([]string, error) {
	pidStr := getenv("LISTEN_PID")
	if pidStr == "" {
		return nil, errNoActivation
	}
	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return nil, fmt.Errorf("systemd: invalid LISTEN_PID: %w", err)
	}
	if pid != os.Getpid() {
		return nil, fmt.Errorf("systemd: LISTEN_PID (%d) does not match current PID (%d)", pid, os.Getpid())
	}

	n, err := strconv.Atoi(getenv("LISTEN_FDS"))
	if err != nil {
		return nil, fmt.Errorf("systemd: invalid LISTEN_FDS: %w", err)
	}
	if n < 1 {
		return nil, errors.New("systemd: no file descriptors received")
	}

	namesStr := getenv("LISTEN_FDNAMES")
	if namesStr == "" {
		return nil, errors.New("systemd: LISTEN_FDNAMES not set")
	}
	names := strings.Split(namesStr, ":")
	if len(names) != n {
		return nil, fmt.Errorf("systemd: LISTEN_FDNAMES has %d names, LISTEN_FDS is %d", len(names), n)
	}
	return names, nil
}
