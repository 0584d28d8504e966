//go:build linux || darwin

// Package sysres adjusts process resource limits before a run opens one
// connection per worker.
package sysres

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// RaiseOpenFiles lifts the soft open-file limit towards the hard limit so
// that at least need descriptors are available. It returns the soft limit
// in effect afterwards.
func RaiseOpenFiles(need uint64) (uint64, error) {
	var rLimit unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, errors.Wrap(err, "get open file limit")
	}
	if rLimit.Cur >= need {
		return rLimit.Cur, nil
	}

	rLimit.Cur = rLimit.Max
	if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, errors.Wrap(err, "set open file limit")
	}
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rLimit); err != nil {
		return 0, errors.Wrap(err, "get open file limit")
	}
	log.Debugf("open file limit raised to %d", rLimit.Cur)
	if rLimit.Cur < need {
		return rLimit.Cur, errors.Errorf("open file limit %d is below the %d needed", rLimit.Cur, need)
	}
	return rLimit.Cur, nil
}
