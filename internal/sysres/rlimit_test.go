//go:build linux || darwin

package sysres

import (
	"testing"

	"golang.org/x/sys/unix"
)

func TestRaiseOpenFilesKeepsSufficientLimit(t *testing.T) {
	var before unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &before); err != nil {
		t.Fatal(err)
	}
	got, err := RaiseOpenFiles(1)
	if err != nil {
		t.Fatal(err)
	}
	if got != before.Cur {
		t.Fatalf("limit changed from %d to %d although it sufficed", before.Cur, got)
	}
}
