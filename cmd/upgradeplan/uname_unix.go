//go:build unix

package main

import (
	"golang.org/x/sys/unix"
)

// Machine returns the kernel's machine name, e.g. "sun4u".
func machine() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return ""
	}
	return unix.ByteSliceToString(u.Machine[:])
}
