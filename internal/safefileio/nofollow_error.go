//go:build !netbsd

package safefileio

import "syscall"

// O_NOFOLLOW on a symlink fails with ELOOP, or EMLINK on FreeBSD
var noFollowErrnos = []syscall.Errno{syscall.ELOOP, syscall.EMLINK}
