//go:build netbsd

package safefileio

import "syscall"

var noFollowErrnos = []syscall.Errno{syscall.EFTYPE}
