//go:build unix

// Notlogin is the login shell of the miniserver image. The image has no
// real shell, so instead of a prompt it prints a short notice and then
// sleeps until it gets killed.
package main

import (
	"fmt"
	"os"
)

const notice = "Miniserver does not provide a login prompt. It has no shell anyway.\n" +
	"If you need to execute a command, do so via ssh.\n"

func main() {
	// Login invokes the shell with arguments like "-notlogin", they carry
	// no meaning here. A closed stdout is no reason to exit either, the
	// session ends when the process gets a terminating signal.
	_, _ = fmt.Fprint(os.Stdout, notice)

	for {
		suspend()
	}
}
