//go:build windows

package main

import "os"

// terminationSignals lists the signals that trigger a graceful shutdown.
// Windows only has os.Interrupt (Ctrl+C).
var terminationSignals = []os.Signal{os.Interrupt}
