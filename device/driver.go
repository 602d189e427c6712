package device

import (
	"io"
	"ockernel/kernel"
)

// Driver is an interface implemented by all drivers.
type Driver interface {
	// DriverName returns the name of the driver.
	DriverName() string

	// DriverVersion returns the driver version.
	DriverVersion() (major uint16, minor uint16, patch uint16)

	// DriverInit initializes the device driver. Status and diagnostic
	// messages are written to w.
	DriverInit(w io.Writer) *kernel.Error
}
