// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/i2c"
)

// addr is the fixed 7 bit I²C peripheral address of the RTD2142.
const addr = 0x35

// Operation deadlines. Erase and program completion are bounded by the
// flash part; entering ISP mode waits for the MCU to wind down.
const (
	pollInterval  = time.Millisecond
	ddcciSettle   = 200 * time.Millisecond
	resetSettle   = time.Second
	eraseTimeout  = 10 * time.Second
	writeTimeout  = 10 * time.Second
	detachTimeout = 60 * time.Second
)

// Opts holds the options for New.
type Opts struct {
	// Reporter receives status and progress callbacks during long running
	// operations. It may be nil.
	Reporter Reporter
}

// New returns a handle to an RTD2142 on the given bus.
//
// The peripheral address is fixed at 0x35. New performs no I/O; call Setup
// to probe the dual bank state and the running firmware version.
func New(bus i2c.Bus, opts *Opts) (*Dev, error) {
	if bus == nil {
		return nil, errors.New("rtd2142: nil bus")
	}
	d := &Dev{
		c:          &i2c.Dev{Bus: bus, Addr: addr},
		activeBank: BankInvalid,
	}
	if opts != nil {
		d.rep = opts.Reporter
	}
	return d, nil
}

// Dev is a handle to an RTD2142 MST hub.
//
// All methods issue blocking I²C transactions. The Dev owns the chip
// exclusively; accesses from multiple goroutines are serialized but
// interleaving an update with an unrelated user of the same bus is the
// caller's responsibility.
type Dev struct {
	mu  sync.Mutex
	c   *i2c.Dev
	rep Reporter

	activeBank Bank
	version    string
	flags      Flag
}

func (d *Dev) String() string {
	return fmt.Sprintf("RTD2142{%s}", d.c)
}

// Halt implements conn.Resource. The chip keeps running; there is nothing
// to shut down.
func (d *Dev) Halt() error {
	return nil
}

// ActiveBank returns the bank the chip booted from, as probed by Setup.
func (d *Dev) ActiveBank() Bank {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.activeBank
}

// Version returns the running firmware version as "major.minor", or an
// empty string when the chip booted from the boot bank or Setup has not
// succeeded yet.
func (d *Dev) Version() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Flags returns the current device flags.
func (d *Dev) Flags() Flag {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.flags
}

// Setup probes the dual bank state and publishes the active bank and
// firmware version. The device is flagged Updatable only when dual bank
// operation is enabled in diff mode.
func (d *Dev) Setup() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setup()
}

// Reload re-probes the device after an update so the caller sees the fresh
// bank state. It is equivalent to Setup.
func (d *Dev) Reload() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setup()
}

func (d *Dev) setup() error {
	d.flags &^= FlagUpdatable
	d.activeBank = BankInvalid
	d.version = ""
	st, err := d.dualBank()
	if err != nil {
		return err
	}
	if !st.Enabled || st.Mode != ModeDiff {
		return nil
	}
	d.flags |= FlagUpdatable
	d.activeBank = st.Active
	switch st.Active {
	case BankUser1:
		d.version = st.User1.String()
	case BankUser2:
		d.version = st.User2.String()
	}
	return nil
}

func (d *Dev) status(s Status) {
	if d.rep != nil {
		d.rep.Status(s)
	}
}

func (d *Dev) progress(done, total int) {
	if d.rep != nil {
		d.rep.Progress(done, total)
	}
}

// Injected for tests.
var (
	sleep = time.Sleep
	now   = time.Now
)
