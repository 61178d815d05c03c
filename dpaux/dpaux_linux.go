// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package dpaux

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// i2cSlave is Linux's I2C_SLAVE ioctl request number (linux/i2c-dev.h),
// which golang.org/x/sys/unix does not expose.
const i2cSlave = 0x0703

// Bus is an open I²C bus reached through its /dev node.
//
// Each write is a single START-ADDR-DATA-STOP transaction, so every
// register write is observable at the chip before the next one begins.
type Bus struct {
	f    *os.File
	path string

	mu   sync.Mutex
	addr uint16 // peripheral address currently bound to the descriptor
}

func openBus(path string) (*Bus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("dpaux: %w", err)
	}
	return &Bus{f: f, path: path, addr: 0xFFFF}, nil
}

func (b *Bus) String() string {
	return "dpaux(" + b.path + ")"
}

// Close closes the bus file descriptor.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	err := b.f.Close()
	b.f = nil
	return err
}

// Tx implements i2c.Bus. The write and the read are separate bus
// transactions, matching the chip's set-pointer-then-read register
// protocol.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if addr != b.addr {
		// The peripheral address is per descriptor state.
		if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("dpaux: binding address %#02x: %w", addr, err)
		}
		b.addr = addr
	}
	if len(w) != 0 {
		if n, err := unix.Pwrite(int(b.f.Fd()), w, 0); err != nil {
			return fmt.Errorf("dpaux: write: %w", err)
		} else if n != len(w) {
			return fmt.Errorf("dpaux: short write: %d of %d bytes", n, len(w))
		}
	}
	if len(r) != 0 {
		if n, err := unix.Pread(int(b.f.Fd()), r, 0); err != nil {
			return fmt.Errorf("dpaux: read: %w", err)
		} else if n != len(r) {
			return fmt.Errorf("dpaux: short read: %d of %d bytes", n, len(r))
		}
	}
	return nil
}

// SetSpeed implements i2c.Bus. The DDC channel speed is fixed by the DP
// link; it cannot be changed from here.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return fmt.Errorf("dpaux: speed is fixed by the DP link")
}

var _ i2c.BusCloser = &Bus{}
