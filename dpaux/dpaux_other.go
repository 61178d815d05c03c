// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !linux
// +build !linux

package dpaux

import (
	"errors"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Bus is an open I²C bus reached through its /dev node. It is only
// functional on Linux.
type Bus struct{}

func openBus(path string) (*Bus, error) {
	return nil, errors.New("dpaux: only supported on linux")
}

func (b *Bus) String() string {
	return "dpaux"
}

// Close implements io.Closer.
func (b *Bus) Close() error {
	return errors.New("dpaux: only supported on linux")
}

// Tx implements i2c.Bus.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return errors.New("dpaux: only supported on linux")
}

// SetSpeed implements i2c.Bus.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return errors.New("dpaux: only supported on linux")
}

var _ i2c.BusCloser = &Bus{}
