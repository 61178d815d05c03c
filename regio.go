// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

import "time"

// Register access primitives. Every register write is a single I²C
// transaction so each write is observable at the chip before the next one
// starts; the indirect, address and poll helpers issue several in sequence.

func (d *Dev) writeReg(reg, val uint8) error {
	return d.c.Tx([]byte{reg, val}, nil)
}

// writeRegBurst writes data to reg as one transaction. The chip treats
// consecutive bytes after the register address as a FIFO load.
func (d *Dev) writeRegBurst(reg uint8, data []byte) error {
	w := make([]byte, 1, 1+len(data))
	w[0] = reg
	return d.c.Tx(append(w, data...), nil)
}

func (d *Dev) readReg(reg uint8) (uint8, error) {
	var v [1]byte
	if err := d.c.Tx([]byte{reg}, v[:]); err != nil {
		return 0, err
	}
	return v[0], nil
}

// setIndirect points the 16 bit indirect window at addr.
func (d *Dev) setIndirect(addr uint16) error {
	if err := d.writeReg(regIndirectLo, indirectPrefix); err != nil {
		return err
	}
	if err := d.writeReg(regIndirectHi, uint8(addr>>8)); err != nil {
		return err
	}
	return d.writeReg(regIndirectLo, uint8(addr))
}

func (d *Dev) readRegIndirect(addr uint16) (uint8, error) {
	if err := d.setIndirect(addr); err != nil {
		return 0, err
	}
	return d.readReg(regIndirectHi)
}

func (d *Dev) writeRegIndirect(addr uint16, val uint8) error {
	if err := d.setIndirect(addr); err != nil {
		return err
	}
	return d.writeReg(regIndirectHi, val)
}

// setCmdAddress loads the 24 bit flash operation address.
func (d *Dev) setCmdAddress(addr uint32) error {
	if err := d.writeReg(regCmdAddrHi, uint8(addr>>16)); err != nil {
		return err
	}
	if err := d.writeReg(regCmdAddrMid, uint8(addr>>8)); err != nil {
		return err
	}
	return d.writeReg(regCmdAddrLo, uint8(addr))
}

// pollReg reads reg until (value & mask) == expected, sleeping 1 ms between
// reads. The deadline is absolute, computed once on entry.
func (d *Dev) pollReg(reg, mask, expected uint8, timeout time.Duration) error {
	deadline := now().Add(timeout)
	for {
		v, err := d.readReg(reg)
		if err != nil {
			return err
		}
		if v&mask == expected {
			return nil
		}
		if now().After(deadline) {
			return &TimeoutError{Reg: reg, Mask: mask, Expected: expected, Last: v, Wait: timeout}
		}
		sleep(pollInterval)
	}
}
