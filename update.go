// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

import (
	"bytes"
	"fmt"
)

// WriteFirmware writes img to the inactive user bank and rewrites its flag
// record so the bank is selected on the next boot.
//
// img must be exactly UserImageSize bytes. The active bank and its flag
// record are never touched, so a failure at any point leaves the device
// bootable. The written image is read back and compared; a mismatch is
// reported as a VerifyError before any flag is rewritten.
//
// The device must be in ISP mode, see Detach.
func (d *Dev) WriteFirmware(img []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(img) != UserImageSize {
		return fmt.Errorf("rtd2142: firmware image must be %#x bytes, got %#x", UserImageSize, len(img))
	}
	base, flagAddr, err := d.target()
	if err != nil {
		return err
	}

	d.status(StatusErase)
	for off := uint32(0); off < UserImageSize; off += blockSize {
		if err := d.eraseBlock(base + off); err != nil {
			return err
		}
	}

	d.status(StatusWrite)
	if err := d.writeFlash(base, img); err != nil {
		return err
	}

	d.status(StatusVerify)
	buf := make([]byte, UserImageSize)
	if err := d.readFlash(base, buf); err != nil {
		return err
	}
	if !bytes.Equal(buf, img) {
		return &VerifyError{}
	}

	// Make the target bank's flag slot non virgin. The MCU rewrites the
	// record with its own bookkeeping on the next boot.
	d.status(StatusErase)
	if err := d.eraseSector(flagAddr &^ (sectorSize - 1)); err != nil {
		return err
	}
	d.status(StatusWrite)
	return d.writeFlash(flagAddr, bankFlagRecord[:])
}

// target picks the bank to write. The active bank is never a target: with
// User1 active the update goes to User2, otherwise (User2 or boot bank
// active) it goes to User1.
func (d *Dev) target() (base, flagAddr uint32, err error) {
	switch d.activeBank {
	case BankUser1:
		return user2Base, flag2Addr, nil
	case BankUser2, BankBoot:
		return user1Base, flag1Addr, nil
	default:
		return 0, 0, fmt.Errorf("rtd2142: active bank is unknown; run Setup first")
	}
}

// ReadFirmware returns the active user bank's image.
//
// It fails when the chip booted from the boot bank or the active bank is
// unknown, since neither holds a readable user image.
func (d *Dev) ReadFirmware() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var base uint32
	switch d.activeBank {
	case BankUser1:
		base = user1Base
	case BankUser2:
		base = user2Base
	default:
		return nil, fmt.Errorf("rtd2142: active bank %s holds no user image: %w", d.activeBank, ErrNotSupported)
	}
	d.status(StatusRead)
	buf := make([]byte, UserImageSize)
	if err := d.readFlash(base, buf); err != nil {
		return nil, err
	}
	d.status(StatusIdle)
	return buf, nil
}

// DumpFirmware returns the whole 1 MiB flash contents, boot bank and flag
// records included.
func (d *Dev) DumpFirmware() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status(StatusRead)
	buf := make([]byte, FlashSize)
	if err := d.readFlash(0, buf); err != nil {
		return nil, err
	}
	d.status(StatusIdle)
	return buf, nil
}
