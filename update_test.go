// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

import (
	"bytes"
	"errors"
	"testing"

	"periph.io/x/conn/v3/i2c/i2ctest"
)

// updateOps is the full wire script of a successful update of the bank at
// base: seven block erases, the paged image write, the verify read back,
// then the flag sector rewrite.
func updateOps(base, flagAddr uint32, img, readBack []byte) []i2ctest.IO {
	var ops []i2ctest.IO
	for off := uint32(0); off < UserImageSize; off += blockSize {
		ops = append(ops, blockEraseOps(base+off)...)
	}
	ops = append(ops, flashWriteOps(base, img)...)
	ops = append(ops, flashReadOps(base, readBack)...)
	if !bytes.Equal(img, readBack) {
		return ops
	}
	ops = append(ops, sectorEraseOps(flagAddr&^(sectorSize-1))...)
	return append(ops, flashWriteOps(flagAddr, bankFlagRecord[:])...)
}

func TestWriteFirmware_fromUser1(t *testing.T) {
	// With user1 active the update lands in user2 at 0x80000 and rewrites
	// the flag record at 0xFF304.
	img := bytes.Repeat([]byte{0xA5}, UserImageSize)
	d, p, r := reporterDev(t, updateOps(user2Base, flag2Addr, img, img))
	d.activeBank = BankUser1
	if err := d.WriteFirmware(img); err != nil {
		t.Fatal(err)
	}
	want := []Status{StatusErase, StatusWrite, StatusVerify, StatusErase, StatusWrite}
	if len(r.statuses) != len(want) {
		t.Fatalf("statuses %v", r.statuses)
	}
	for i, s := range want {
		if r.statuses[i] != s {
			t.Fatalf("statuses %v", r.statuses)
		}
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriteFirmware_fromUser2(t *testing.T) {
	img := bytes.Repeat([]byte{0x5A}, UserImageSize)
	d, p := playbackDev(t, updateOps(user1Base, flag1Addr, img, img))
	d.activeBank = BankUser2
	if err := d.WriteFirmware(img); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriteFirmware_fromBoot(t *testing.T) {
	// Booted from the boot bank: user1 is the target even though no user
	// image is running.
	img := bytes.Repeat([]byte{0x11}, UserImageSize)
	d, p := playbackDev(t, updateOps(user1Base, flag1Addr, img, img))
	d.activeBank = BankBoot
	if err := d.WriteFirmware(img); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriteFirmware_verifyMismatch(t *testing.T) {
	// A read back that differs fails with VerifyError and no flag rewrite.
	img := bytes.Repeat([]byte{0xA5}, UserImageSize)
	readBack := bytes.Repeat([]byte{0xA5}, UserImageSize)
	readBack[12345] = 0x00
	d, p := playbackDev(t, updateOps(user2Base, flag2Addr, img, readBack))
	d.activeBank = BankUser1
	err := d.WriteFirmware(img)
	var ve *VerifyError
	if !errors.As(err, &ve) {
		t.Fatalf("expected VerifyError, got %v", err)
	}
	// Close verifies no flag erase or write was issued.
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriteFirmware_badSize(t *testing.T) {
	d, p := playbackDev(t, nil)
	d.activeBank = BankUser1
	if err := d.WriteFirmware(make([]byte, 16)); err == nil {
		t.Fatal("expected failure")
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestWriteFirmware_unknownBank(t *testing.T) {
	d, p := playbackDev(t, nil)
	if err := d.WriteFirmware(make([]byte, UserImageSize)); err == nil {
		t.Fatal("expected failure")
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadFirmware(t *testing.T) {
	img := bytes.Repeat([]byte{0x33}, UserImageSize)
	d, p, r := reporterDev(t, flashReadOps(user2Base, img))
	d.activeBank = BankUser2
	got, err := d.ReadFirmware()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, img) {
		t.Fatal("data mismatch")
	}
	if len(r.statuses) != 2 || r.statuses[0] != StatusRead || r.statuses[1] != StatusIdle {
		t.Fatalf("statuses %v", r.statuses)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestReadFirmware_bootBank(t *testing.T) {
	d, p := playbackDev(t, nil)
	d.activeBank = BankBoot
	_, err := d.ReadFirmware()
	if !errors.Is(err, ErrNotSupported) {
		t.Fatalf("expected ErrNotSupported, got %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestDumpFirmware(t *testing.T) {
	whole := make([]byte, FlashSize)
	for i := range whole {
		whole[i] = byte(i * 7)
	}
	d, p := playbackDev(t, flashReadOps(0, whole))
	got, err := d.DumpFirmware()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, whole) {
		t.Fatal("data mismatch")
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}
