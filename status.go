// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

import (
	"strconv"
	"strings"
)

// Status describes what the device is currently doing. It is reported to
// the Reporter as long running operations move between phases.
type Status int

const (
	StatusIdle Status = iota
	StatusErase
	StatusWrite
	StatusVerify
	StatusRestart
	StatusRead
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusErase:
		return "erase"
	case StatusWrite:
		return "write"
	case StatusVerify:
		return "verify"
	case StatusRestart:
		return "restart"
	case StatusRead:
		return "read"
	default:
		return "status(" + strconv.Itoa(int(s)) + ")"
	}
}

// Reporter receives status transitions and chunked progress updates from a
// Dev. Implementations must not call back into the Dev.
type Reporter interface {
	Status(s Status)
	Progress(done, total int)
}

// Flag is a bitmask of device properties exposed to the host daemon.
type Flag uint32

const (
	// FlagUpdatable is set when dual bank operation is enabled in diff
	// mode, so the inactive bank can be rewritten safely.
	FlagUpdatable Flag = 1 << iota
	// FlagInternal marks a built-in, non removable device.
	FlagInternal
	// FlagDualImage marks the A/B bank layout.
	FlagDualImage
	// FlagCanVerifyImage is set because every write is read back.
	FlagCanVerifyImage
	// FlagIsBootloader is set between Detach and Attach while the MCU sits
	// in ISP mode.
	FlagIsBootloader
	// FlagNeedsShutdown is set when the MCU ignored a reset request and
	// only a power cycle will restore normal operation.
	FlagNeedsShutdown
)

var flagNames = [...]struct {
	f Flag
	s string
}{
	{FlagUpdatable, "updatable"},
	{FlagInternal, "internal"},
	{FlagDualImage, "dual-image"},
	{FlagCanVerifyImage, "can-verify-image"},
	{FlagIsBootloader, "is-bootloader"},
	{FlagNeedsShutdown, "needs-shutdown"},
}

func (f Flag) String() string {
	var out []string
	for _, n := range flagNames {
		if f&n.f != 0 {
			out = append(out, n.s)
			f &^= n.f
		}
	}
	if f != 0 {
		out = append(out, "0x"+strconv.FormatUint(uint64(f), 16))
	}
	if len(out) == 0 {
		return "0"
	}
	return strings.Join(out, "|")
}

// Bank identifies which flash bank the MCU booted from.
type Bank uint8

const (
	BankBoot  Bank = 0
	BankUser1 Bank = 1
	BankUser2 Bank = 2
	// BankInvalid means the bank is unknown, either because Setup did not
	// run yet or because the chip did not report dual bank operation
	// enabled in diff mode.
	BankInvalid Bank = 0xFF
)

func (b Bank) String() string {
	switch b {
	case BankBoot:
		return "boot"
	case BankUser1:
		return "user1"
	case BankUser2:
		return "user2"
	case BankInvalid:
		return "invalid"
	default:
		return "bank(" + strconv.Itoa(int(b)) + ")"
	}
}

// DualBankMode is the firmware layout mode reported by the chip.
type DualBankMode uint8

const (
	ModeUserOnly     DualBankMode = 0
	ModeDiff         DualBankMode = 1
	ModeCopy         DualBankMode = 2
	ModeUserOnlyFlag DualBankMode = 3
)

func (m DualBankMode) String() string {
	switch m {
	case ModeUserOnly:
		return "user-only"
	case ModeDiff:
		return "diff"
	case ModeCopy:
		return "copy"
	case ModeUserOnlyFlag:
		return "user-only-flag"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}
