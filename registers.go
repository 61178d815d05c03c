// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

// Flash geometry. The SPI flash is 1 MiB: a boot bank below 0x10000, two
// 0x70000 user images and a pair of 5 byte bank flag records near the top.
const (
	// FlashSize is the total size of the external SPI flash.
	FlashSize = 0x100000
	// UserImageSize is the size of one user firmware bank.
	UserImageSize = 0x70000

	user1Base = 0x10000
	user2Base = 0x80000
	flag1Addr = 0xFE304
	flag2Addr = 0xFF304

	sectorSize = 0x1000  // smallest erase unit
	blockSize  = 0x10000 // large erase unit
	pageSize   = 0x100   // largest single program operation
)

// bankFlagRecord marks a bank flag slot as non virgin. The MCU rewrites the
// record with its own bookkeeping on the next boot.
var bankFlagRecord = [5]byte{0xAA, 0xAA, 0xAA, 0xFF, 0xFF}

// Direct 8 bit registers.
const (
	regCmdAttr    = 0x60 // operation attribute; bit 0 is the erase busy flag
	regEraseOp    = 0x61 // erase opcode forwarded to the flash
	regCmdAddrHi  = 0x64 // bits 23..16 of the operation address
	regCmdAddrMid = 0x65 // bits 15..8
	regCmdAddrLo  = 0x66 // bits 7..0
	regReadOp     = 0x6A // read opcode forwarded to the flash
	regWriteOp    = 0x6D // program opcode forwarded to the flash
	regMCUMode    = 0x6F // MCU mode and write handshake bits
	regWriteFIFO  = 0x70 // page data sink, also the read data source
	regWriteLen   = 0x71 // programmed byte count minus one; 0xFF means 256
	regReset      = 0xEE // bit 1 requests an MCU reset
	regMode       = 0xCA // chip command mode selector
	regIndirectLo = 0xF4 // low byte of the 16 bit indirect window
	regIndirectHi = 0xF5 // high byte of the window, then data port
)

const (
	mcuModeISP       = 0x80 // MCU is in in-system-programming mode
	mcuModeWriteBusy = 0x20 // page program in flight
	mcuModeWriteBuf  = 0x10 // write buffer not yet drained

	attrErase     = 0xB8 // erase operation type plus write enable latch
	attrEraseBusy = 0x01

	resetBit = 0x02
)

// Flash opcodes forwarded by the chip's SPI controller.
const (
	opRead        = 0x03
	opPageWrite   = 0x02
	opSectorErase = 0x20 // 4 KiB
	opBlockErase  = 0xD8 // 64 KiB
)

// DDC/CI in-band command protocol.
const (
	modeDDCCI       = 0x09 // written to regMode to enter DDC/CI command mode
	ddcciOpDualBank = 0x01 // dual bank state inquiry opcode
)

// Indirect 16 bit address space registers.
const (
	indGPIO88Conf = 0x104F // GPIO 88 pin configuration
	indGPIO88Val  = 0xFE3F // GPIO 88 output level, bit 0
	indMCUClock   = 0x06A0 // MCU clock control

	// indirectPrefix must be written to the low window register before the
	// target address; the window does not latch without it.
	indirectPrefix = 0x9F

	gpio88ConfOutput = 0x01 // low nibble 1 selects push-pull GPIO output
	gpio88Bit        = 0x01

	mcuClockFast = 0x74 // accelerated MCU clock used during ISP
)
