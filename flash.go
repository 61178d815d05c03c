// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

import "fmt"

// Flash primitives. They assume the MCU is in ISP mode (see Detach) and
// that the hardware write protect has been released.

// readFlash fills buf with flash contents starting at addr.
//
// The first byte of a read transaction returns unpredictable data, so the
// operation starts one byte before the requested address, wrapping modulo
// 2²⁴, and discards one byte.
func (d *Dev) readFlash(addr uint32, buf []byte) error {
	if addr >= FlashSize || len(buf) > FlashSize {
		return fmt.Errorf("rtd2142: read of %#x bytes at %#x is outside flash", len(buf), addr)
	}
	if err := d.setCmdAddress((addr - 1) & 0xFFFFFF); err != nil {
		return err
	}
	if err := d.writeReg(regReadOp, opRead); err != nil {
		return err
	}
	var discard [1]byte
	if err := d.c.Tx([]byte{regWriteFIFO}, discard[:]); err != nil {
		return err
	}
	total := len(buf)
	for done := 0; done < total; {
		n := total - done
		if n > pageSize {
			n = pageSize
		}
		if err := d.c.Tx(nil, buf[done:done+n]); err != nil {
			return err
		}
		done += n
		d.progress(done, total)
	}
	return nil
}

// eraseSector erases the 4 KiB sector at addr. addr must be sector aligned.
func (d *Dev) eraseSector(addr uint32) error {
	if addr&(sectorSize-1) != 0 {
		return fmt.Errorf("rtd2142: sector erase address %#x is not sector aligned", addr)
	}
	if err := d.setCmdAddress(addr); err != nil {
		return err
	}
	if err := d.writeReg(regCmdAttr, attrErase); err != nil {
		return err
	}
	if err := d.writeReg(regEraseOp, opSectorErase); err != nil {
		return err
	}
	if err := d.writeReg(regCmdAttr, attrErase|attrEraseBusy); err != nil {
		return err
	}
	return d.pollReg(regCmdAttr, attrEraseBusy, 0, eraseTimeout)
}

// eraseBlock erases the 64 KiB block at addr. addr must be block aligned.
// Only the high address byte selects the block; the chip ignores the rest,
// so mid and low are written as zero.
func (d *Dev) eraseBlock(addr uint32) error {
	if addr&(blockSize-1) != 0 {
		return fmt.Errorf("rtd2142: block erase address %#x is not block aligned", addr)
	}
	if err := d.writeReg(regCmdAddrHi, uint8(addr>>16)); err != nil {
		return err
	}
	if err := d.writeReg(regCmdAddrMid, 0); err != nil {
		return err
	}
	if err := d.writeReg(regCmdAddrLo, 0); err != nil {
		return err
	}
	if err := d.writeReg(regCmdAttr, attrErase); err != nil {
		return err
	}
	if err := d.writeReg(regEraseOp, opBlockErase); err != nil {
		return err
	}
	if err := d.writeReg(regCmdAttr, attrErase|attrEraseBusy); err != nil {
		return err
	}
	return d.pollReg(regCmdAttr, attrEraseBusy, 0, eraseTimeout)
}

// writeFlash programs data at addr in pages of up to 256 bytes.
func (d *Dev) writeFlash(addr uint32, data []byte) error {
	total := len(data)
	for done := 0; done < total; {
		n := total - done
		if n > pageSize {
			n = pageSize
		}
		if err := d.writePage(addr, data[done:done+n]); err != nil {
			return err
		}
		addr += uint32(n)
		done += n
		d.progress(done, total)
	}
	return nil
}

func (d *Dev) writePage(addr uint32, page []byte) error {
	if err := d.writeReg(regWriteOp, opPageWrite); err != nil {
		return err
	}
	if err := d.writeReg(regWriteLen, uint8(len(page)-1)); err != nil {
		return err
	}
	if err := d.setCmdAddress(addr); err != nil {
		return err
	}
	// Wait for the previous page to drain out of the write buffer.
	if err := d.pollReg(regMCUMode, mcuModeWriteBuf, 0, writeTimeout); err != nil {
		return err
	}
	if err := d.writeRegBurst(regWriteFIFO, page); err != nil {
		return err
	}
	if err := d.writeReg(regMCUMode, mcuModeISP|mcuModeWriteBusy); err != nil {
		return err
	}
	if err := d.pollReg(regMCUMode, mcuModeWriteBusy, 0, writeTimeout); err != nil {
		return fmt.Errorf("rtd2142: writing page at %#x: %w", addr, err)
	}
	return nil
}
