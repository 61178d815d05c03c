// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

// Detach switches the MCU into ISP mode so the external flash becomes
// accessible through the register interface, accelerates the MCU clock and
// releases the hardware write protect.
//
// The device stops forwarding video while detached. Attach restores normal
// operation.
func (d *Dev) Detach() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status(StatusRestart)
	if err := d.writeReg(regMCUMode, mcuModeISP); err != nil {
		return err
	}
	if err := d.pollReg(regMCUMode, mcuModeISP, mcuModeISP, detachTimeout); err != nil {
		return err
	}
	// The faster MCU clock also cuts down on spurious NACKs during the
	// register writes that follow.
	if err := d.writeRegIndirect(indMCUClock, mcuClockFast); err != nil {
		return err
	}
	d.flags |= FlagIsBootloader
	d.status(StatusIdle)
	return d.driveGPIO88(true)
}

// Attach re-engages the flash write protect and resets the MCU out of ISP
// mode. When the MCU ignores the reset request a ResetError is returned and
// FlagNeedsShutdown is raised; only a power cycle recovers the device.
func (d *Dev) Attach() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.driveGPIO88(false); err != nil {
		return err
	}
	mode, err := d.readReg(regMCUMode)
	if err != nil {
		return err
	}
	if mode&mcuModeISP != 0 {
		d.status(StatusRestart)
		v, err := d.readReg(regReset)
		if err != nil {
			return err
		}
		// The reset request regularly NACKs as the MCU powers down; the
		// confirmation read below decides success.
		_ = d.writeReg(regReset, v|resetBit)
		sleep(resetSettle)
		if mode, err = d.readReg(regMCUMode); err != nil {
			return err
		}
		if mode&mcuModeISP != 0 {
			d.flags |= FlagNeedsShutdown
			return &ResetError{}
		}
	}
	d.flags &^= FlagIsBootloader
	d.status(StatusIdle)
	return nil
}

// driveGPIO88 drives the flash write protect pin: high releases ~WP so the
// flash accepts erase and program commands, low re-engages it.
func (d *Dev) driveGPIO88(high bool) error {
	conf, err := d.readRegIndirect(indGPIO88Conf)
	if err != nil {
		return err
	}
	if err := d.writeRegIndirect(indGPIO88Conf, conf&0xF0|gpio88ConfOutput); err != nil {
		return err
	}
	v, err := d.readRegIndirect(indGPIO88Val)
	if err != nil {
		return err
	}
	if high {
		v |= gpio88Bit
	} else {
		v &^= gpio88Bit
	}
	return d.writeRegIndirect(indGPIO88Val, v)
}
