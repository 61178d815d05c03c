// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

import (
	"fmt"
	"log"
)

// FirmwareVersion is a user bank's firmware version.
type FirmwareVersion struct {
	Major uint8
	Minor uint8
}

func (v FirmwareVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// BankStatus is the decoded dual bank state record.
type BankStatus struct {
	// Enabled reports whether the chip runs with dual bank support at all.
	// When false the other fields are meaningless.
	Enabled bool
	Mode    DualBankMode
	Active  Bank
	User1   FirmwareVersion
	User2   FirmwareVersion
}

// DualBank queries the dual bank state over the DDC/CI command channel.
//
// Firmware without dual bank support answers with a different header; that
// is reported as Enabled == false, not as an error. Out of range mode or
// bank values are downgraded the same way so such a device shows up as non
// updatable instead of failing setup.
func (d *Dev) DualBank() (BankStatus, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dualBank()
}

func (d *Dev) dualBank() (BankStatus, error) {
	var st BankStatus
	if err := d.writeReg(regMode, modeDDCCI); err != nil {
		return st, err
	}
	sleep(ddcciSettle)
	var resp [11]byte
	if err := d.c.Tx([]byte{ddcciOpDualBank}, resp[:]); err != nil {
		return st, err
	}
	if resp[0] != regMode || resp[1] != modeDDCCI {
		return st, nil
	}
	st.Enabled = resp[2] == 1
	st.Mode = DualBankMode(resp[3])
	st.Active = Bank(resp[4])
	st.User1 = FirmwareVersion{Major: resp[5], Minor: resp[6]}
	st.User2 = FirmwareVersion{Major: resp[7], Minor: resp[8]}
	if st.Mode > ModeUserOnlyFlag {
		log.Printf("rtd2142: unexpected dual bank mode %#02x", resp[3])
		st.Enabled = false
	}
	if st.Active > BankUser2 {
		log.Printf("rtd2142: unexpected active bank %#02x", resp[4])
		st.Enabled = false
	}
	return st, nil
}
