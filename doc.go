// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package rtd2142 updates the firmware of a Realtek RTD2142 DisplayPort MST
// hub over I²C.
//
// The chip embeds a microcontroller whose firmware lives in an external
// 1 MiB SPI flash laid out as a boot bank plus two user banks with per bank
// activation flags. The driver replaces the inactive user bank and rewrites
// its flag record so the next boot runs the new image, while the active bank
// stays untouched as a working fallback.
//
// The register interface rides on the DisplayPort AUX channel's I²C side
// channel at peripheral address 0x35. The sibling I²C bus of a DP AUX device
// can be located with the dpaux package.
//
// A typical update session:
//
//	d, err := rtd2142.New(bus, nil)
//	...
//	err = d.Setup()        // probe dual bank state and running version
//	err = d.Detach()       // enter ISP mode, release flash write protect
//	err = d.WriteFirmware(img)
//	err = d.Attach()       // restore write protect, reset the MCU
//	err = d.Reload()
//
// The driver is strictly sequential. A Dev owns its bus address exclusively;
// concurrent users of the same bus must be serialized by the caller.
package rtd2142
