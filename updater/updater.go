// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package updater adapts the rtd2142 driver to a firmware update daemon.
//
// The daemon talks to a Device through a fixed capability set: Probe
// validates the configuration and locates the I²C bus, Open binds the
// driver, then Setup, Detach, Write, Attach and Reload run an update. The
// only configuration the device accepts is the RealtekMstDpAuxName quirk
// naming the DP AUX channel the hub sits behind.
package updater

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"github.com/mstflash/rtd2142"
	"github.com/mstflash/rtd2142/dpaux"
)

// QuirkDpAuxName is the quirk key naming the DP AUX device whose sibling
// I²C bus reaches the hub.
const QuirkDpAuxName = "RealtekMstDpAuxName"

// deviceName is the only chip this updater handles.
const deviceName = "RTD2142"

// Config is what the host daemon knows about a candidate device.
type Config struct {
	// Name is the device model name from the host's registry.
	Name string
	// Quirks is the device's key-value configuration.
	Quirks map[string]string
}

// Firmware is the host's firmware container, reduced to the raw image.
type Firmware interface {
	// ImageBytes returns the raw image to flash.
	ImageBytes() ([]byte, error)
}

// Opts holds the options for New.
type Opts struct {
	// Reporter receives status and progress callbacks. It may be nil.
	Reporter rtd2142.Reporter
}

// New returns an unbound Device. Probe then Open make it usable.
func New(opts *Opts) *Device {
	d := &Device{}
	if opts != nil {
		d.rep = opts.Reporter
	}
	return d
}

// Device is one RTD2142 hub as seen by the update daemon.
type Device struct {
	rep     rtd2142.Reporter
	auxName string
	busPath string
	bus     i2c.BusCloser
	dev     *rtd2142.Dev
}

func (d *Device) String() string {
	if d.auxName == "" {
		return "RTD2142(unprobed)"
	}
	return fmt.Sprintf("RTD2142(AUX %q)", d.auxName)
}

// Injected for tests.
var (
	findBus = dpaux.FindBus
	openBus = func(path string) (i2c.BusCloser, error) { return dpaux.Open(path) }
)

// Probe validates cfg and resolves the I²C bus path. It performs no device
// I/O.
func (d *Device) Probe(cfg Config) error {
	if cfg.Name != deviceName {
		return fmt.Errorf("updater: device %q: %w", cfg.Name, rtd2142.ErrNotSupported)
	}
	for k := range cfg.Quirks {
		if k != QuirkDpAuxName {
			return fmt.Errorf("updater: quirk %q: %w", k, rtd2142.ErrNotSupported)
		}
	}
	aux := cfg.Quirks[QuirkDpAuxName]
	if aux == "" {
		return fmt.Errorf("updater: quirk %s is required: %w", QuirkDpAuxName, rtd2142.ErrNotSupported)
	}
	path, err := findBus(aux)
	if err != nil {
		return fmt.Errorf("updater: no I²C bus for DP AUX %q: %v: %w", aux, err, rtd2142.ErrNotSupported)
	}
	d.auxName = aux
	d.busPath = path
	return nil
}

// Open opens the bus found by Probe and binds the driver.
func (d *Device) Open() error {
	if d.busPath == "" {
		return errors.New("updater: Probe must succeed before Open")
	}
	if d.bus != nil {
		return errors.New("updater: already open")
	}
	bus, err := openBus(d.busPath)
	if err != nil {
		return err
	}
	dev, err := rtd2142.New(bus, &rtd2142.Opts{Reporter: d.rep})
	if err != nil {
		bus.Close()
		return err
	}
	d.bus = bus
	d.dev = dev
	return nil
}

// Close releases the bus. It is safe to call more than once.
func (d *Device) Close() error {
	if d.bus == nil {
		return nil
	}
	err := d.bus.Close()
	d.bus = nil
	d.dev = nil
	return err
}

// Setup probes the dual bank state and the running firmware version.
func (d *Device) Setup() error {
	if d.dev == nil {
		return errors.New("updater: not open")
	}
	return d.dev.Setup()
}

// Detach puts the hub into programming mode.
func (d *Device) Detach() error {
	if d.dev == nil {
		return errors.New("updater: not open")
	}
	return d.dev.Detach()
}

// Write flashes the container's image to the inactive bank.
func (d *Device) Write(fw Firmware) error {
	if d.dev == nil {
		return errors.New("updater: not open")
	}
	img, err := fw.ImageBytes()
	if err != nil {
		return err
	}
	return d.dev.WriteFirmware(img)
}

// Attach returns the hub to normal operation.
func (d *Device) Attach() error {
	if d.dev == nil {
		return errors.New("updater: not open")
	}
	return d.dev.Attach()
}

// Reload re-probes the device state after an update.
func (d *Device) Reload() error {
	if d.dev == nil {
		return errors.New("updater: not open")
	}
	return d.dev.Reload()
}

// ReadFirmware returns the active bank's image.
func (d *Device) ReadFirmware() ([]byte, error) {
	if d.dev == nil {
		return nil, errors.New("updater: not open")
	}
	return d.dev.ReadFirmware()
}

// DumpFirmware returns the whole flash contents.
func (d *Device) DumpFirmware() ([]byte, error) {
	if d.dev == nil {
		return nil, errors.New("updater: not open")
	}
	return d.dev.DumpFirmware()
}

// Version returns the running firmware version, empty when unknown.
func (d *Device) Version() string {
	if d.dev == nil {
		return ""
	}
	return d.dev.Version()
}

// ActiveBank returns the bank the hub booted from.
func (d *Device) ActiveBank() rtd2142.Bank {
	if d.dev == nil {
		return rtd2142.BankInvalid
	}
	return d.dev.ActiveBank()
}

// Flags returns the device flags: the static properties of the chip plus
// whatever the driver has learned.
func (d *Device) Flags() rtd2142.Flag {
	f := rtd2142.FlagInternal | rtd2142.FlagDualImage | rtd2142.FlagCanVerifyImage
	if d.dev != nil {
		f |= d.dev.Flags()
	}
	return f
}
