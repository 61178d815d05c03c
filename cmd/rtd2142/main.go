// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// rtd2142 inspects and updates the firmware of a Realtek RTD2142
// DisplayPort MST hub.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/mstflash/rtd2142"
	"github.com/mstflash/rtd2142/dpaux"
)

// consoleReporter prints status transitions to the log and progress to
// stderr.
type consoleReporter struct {
	last rtd2142.Status
}

func (r *consoleReporter) Status(s rtd2142.Status) {
	if s != r.last {
		log.Printf("status: %s", s)
		r.last = s
	}
}

func (r *consoleReporter) Progress(done, total int) {
	fmt.Fprintf(os.Stderr, "\r%s: %d/%d (%d%%)", r.last, done, total, done*100/total)
	if done == total {
		fmt.Fprint(os.Stderr, "\n")
	}
}

func openBus(auxName, busName string) (i2c.BusCloser, error) {
	if busName != "" {
		if _, err := host.Init(); err != nil {
			return nil, err
		}
		return i2creg.Open(busName)
	}
	if auxName == "" {
		return nil, errors.New("specify -aux or -bus")
	}
	path, err := dpaux.FindBus(auxName)
	if err != nil {
		return nil, err
	}
	log.Printf("DP AUX %q is %s", auxName, path)
	return dpaux.Open(path)
}

func update(d *rtd2142.Dev, img []byte) error {
	if len(img) != rtd2142.UserImageSize {
		return fmt.Errorf("firmware image must be %#x bytes, got %#x", rtd2142.UserImageSize, len(img))
	}
	if d.Flags()&rtd2142.FlagUpdatable == 0 {
		return errors.New("device is not updatable; dual bank diff mode is required")
	}
	if err := d.Detach(); err != nil {
		return err
	}
	werr := d.WriteFirmware(img)
	// Reattach even when the write failed: the active bank is intact and
	// the hub should go back to forwarding video.
	aerr := d.Attach()
	if werr != nil {
		return werr
	}
	if aerr != nil {
		return aerr
	}
	if err := d.Reload(); err != nil {
		return err
	}
	fmt.Println("update written; the new image activates on the next boot")
	return nil
}

func mainImpl() error {
	auxName := flag.String("aux", "", "DP AUX device name of the hub (quirk RealtekMstDpAuxName)")
	busName := flag.String("bus", "", "I²C bus to use directly instead of DP AUX resolution")
	dump := flag.String("dump", "", "write the whole 1 MiB flash contents to this file")
	read := flag.String("read", "", "write the active user image to this file")
	write := flag.String("write", "", "flash this firmware image to the inactive bank")
	verbose := flag.Bool("v", false, "verbose mode")
	flag.Parse()
	if !*verbose {
		log.SetOutput(io.Discard)
	}
	log.SetFlags(log.Lmicroseconds)
	if flag.NArg() != 0 {
		return errors.New("unexpected argument, try -help")
	}

	b, err := openBus(*auxName, *busName)
	if err != nil {
		return err
	}
	defer b.Close()

	d, err := rtd2142.New(b, &rtd2142.Opts{Reporter: &consoleReporter{}})
	if err != nil {
		return err
	}
	if err := d.Setup(); err != nil {
		return err
	}
	fmt.Printf("active bank: %s\n", d.ActiveBank())
	if v := d.Version(); v != "" {
		fmt.Printf("firmware version: %s\n", v)
	}

	if *dump != "" {
		img, err := d.DumpFirmware()
		if err != nil {
			return err
		}
		if err := os.WriteFile(*dump, img, 0o644); err != nil {
			return err
		}
	}
	if *read != "" {
		img, err := d.ReadFirmware()
		if err != nil {
			return err
		}
		if err := os.WriteFile(*read, img, 0o644); err != nil {
			return err
		}
	}
	if *write != "" {
		img, err := os.ReadFile(*write)
		if err != nil {
			return err
		}
		if err := update(d, img); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "rtd2142: %s.\n", err)
		os.Exit(1)
	}
}
