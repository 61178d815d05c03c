// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

import (
	"os"
	"testing"
	"time"

	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"
)

func TestNew_nilBus(t *testing.T) {
	if d, err := New(nil, nil); d != nil || err == nil {
		t.Fatal("expected failure with a nil bus")
	}
}

func TestDevString(t *testing.T) {
	d, _ := playbackDev(t, nil)
	if s := d.String(); s != "RTD2142{playback(53)}" {
		t.Fatal(s)
	}
}

func TestHalt(t *testing.T) {
	d, p := playbackDev(t, nil)
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
}

//

// playbackDev returns a Dev wired to a playback bus primed with ops.
func playbackDev(t *testing.T, ops []i2ctest.IO) (*Dev, *i2ctest.Playback) {
	t.Helper()
	p := &i2ctest.Playback{Ops: ops}
	d, err := New(p, nil)
	if err != nil {
		t.Fatal(err)
	}
	return d, p
}

// reporterDev is playbackDev with a recording reporter attached.
func reporterDev(t *testing.T, ops []i2ctest.IO) (*Dev, *i2ctest.Playback, *recReporter) {
	t.Helper()
	p := &i2ctest.Playback{Ops: ops}
	r := &recReporter{}
	d, err := New(p, &Opts{Reporter: r})
	if err != nil {
		t.Fatal(err)
	}
	return d, p, r
}

type recReporter struct {
	statuses []Status
	progress [][2]int
}

func (r *recReporter) Status(s Status) {
	r.statuses = append(r.statuses, s)
}

func (r *recReporter) Progress(done, total int) {
	r.progress = append(r.progress, [2]int{done, total})
}

// stuckBus answers every register read with the same value. It is used to
// exercise poll deadlines, which a finite playback script cannot express.
type stuckBus struct {
	v byte
}

func (b *stuckBus) String() string {
	return "stuck"
}

func (b *stuckBus) SetSpeed(f physic.Frequency) error {
	return nil
}

func (b *stuckBus) Tx(addr uint16, w, r []byte) error {
	for i := range r {
		r[i] = b.v
	}
	return nil
}

//

func writeRegOp(reg, val uint8) i2ctest.IO {
	return i2ctest.IO{Addr: addr, W: []byte{reg, val}}
}

func readRegOp(reg, val uint8) i2ctest.IO {
	return i2ctest.IO{Addr: addr, W: []byte{reg}, R: []byte{val}}
}

func setCmdAddressOps(a uint32) []i2ctest.IO {
	return []i2ctest.IO{
		writeRegOp(regCmdAddrHi, uint8(a>>16)),
		writeRegOp(regCmdAddrMid, uint8(a>>8)),
		writeRegOp(regCmdAddrLo, uint8(a)),
	}
}

func indirectWriteOps(a uint16, val uint8) []i2ctest.IO {
	return []i2ctest.IO{
		writeRegOp(regIndirectLo, indirectPrefix),
		writeRegOp(regIndirectHi, uint8(a>>8)),
		writeRegOp(regIndirectLo, uint8(a)),
		writeRegOp(regIndirectHi, val),
	}
}

func indirectReadOps(a uint16, ret uint8) []i2ctest.IO {
	return []i2ctest.IO{
		writeRegOp(regIndirectLo, indirectPrefix),
		writeRegOp(regIndirectHi, uint8(a>>8)),
		writeRegOp(regIndirectLo, uint8(a)),
		readRegOp(regIndirectHi, ret),
	}
}

func sectorEraseOps(a uint32) []i2ctest.IO {
	ops := setCmdAddressOps(a)
	return append(ops,
		writeRegOp(regCmdAttr, attrErase),
		writeRegOp(regEraseOp, opSectorErase),
		writeRegOp(regCmdAttr, attrErase|attrEraseBusy),
		readRegOp(regCmdAttr, attrErase),
	)
}

func blockEraseOps(a uint32) []i2ctest.IO {
	return []i2ctest.IO{
		writeRegOp(regCmdAddrHi, uint8(a>>16)),
		writeRegOp(regCmdAddrMid, 0),
		writeRegOp(regCmdAddrLo, 0),
		writeRegOp(regCmdAttr, attrErase),
		writeRegOp(regEraseOp, opBlockErase),
		writeRegOp(regCmdAttr, attrErase|attrEraseBusy),
		readRegOp(regCmdAttr, attrErase),
	}
}

func pageWriteOps(a uint32, page []byte) []i2ctest.IO {
	ops := []i2ctest.IO{
		writeRegOp(regWriteOp, opPageWrite),
		writeRegOp(regWriteLen, uint8(len(page)-1)),
	}
	ops = append(ops, setCmdAddressOps(a)...)
	burst := make([]byte, 1, 1+len(page))
	burst[0] = regWriteFIFO
	return append(ops,
		readRegOp(regMCUMode, mcuModeISP),
		i2ctest.IO{Addr: addr, W: append(burst, page...)},
		writeRegOp(regMCUMode, mcuModeISP|mcuModeWriteBusy),
		readRegOp(regMCUMode, mcuModeISP),
	)
}

func flashWriteOps(a uint32, data []byte) []i2ctest.IO {
	var ops []i2ctest.IO
	for len(data) != 0 {
		n := len(data)
		if n > pageSize {
			n = pageSize
		}
		ops = append(ops, pageWriteOps(a, data[:n])...)
		a += uint32(n)
		data = data[n:]
	}
	return ops
}

func flashReadOps(a uint32, data []byte) []i2ctest.IO {
	ops := setCmdAddressOps((a - 1) & 0xFFFFFF)
	ops = append(ops,
		writeRegOp(regReadOp, opRead),
		i2ctest.IO{Addr: addr, W: []byte{regWriteFIFO}, R: []byte{0x5A}},
	)
	for len(data) != 0 {
		n := len(data)
		if n > pageSize {
			n = pageSize
		}
		ops = append(ops, i2ctest.IO{Addr: addr, R: data[:n]})
		data = data[n:]
	}
	return ops
}

func dualBankOps(resp []byte) []i2ctest.IO {
	return []i2ctest.IO{
		writeRegOp(regMode, modeDDCCI),
		{Addr: addr, W: []byte{ddcciOpDualBank}, R: resp},
	}
}

func TestMain(m *testing.M) {
	// The protocol delays add up to minutes over the test suite.
	sleep = func(time.Duration) {}
	os.Exit(m.Run())
}
