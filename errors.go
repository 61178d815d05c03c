// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package rtd2142

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotSupported is wrapped by errors reporting that a device, quirk or
// operation is outside what this driver handles.
var ErrNotSupported = errors.New("not supported")

// TimeoutError is returned when a polled register fails to reach its
// expected value before the deadline.
type TimeoutError struct {
	Reg      uint8
	Mask     uint8
	Expected uint8
	Last     uint8
	Wait     time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("rtd2142: timed out waiting for register %#02x&%#02x == %#02x (last value %#02x) after %s",
		e.Reg, e.Mask, e.Expected, e.Last, e.Wait)
}

// Timeout returns true; it marks the error as a deadline failure.
func (e *TimeoutError) Timeout() bool {
	return true
}

// VerifyError is returned when the flash contents read back after an update
// do not match the written image. The bank flag is left untouched so the
// previously active bank still boots.
type VerifyError struct{}

func (e *VerifyError) Error() string {
	return "rtd2142: flash contents after write do not match firmware image"
}

// ResetError is returned by Attach when the MCU stayed in ISP mode after a
// reset request. The user has to power cycle the hub.
type ResetError struct{}

func (e *ResetError) Error() string {
	return "rtd2142: device failed to reset when requested"
}

// NeedsUserAction returns true; recovery requires manual intervention.
func (e *ResetError) NeedsUserAction() bool {
	return true
}

// NeedsShutdown returns true; the device needs a power cycle.
func (e *ResetError) NeedsShutdown() bool {
	return true
}
