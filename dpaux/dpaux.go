// Copyright 2023 The MSTFlash Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package dpaux locates and opens the I²C bus behind a DisplayPort AUX
// device.
//
// DisplayPort tunnels an I²C side channel (DDC) to display side
// peripherals. On Linux each DP AUX channel shows up under
// /sys/class/drm_dp_aux_dev with the connector's i2c adapter as a sibling,
// and the adapter's i2c-dev node is the file to talk to. FindBus walks that
// topology from the AUX channel name, since the name is the only stable
// identifier a configuration can carry.
//
// The returned Bus implements periph.io's i2c.Bus, so any device driver can
// sit on top of it.
package dpaux

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNotFound is wrapped by FindBus when no DP AUX device carries the
// requested name or the matching device has no usable I²C bus.
var ErrNotFound = errors.New("dpaux: no matching DP AUX device")

// auxClassDir is the sysfs class directory listing DP AUX channels.
// Overridden in tests.
var auxClassDir = "/sys/class/drm_dp_aux_dev"

// FindBus returns the /dev path of the I²C bus that is the DDC side
// channel of the DP AUX device named name.
func FindBus(name string) (string, error) {
	if name == "" {
		return "", errors.New("dpaux: empty DP AUX name")
	}
	entries, err := filepath.Glob(filepath.Join(auxClassDir, "drm_dp_aux*"))
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(e, "name"))
		if err != nil {
			continue
		}
		if strings.TrimSpace(string(b)) != name {
			continue
		}
		if dev := findI2CDev(filepath.Join(e, "device")); dev != "" {
			return filepath.Join("/dev", dev), nil
		}
		return "", fmt.Errorf("dpaux: DP AUX %q has no I²C bus: %w", name, ErrNotFound)
	}
	return "", fmt.Errorf("dpaux: %q: %w", name, ErrNotFound)
}

// findI2CDev looks for an i2c adapter that is a child or sibling of the DP
// connector device and returns its i2c-dev node name, like "i2c-7".
func findI2CDev(deviceDir string) string {
	candidates, _ := filepath.Glob(filepath.Join(deviceDir, "i2c-*"))
	siblings, _ := filepath.Glob(filepath.Join(deviceDir, "..", "i2c-*"))
	for _, c := range append(candidates, siblings...) {
		if nodes, _ := filepath.Glob(filepath.Join(c, "i2c-dev", "i2c-*")); len(nodes) != 0 {
			return filepath.Base(nodes[0])
		}
		// Some kernels expose the dev node directly as the adapter name.
		if isI2CDevName(filepath.Base(c)) {
			return filepath.Base(c)
		}
	}
	return ""
}

func isI2CDevName(s string) bool {
	if !strings.HasPrefix(s, "i2c-") {
		return false
	}
	_, err := strconv.Atoi(s[len("i2c-"):])
	return err == nil
}

// Open opens the I²C bus at path, like "/dev/i2c-7".
func Open(path string) (*Bus, error) {
	return openBus(path)
}
