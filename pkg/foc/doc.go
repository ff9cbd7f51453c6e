// Package foc provides the host side of the FOC motor-controller protocol.
package foc

// The FOC protocol is spoken between the host (this package) and the
// motor-controller firmware over an addressed two-wire bus (I2C).
//
// Every command is addressed by a single byte. The numeric band of the
// byte decides how it travels:
//
//	  1-99   write-only actuation/configuration, 5 bytes out, nothing back.
//	100-199  telemetry, 1 byte out then 13 bytes back (echoed id + 3 floats).
//	200-255  local to the host, never sent; the value is echoed back.
//
// There is no length field and no checksum. Frame sizes are fixed and
// agreed with the firmware; the only integrity check is the echoed id of
// an exchange.
//
// Producer: FOC firmware
// Consumer: host controller
