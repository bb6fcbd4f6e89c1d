// Package camera provides scan.Camera implementations for hardware that
// hands rollcall decoded text: USB/serial barcode and QR scanners that emit
// one code per line, and keyboard-wedge scanners read from stdin.
//
// Serial devices are enumerated from device-node globs with labels taken
// from sysfs, held under an exclusive lock file while open, and watched for
// hot-unplug over the udev netlink socket. Linux only.
package camera
