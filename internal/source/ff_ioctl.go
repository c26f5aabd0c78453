package source

import (
	"encoding/binary"
	"fmt"
	"time"
	"unsafe"

	evdev "github.com/gvalkov/golang-evdev"
	"golang.org/x/sys/unix"
)

// Force-feedback effect upload/update/erase go through the kernel's evdev
// ioctl surface (EVIOCSFF/EVIOCRMFF), which golang-evdev doesn't wrap. The
// ioctl numbers below follow the standard Linux _IOC encoding
// (asm-generic/ioctl.h) for type 'E' (0x45), matching what every other
// evdev FF client computes them as.
const (
	iocNRBits   = 8
	iocTypeBits = 8
	iocSizeBits = 14

	iocNRShift   = 0
	iocTypeShift = iocNRShift + iocNRBits
	iocSizeShift = iocTypeShift + iocTypeBits
	iocDirShift  = iocSizeShift + iocSizeBits

	iocWrite = 1

	evdevIOCType = 0x45 // 'E'

	// ffEffectSize is the wire size of struct ff_effect on a 64-bit
	// kernel: type+id+direction (6 bytes) + trigger (4) + replay (4) +
	// the largest union member, ff_periodic_effect, padded to a pointer
	// boundary for its custom_data pointer (we only ever populate the
	// smaller ff_rumble_effect member, the rest stays zeroed).
	ffEffectSize = 48
)

func iocWriteNum(nr, size uintptr) uintptr {
	return (uintptr(iocWrite) << iocDirShift) | (uintptr(evdevIOCType) << iocTypeShift) | (nr << iocNRShift) | (size << iocSizeShift)
}

var (
	evIOCSFF = iocWriteNum(0x80, ffEffectSize)
	evIOCRMFF = iocWriteNum(0x81, 4)
)

const ffRumble = 0x50

// encodeFFEffect serializes a rumble effect for EVIOCSFF. id is -1 to
// request a new effect, or an existing source-local id to update in place.
func encodeFFEffect(id int16, data []byte) []byte {
	var strong, weak uint16
	if len(data) >= 2 {
		strong = binary.LittleEndian.Uint16(data[0:2])
	}
	if len(data) >= 4 {
		weak = binary.LittleEndian.Uint16(data[2:4])
	}

	buf := make([]byte, ffEffectSize)
	binary.LittleEndian.PutUint16(buf[0:2], ffRumble)
	binary.LittleEndian.PutUint16(buf[2:4], uint16(id))
	// direction, trigger.button, trigger.interval, replay.length,
	// replay.delay all left zero (buf[4:16]).
	binary.LittleEndian.PutUint16(buf[16:18], strong)
	binary.LittleEndian.PutUint16(buf[18:20], weak)
	return buf
}

func ffIoctl(dev *evdev.InputDevice, req uintptr, buf []byte) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, dev.File.Fd(), req, uintptr(unsafe.Pointer(&buf[0])))
	if errno != 0 {
		return fmt.Errorf("ioctl %#x: %w", req, errno)
	}
	return nil
}

// uploadFFEffect uploads a new rumble effect and returns the source-local
// effect id the kernel assigned.
func uploadFFEffect(dev *evdev.InputDevice, data []byte) (int, error) {
	buf := encodeFFEffect(-1, data)
	if err := ffIoctl(dev, evIOCSFF, buf); err != nil {
		return 0, err
	}
	return int(int16(binary.LittleEndian.Uint16(buf[2:4]))), nil
}

// updateFFEffect replaces the data of an already-uploaded effect in place.
func updateFFEffect(dev *evdev.InputDevice, id int, data []byte) error {
	buf := encodeFFEffect(int16(id), data)
	return ffIoctl(dev, evIOCSFF, buf)
}

// eraseFFEffect removes a previously uploaded effect.
func eraseFFEffect(dev *evdev.InputDevice, id int) error {
	return unix.IoctlSetInt(int(dev.File.Fd()), uint(evIOCRMFF), id)
}

// writeFFPlay writes a raw play/stop event (EV_FF, effect id, value) to
// the device, used for force-feedback passthrough (spec.md §4.4).
func writeFFPlay(dev *evdev.InputDevice, raw RawEvent) error {
	now := time.Now()
	buf := make([]byte, 24)
	sec := now.Unix()
	usec := now.Nanosecond() / 1000
	binary.LittleEndian.PutUint64(buf[0:8], uint64(sec))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(usec))
	binary.LittleEndian.PutUint16(buf[16:18], raw.Type)
	binary.LittleEndian.PutUint16(buf[18:20], raw.Code)
	binary.LittleEndian.PutUint32(buf[20:24], uint32(raw.Value))

	_, err := dev.File.Write(buf)
	return err
}
