package stack

import "fmt"

// Frame is one backtrace entry, e.g.
//
//	#00 pc 0005a6c8  /system/lib/libc.so (abort+12)
type Frame struct {
	// Address is the hex offset exactly as printed, without any 0x prefix
	// added.
	Address string
	// Library is the file name of the image the offset belongs to.
	Library string
	// Path is the image path token as printed.
	Path string
	Raw  string
}

func (f *Frame) String() string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", f.Address, f.Path)
}
