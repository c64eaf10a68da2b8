// Package binary provides Msb, encoding/binary's big-endian ByteOrder and
// AppendByteOrder in one value. The wire codec uses its Uint16 and
// AppendUint16.
package binary

import "encoding/binary"

var Msb = msb{
	binary.BigEndian,
	binary.BigEndian,
}

type msb struct {
	binary.ByteOrder
	binary.AppendByteOrder
}
