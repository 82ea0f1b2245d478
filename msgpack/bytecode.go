package msgpack

// byteCodeMeta describes how to interpret one MessagePack lead byte:
// its ValueType, any size embedded directly in the byte (fixmap/
// fixarray/fixstr/fixint), the width of a following big-endian length
// prefix, whether a 1-byte ext type code follows, and the number of
// fixed payload bytes for scalar/fixext encodings.
type byteCodeMeta struct {
	Type            ValueType
	FixedSize       int  // size or value embedded in the byte itself; -1 when not applicable, except for negative fixints (0xE0..0xFF), where it holds the value -32..-1 and DataSize is 0
	SizePrefixBytes int  // width of a following BE length prefix (0, 1, 2 or 4)
	ExtTypeByte     bool // a 1-byte ext type code follows the size/fixed-payload width
	DataSize        int  // fixed payload byte count (ints, floats, timestamps, fixext)
}

// byteCodeTable is the static 256-entry lead-byte classification
// table, populated once in init() rather than written out literally,
// matching the five structural bands the wire format actually has.
var byteCodeTable [256]byteCodeMeta

func init() {
	for i := range byteCodeTable {
		byteCodeTable[i] = byteCodeMeta{Type: Unknown, FixedSize: -1}
	}

	for b := 0; b <= 0x7F; b++ {
		byteCodeTable[b] = byteCodeMeta{Type: UnsignedInteger, FixedSize: b}
	}
	for b := 0x80; b <= 0x8F; b++ {
		byteCodeTable[b] = byteCodeMeta{Type: Map, FixedSize: b - 0x80}
	}
	for b := 0x90; b <= 0x9F; b++ {
		byteCodeTable[b] = byteCodeMeta{Type: Array, FixedSize: b - 0x90}
	}
	for b := 0xA0; b <= 0xBF; b++ {
		byteCodeTable[b] = byteCodeMeta{Type: String, FixedSize: b - 0xA0}
	}

	byteCodeTable[0xC0] = byteCodeMeta{Type: Nil, FixedSize: -1}
	// 0xC1 is reserved and never produced by a conforming writer; left Unknown.
	byteCodeTable[0xC2] = byteCodeMeta{Type: Boolean, FixedSize: -1}
	byteCodeTable[0xC3] = byteCodeMeta{Type: Boolean, FixedSize: -1}

	byteCodeTable[0xC4] = byteCodeMeta{Type: BinaryArray, FixedSize: -1, SizePrefixBytes: 1}
	byteCodeTable[0xC5] = byteCodeMeta{Type: BinaryArray, FixedSize: -1, SizePrefixBytes: 2}
	byteCodeTable[0xC6] = byteCodeMeta{Type: BinaryArray, FixedSize: -1, SizePrefixBytes: 4}

	byteCodeTable[0xC7] = byteCodeMeta{Type: Ext, FixedSize: -1, SizePrefixBytes: 1, ExtTypeByte: true}
	byteCodeTable[0xC8] = byteCodeMeta{Type: Ext, FixedSize: -1, SizePrefixBytes: 2, ExtTypeByte: true}
	byteCodeTable[0xC9] = byteCodeMeta{Type: Ext, FixedSize: -1, SizePrefixBytes: 4, ExtTypeByte: true}

	byteCodeTable[0xCA] = byteCodeMeta{Type: Float, FixedSize: -1, DataSize: 4}
	byteCodeTable[0xCB] = byteCodeMeta{Type: Double, FixedSize: -1, DataSize: 8}

	byteCodeTable[0xCC] = byteCodeMeta{Type: UnsignedInteger, FixedSize: -1, DataSize: 1}
	byteCodeTable[0xCD] = byteCodeMeta{Type: UnsignedInteger, FixedSize: -1, DataSize: 2}
	byteCodeTable[0xCE] = byteCodeMeta{Type: UnsignedInteger, FixedSize: -1, DataSize: 4}
	byteCodeTable[0xCF] = byteCodeMeta{Type: UnsignedInteger, FixedSize: -1, DataSize: 8}

	byteCodeTable[0xD0] = byteCodeMeta{Type: SignedInteger, FixedSize: -1, DataSize: 1}
	byteCodeTable[0xD1] = byteCodeMeta{Type: SignedInteger, FixedSize: -1, DataSize: 2}
	byteCodeTable[0xD2] = byteCodeMeta{Type: SignedInteger, FixedSize: -1, DataSize: 4}
	byteCodeTable[0xD3] = byteCodeMeta{Type: SignedInteger, FixedSize: -1, DataSize: 8}

	fixextWidths := [5]int{1, 2, 4, 8, 16}
	for i, w := range fixextWidths {
		byteCodeTable[0xD4+i] = byteCodeMeta{Type: Ext, FixedSize: -1, DataSize: w, ExtTypeByte: true}
	}

	byteCodeTable[0xD9] = byteCodeMeta{Type: String, FixedSize: -1, SizePrefixBytes: 1}
	byteCodeTable[0xDA] = byteCodeMeta{Type: String, FixedSize: -1, SizePrefixBytes: 2}
	byteCodeTable[0xDB] = byteCodeMeta{Type: String, FixedSize: -1, SizePrefixBytes: 4}

	byteCodeTable[0xDC] = byteCodeMeta{Type: Array, FixedSize: -1, SizePrefixBytes: 2}
	byteCodeTable[0xDD] = byteCodeMeta{Type: Array, FixedSize: -1, SizePrefixBytes: 4}

	byteCodeTable[0xDE] = byteCodeMeta{Type: Map, FixedSize: -1, SizePrefixBytes: 2}
	byteCodeTable[0xDF] = byteCodeMeta{Type: Map, FixedSize: -1, SizePrefixBytes: 4}

	for b := 0xE0; b <= 0xFF; b++ {
		byteCodeTable[b] = byteCodeMeta{Type: SignedInteger, FixedSize: int(int8(b))}
	}
}
