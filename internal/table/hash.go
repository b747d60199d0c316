package table

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/zeebo/xxh3"
)

// Cell encoding tags. Each cell is hashed as a one-byte kind tag followed by
// a fixed-width payload, so values of different types can never collide
// (int64(1) vs "1") and Missing is a distinct state rather than a sentinel.
const (
	tagMissing = 0x00
	tagString  = 0x01
	tagInt     = 0x02
	tagFloat   = 0x03
	tagBool    = 0x04
	tagTime    = 0x05
)

// AppendCell appends the canonical encoding of one cell to dst.
func AppendCell(dst []byte, v any) []byte {
	switch x := v.(type) {
	case nil:
		return append(dst, tagMissing)
	case string:
		dst = append(dst, tagString)
		dst = binary.BigEndian.AppendUint64(dst, uint64(len(x)))
		return append(dst, x...)
	case int64:
		dst = append(dst, tagInt)
		return binary.BigEndian.AppendUint64(dst, uint64(x))
	case float64:
		dst = append(dst, tagFloat)
		return binary.BigEndian.AppendUint64(dst, math.Float64bits(x))
	case bool:
		if x {
			return append(dst, tagBool, 1)
		}
		return append(dst, tagBool, 0)
	case time.Time:
		dst = append(dst, tagTime)
		dst = binary.BigEndian.AppendUint64(dst, uint64(x.Unix()))
		return binary.BigEndian.AppendUint64(dst, uint64(x.Nanosecond()))
	default:
		// Constructors restrict cell types; anything else is a programming
		// error surfaced loudly rather than silently mis-hashed.
		panic("table: unsupported cell type in encoding")
	}
}

// HashRow hashes the cells of one row across the given columns.
func HashRow(cols []Column, row int) uint64 {
	var buf []byte
	for _, c := range cols {
		buf = AppendCell(buf, c.cells[row])
	}
	return xxh3.Hash(buf)
}

// Hash returns a content hash of the table: names, types, levels, and every
// cell in order. Two tables that are equal by value hash identically even
// when they were built independently, which makes the hash usable as a cache
// key (identity-based keying would miss structurally equal inputs).
func (t *Table) Hash() uint64 {
	h := xxh3.New()
	var buf []byte
	for _, c := range t.cols {
		buf = buf[:0]
		buf = append(buf, []byte(c.Name)...)
		buf = append(buf, 0x1f)
		buf = append(buf, []byte(c.Type)...)
		buf = append(buf, 0x1f)
		for _, lv := range c.Levels {
			buf = append(buf, []byte(lv)...)
			buf = append(buf, 0x1e)
		}
		h.Write(buf)
		for i := 0; i < c.Len(); i++ {
			buf = AppendCell(buf[:0], c.cells[i])
			h.Write(buf)
		}
	}
	return h.Sum64()
}

// EqualCell compares two cells for pipeline equality: Missing equals Missing,
// and concrete values compare by type and value.
func EqualCell(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok || bok {
		return aok && bok && at.Equal(bt)
	}
	return a == b
}
