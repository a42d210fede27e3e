package sourcemap

import (
	"errors"
	"strings"
)

const b64Digits = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// ErrInvalidVLQ is returned by DecodeVLQ for malformed input.
var ErrInvalidVLQ = errors.New("sourcemap: invalid base64 VLQ")

// EncodeVLQ returns the base64 VLQ encoding of v.
func EncodeVLQ(v int) string {
	var b strings.Builder
	writeVLQ(&b, v)
	return b.String()
}

func writeVLQ(b *strings.Builder, v int) {
	if v < 0 {
		v = (-v << 1) | 1
	} else {
		v <<= 1
	}
	for {
		digit := v & 31
		v >>= 5
		if v > 0 {
			digit |= 32
		}
		b.WriteByte(b64Digits[digit])
		if v == 0 {
			return
		}
	}
}

// DecodeVLQ decodes every value of one segment, e.g. "AAgBC".
func DecodeVLQ(s string) ([]int, error) {
	var out []int
	shift, value := 0, 0
	for i := 0; i < len(s); i++ {
		digit := strings.IndexByte(b64Digits, s[i])
		if digit < 0 {
			return nil, ErrInvalidVLQ
		}
		value |= (digit & 31) << shift
		if digit&32 != 0 {
			shift += 5
			continue
		}
		if value&1 != 0 {
			out = append(out, -(value >> 1))
		} else {
			out = append(out, value>>1)
		}
		shift, value = 0, 0
	}
	if shift != 0 {
		return nil, ErrInvalidVLQ
	}
	return out, nil
}

// Decode expands a mappings string into segments per generated line.
// Values are absolute, not deltas.
func Decode(mappings string) ([][]Segment, error) {
	var out [][]Segment
	var source, line, col int
	for _, l := range strings.Split(mappings, ";") {
		var segs []Segment
		gen := 0
		if l != "" {
			for _, raw := range strings.Split(l, ",") {
				v, err := DecodeVLQ(raw)
				if err != nil {
					return nil, err
				}
				if len(v) != 4 {
					return nil, ErrInvalidVLQ
				}
				gen += v[0]
				source += v[1]
				line += v[2]
				col += v[3]
				segs = append(segs, Segment{GenCol: gen, Source: source, SrcLine: line, SrcCol: col})
			}
		}
		out = append(out, segs)
	}
	return out, nil
}
