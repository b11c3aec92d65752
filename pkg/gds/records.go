package gds

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/nanofab/descript/pkg/errors"
)

// recordID combines the record type and data type bytes of a GDSII
// record header.
type recordID uint16

const (
	recHeader   recordID = 0x0002
	recBgnLib   recordID = 0x0102
	recLibName  recordID = 0x0206
	recUnits    recordID = 0x0305
	recEndLib   recordID = 0x0400
	recBgnStr   recordID = 0x0502
	recStrName  recordID = 0x0606
	recEndStr   recordID = 0x0700
	recBoundary recordID = 0x0800
	recPath     recordID = 0x0900
	recSRef     recordID = 0x0a00
	recARef     recordID = 0x0b00
	recText     recordID = 0x0c00
	recLayer    recordID = 0x0d02
	recDatatype recordID = 0x0e02
	recWidth    recordID = 0x0f03
	recXY       recordID = 0x1003
	recEndEl    recordID = 0x1100
	recSName    recordID = 0x1206
	recColRow   recordID = 0x1302
	recNode     recordID = 0x1500
	recTextType recordID = 0x1602
	recString   recordID = 0x1906
	recSTrans   recordID = 0x1a01
	recMag      recordID = 0x1b05
	recAngle    recordID = 0x1c05
	recPathType recordID = 0x2102
	recNodeType recordID = 0x2a02
	recPropAttr recordID = 0x2b02
	recPropVal  recordID = 0x2c06
	recBox      recordID = 0x2d00
)

// stransReflect is the x-axis reflection bit of the STRANS flag word.
const stransReflect = 0x8000

var recordNames = map[recordID]string{
	recHeader:   "HEADER",
	recBgnLib:   "BGNLIB",
	recLibName:  "LIBNAME",
	recUnits:    "UNITS",
	recEndLib:   "ENDLIB",
	recBgnStr:   "BGNSTR",
	recStrName:  "STRNAME",
	recEndStr:   "ENDSTR",
	recBoundary: "BOUNDARY",
	recPath:     "PATH",
	recSRef:     "SREF",
	recARef:     "AREF",
	recText:     "TEXT",
	recLayer:    "LAYER",
	recDatatype: "DATATYPE",
	recWidth:    "WIDTH",
	recXY:       "XY",
	recEndEl:    "ENDEL",
	recSName:    "SNAME",
	recColRow:   "COLROW",
	recNode:     "NODE",
	recTextType: "TEXTTYPE",
	recString:   "STRING",
	recSTrans:   "STRANS",
	recMag:      "MAG",
	recAngle:    "ANGLE",
	recPathType: "PATHTYPE",
	recNodeType: "NODETYPE",
	recPropAttr: "PROPATTR",
	recPropVal:  "PROPVALUE",
	recBox:      "BOX",
}

func (id recordID) String() string {
	if name, ok := recordNames[id]; ok {
		return name
	}
	return fmt.Sprintf("0x%04x", uint16(id))
}

// record is one TLV entry of the stream, already stripped of its
// 4-byte header.
type record struct {
	id   recordID
	data []byte
}

type decoder struct {
	r      *bufio.Reader
	offset int64
}

// next reads the following record. io.EOF is returned only at a clean
// record boundary; a partial header or short payload is a parse error.
func (d *decoder) next() (record, error) {
	var head [4]byte
	if _, err := io.ReadFull(d.r, head[:]); err != nil {
		if err == io.EOF {
			return record{}, io.EOF
		}
		return record{}, errors.Wrap(errors.ErrCodeParse, err,
			"truncated record header at byte %d", d.offset)
	}
	size := int(binary.BigEndian.Uint16(head[:2]))
	id := recordID(binary.BigEndian.Uint16(head[2:]))
	if size < 4 {
		// Zero words after ENDLIB are tape padding.
		if size == 0 && id == 0 {
			return record{}, io.EOF
		}
		return record{}, errors.New(errors.ErrCodeParse,
			"record %s at byte %d: bad size %d", id, d.offset, size)
	}
	data := make([]byte, size-4)
	if _, err := io.ReadFull(d.r, data); err != nil {
		return record{}, errors.Wrap(errors.ErrCodeParse, err,
			"record %s at byte %d: truncated payload", id, d.offset)
	}
	d.offset += int64(size)
	return record{id: id, data: data}, nil
}

func (rec record) int16s() ([]int, error) {
	if len(rec.data)%2 != 0 {
		return nil, errors.New(errors.ErrCodeParse,
			"record %s: payload length %d not a multiple of 2", rec.id, len(rec.data))
	}
	vals := make([]int, len(rec.data)/2)
	for i := range vals {
		vals[i] = int(int16(binary.BigEndian.Uint16(rec.data[2*i:])))
	}
	return vals, nil
}

func (rec record) int32s() ([]int32, error) {
	if len(rec.data)%4 != 0 {
		return nil, errors.New(errors.ErrCodeParse,
			"record %s: payload length %d not a multiple of 4", rec.id, len(rec.data))
	}
	vals := make([]int32, len(rec.data)/4)
	for i := range vals {
		vals[i] = int32(binary.BigEndian.Uint32(rec.data[4*i:]))
	}
	return vals, nil
}

func (rec record) real64s() ([]float64, error) {
	if len(rec.data)%8 != 0 {
		return nil, errors.New(errors.ErrCodeParse,
			"record %s: payload length %d not a multiple of 8", rec.id, len(rec.data))
	}
	vals := make([]float64, len(rec.data)/8)
	for i := range vals {
		vals[i] = real64(rec.data[8*i:])
	}
	return vals, nil
}

func (rec record) int16Value() (int, error) {
	vals, err := rec.int16s()
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, errors.New(errors.ErrCodeParse,
			"record %s: want one value, got %d", rec.id, len(vals))
	}
	return vals[0], nil
}

func (rec record) real64Value() (float64, error) {
	vals, err := rec.real64s()
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, errors.New(errors.ErrCodeParse,
			"record %s: want one value, got %d", rec.id, len(vals))
	}
	return vals[0], nil
}

func (rec record) flags() (uint16, error) {
	if len(rec.data) != 2 {
		return 0, errors.New(errors.ErrCodeParse,
			"record %s: want a 2-byte flag word, got %d bytes", rec.id, len(rec.data))
	}
	return binary.BigEndian.Uint16(rec.data), nil
}

// text strips the NUL GDSII pads odd-length strings with.
func (rec record) text() string {
	return strings.TrimRight(string(rec.data), "\x00")
}

// real64 decodes the excess-64 floating point format: sign bit, 7-bit
// base-16 exponent biased by 64, 56-bit fraction.
func real64(b []byte) float64 {
	u := binary.BigEndian.Uint64(b[:8])
	mant := u & 0x00ffffffffffffff
	if mant == 0 {
		return 0
	}
	exp := int(u>>56&0x7f) - 64
	v := math.Ldexp(float64(mant), 4*exp-56)
	if u&(1<<63) != 0 {
		return -v
	}
	return v
}
