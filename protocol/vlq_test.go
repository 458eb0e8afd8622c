package protocol

import (
	"bytes"
	"testing"
)

func TestVLQEncodeDecodeInt(t *testing.T) {
	testCases := []int32{
		0, 1, -1, 95, 96, -32, -33, 127, -127, 128, -128,
		1000, -1000, 65535, -65535, 1000000, -1000000,
		1<<31 - 1, -1 << 31,
	}

	for _, expected := range testCases {
		encoded := AppendVLQInt(nil, expected)
		data := encoded
		decoded, err := DecodeVLQInt(&data)
		if err != nil {
			t.Errorf("decode %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
		if len(data) != 0 {
			t.Errorf("value %d: %d bytes left after decode", expected, len(data))
		}
	}
}

func TestVLQKnownEncodings(t *testing.T) {
	testCases := []struct {
		v    int32
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0x7F}},
		{95, []byte{0x5F}},
		{96, []byte{0x80, 0x60}},
		{-32, []byte{0x60}},
		{-33, []byte{0xFF, 0x5F}},
	}
	for _, tc := range testCases {
		if got := AppendVLQInt(nil, tc.v); !bytes.Equal(got, tc.want) {
			t.Errorf("AppendVLQInt(%d) = % X, want % X", tc.v, got, tc.want)
		}
	}
}

func TestVLQUintLargeValues(t *testing.T) {
	for _, expected := range []uint32{0, 127, 128, 1 << 31, 0xFFFFFFFF} {
		data := AppendVLQUint(nil, expected)
		got, err := DecodeVLQUint(&data)
		if err != nil || got != expected {
			t.Errorf("uint %d: got %d, err %v", expected, got, err)
		}
	}
}

func TestVLQSequence(t *testing.T) {
	var buf []byte
	buf = AppendVLQUint(buf, 7)
	buf = AppendVLQInt(buf, -2000)
	buf = AppendVLQBool(buf, true)
	buf = AppendVLQString(buf, "stepper")
	buf = AppendVLQBytes(buf, []byte{1, 2, 3})

	data := buf
	if v, _ := DecodeVLQUint(&data); v != 7 {
		t.Errorf("first value = %d, want 7", v)
	}
	if v, _ := DecodeVLQInt(&data); v != -2000 {
		t.Errorf("second value = %d, want -2000", v)
	}
	if b, _ := DecodeVLQBool(&data); !b {
		t.Error("bool decoded as false")
	}
	if s, _ := DecodeVLQString(&data); s != "stepper" {
		t.Errorf("string = %q", s)
	}
	if b, _ := DecodeVLQBytes(&data); !bytes.Equal(b, []byte{1, 2, 3}) {
		t.Errorf("bytes = %v", b)
	}
	if len(data) != 0 {
		t.Errorf("%d bytes left", len(data))
	}
}

func TestVLQErrors(t *testing.T) {
	empty := []byte{}
	if _, err := DecodeVLQInt(&empty); err != ErrShortData {
		t.Errorf("empty: err = %v, want ErrShortData", err)
	}

	truncated := []byte{0x80}
	if _, err := DecodeVLQInt(&truncated); err != ErrShortData {
		t.Errorf("truncated: err = %v, want ErrShortData", err)
	}

	tooLong := []byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}
	if _, err := DecodeVLQInt(&tooLong); err != ErrInvalidVLQ {
		t.Errorf("overlong: err = %v, want ErrInvalidVLQ", err)
	}

	short := AppendVLQUint(nil, 10)
	short = append(short, 1, 2)
	if _, err := DecodeVLQBytes(&short); err != ErrShortData {
		t.Errorf("short bytes: err = %v, want ErrShortData", err)
	}
}
