package bitio

import "testing"

func TestNewBoolReader_InitialState(t *testing.T) {
	data := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}
	br := NewBoolReader(data)

	if br.Range != 254 {
		t.Errorf("initial Range = %d, want 254", br.Range)
	}
	if br.eof {
		t.Error("unexpected eof after init")
	}
}

func TestBoolReader_GetBit_AllZeroData(t *testing.T) {
	data := make([]byte, 16)
	br := NewBoolReader(data)

	for i := 0; i < 20; i++ {
		bit := br.GetBit(0x80)
		if bit != 0 {
			t.Errorf("bit %d: got %d, want 0 (all-zero data)", i, bit)
		}
	}
}

func TestBoolReader_GetBit_AllOnesData(t *testing.T) {
	data := make([]byte, 16)
	for i := range data {
		data[i] = 0xff
	}
	br := NewBoolReader(data)

	for i := 0; i < 20; i++ {
		bit := br.GetBit(0x80)
		if bit != 1 {
			t.Errorf("bit %d: got %d, want 1 (all-ones data)", i, bit)
		}
	}
}

func TestBoolReader_GetValue(t *testing.T) {
	data := []byte{0xAB, 0xCD, 0xEF, 0x01, 0x23, 0x45, 0x67, 0x89, 0x00, 0x00}
	br := NewBoolReader(data)

	for i := 1; i <= 8; i++ {
		v := br.GetValue(i)
		if v >= (1 << uint(i)) {
			t.Errorf("GetValue(%d) = %d, exceeds max %d", i, v, (1<<uint(i))-1)
		}
	}
}

func TestBoolReader_GetSignedValue(t *testing.T) {
	data := make([]byte, 16)
	for i := range data {
		data[i] = 0xAA
	}
	br := NewBoolReader(data)

	for i := 1; i <= 8; i++ {
		sv := br.GetSignedValue(i)
		max := int32(1) << uint(i)
		if sv < -max+1 || sv > max-1 {
			t.Errorf("GetSignedValue(%d) = %d, out of expected range [%d, %d]",
				i, sv, -max+1, max-1)
		}
	}
}

func TestBoolReader_EOF_EmptyData(t *testing.T) {
	br := NewBoolReader([]byte{})

	if !br.EOF() {
		t.Error("expected eof on empty data")
	}
}

func TestBoolReader_EOF_ShortData(t *testing.T) {
	br := NewBoolReader([]byte{0x42})

	for i := 0; i < 16; i++ {
		br.GetBit(0x80)
	}

	if !br.EOF() {
		t.Error("expected eof after exhausting single byte")
	}
}

func TestBoolReader_GetSigned(t *testing.T) {
	data := make([]byte, 16)
	for i := range data {
		data[i] = 0xff
	}
	br := NewBoolReader(data)

	result := br.GetSigned(42)
	if result != 42 && result != -42 {
		t.Errorf("GetSigned(42) = %d, want 42 or -42", result)
	}
}

func TestBoolReader_GetTree_TrivialTwoLeaf(t *testing.T) {
	// A two-leaf tree: node[0]/node[1] are -0 and -1 (symbols 0 and 1).
	nodes := []int8{0, -1}
	probs := []uint8{128}

	data := make([]byte, 16) // all-zero -> GetBit always 0
	br := NewBoolReader(data)
	if sym := br.GetTree(nodes, probs); sym != 0 {
		t.Errorf("GetTree on all-zero stream = %d, want 0", sym)
	}
}
