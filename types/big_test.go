package types

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
)

func TestBigIntEncodings(t *testing.T) {
	c := qt.New(t)
	bi := (*BigInt)(big.NewInt(1234567890))

	data, err := json.Marshal(map[string]*BigInt{"bi": bi})
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, `{"bi":"1234567890"}`)

	var numeric BigInt
	c.Assert(json.Unmarshal([]byte(`123456789`), &numeric), qt.IsNil)
	c.Assert(numeric.String(), qt.Equals, "123456789")

	cborData, err := cbor.Marshal(bi)
	c.Assert(err, qt.IsNil)
	var decoded BigInt
	c.Assert(cbor.Unmarshal(cborData, &decoded), qt.IsNil)
	c.Assert(decoded.Equal(bi), qt.IsTrue)
}

func TestParseDecimal(t *testing.T) {
	c := qt.New(t)
	v, err := ParseDecimal("0012345")
	c.Assert(err, qt.IsNil)
	c.Assert(v.String(), qt.Equals, "12345")

	for _, s := range []string{"", "-1", "+1", "0x10", "1e3", "12 3", "١٢"} {
		_, err := ParseDecimal(s)
		c.Assert(err, qt.IsNotNil, qt.Commentf("input %q", s))
	}
}

func TestInField(t *testing.T) {
	c := qt.New(t)
	mod := big.NewInt(7)
	c.Assert(NewInt(0).InField(mod), qt.IsTrue)
	c.Assert(NewInt(6).InField(mod), qt.IsTrue)
	c.Assert(NewInt(7).InField(mod), qt.IsFalse)
	c.Assert(NewInt(-1).InField(mod), qt.IsFalse)
	c.Assert((*BigInt)(nil).InField(mod), qt.IsFalse)
}
