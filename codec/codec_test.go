package codec

import (
	"testing"

	"github.com/gogo/protobuf/proto"
	"github.com/iov-one/htlc/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	Name  string   `protobuf:"bytes,1,opt,name=name,proto3"`
	Tags  [][]byte `protobuf:"bytes,2,rep,name=tags,proto3"`
	X     int64    `protobuf:"varint,3,opt,name=x,proto3"`
	Inner *point   `protobuf:"bytes,4,opt,name=inner,proto3"`
}

func (p *point) Reset()         { *p = point{} }
func (p *point) String() string { return proto.CompactTextString(p) }
func (*point) ProtoMessage()    {}

// label is an older revision of point that knows only the name.
type label struct {
	Name string `protobuf:"bytes,1,opt,name=name,proto3"`
}

func (l *label) Reset()         { *l = label{} }
func (l *label) String() string { return proto.CompactTextString(l) }
func (*label) ProtoMessage()    {}

func TestEncodeDecode(t *testing.T) {
	cases := map[string]*point{
		"zero value": {},
		"scalars": {
			Name: "alice",
			X:    -42,
		},
		"nested": {
			Name:  "outer",
			Tags:  [][]byte{[]byte("a"), []byte("bc")},
			X:     1 << 40,
			Inner: &point{Name: "inner", X: 7},
		},
		"empty nested": {
			Inner: &point{},
		},
	}

	for testName, want := range cases {
		t.Run(testName, func(t *testing.T) {
			raw, err := Marshal(want)
			require.NoError(t, err)

			var got point
			require.NoError(t, Unmarshal(raw, &got))
			assert.Equal(t, want.Name, got.Name)
			assert.Equal(t, want.X, got.X)
			assert.Equal(t, want.Tags, got.Tags)
			if want.Inner == nil {
				assert.Nil(t, got.Inner)
			} else {
				require.NotNil(t, got.Inner)
				assert.Equal(t, want.Inner.Name, got.Inner.Name)
				assert.Equal(t, want.Inner.X, got.Inner.X)
			}
		})
	}
}

func TestZeroValuesAreNotWritten(t *testing.T) {
	raw, err := Marshal(&point{})
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestUnmarshalResets(t *testing.T) {
	raw, err := Marshal(&point{Name: "bob"})
	require.NoError(t, err)

	p := point{Name: "alice", X: 3}
	require.NoError(t, Unmarshal(raw, &p))
	assert.Equal(t, "bob", p.Name)
	assert.Equal(t, int64(0), p.X)
}

func TestUnknownFieldsAreSkipped(t *testing.T) {
	raw, err := Marshal(&point{Name: "bob", X: 5, Tags: [][]byte{[]byte("ignored")}})
	require.NoError(t, err)

	var l label
	require.NoError(t, Unmarshal(raw, &l))
	assert.Equal(t, "bob", l.Name)
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string][]byte{
		// field 1, length 10, but only 2 bytes follow
		"truncated bytes": {0x0a, 0x0a, 0x61, 0x62},
		// field 3 declared as varint, value never terminated
		"truncated varint": {0x18, 0xff},
		// field number zero
		"invalid field": {0x02, 0x00},
	}

	for testName, raw := range cases {
		t.Run(testName, func(t *testing.T) {
			var p point
			err := Unmarshal(raw, &p)
			require.Error(t, err)
			assert.True(t, errors.ErrInput.Is(err), "%+v", err)
		})
	}
}
