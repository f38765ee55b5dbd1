package ifc

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadHouse(t *testing.T) *Model {
	t.Helper()
	m, err := ReadFile("testdata/house.ifc")
	require.NoError(t, err)
	return m
}

func TestReadFile_House(t *testing.T) {
	m := loadHouse(t)

	assert.Equal(t, "IFC4", m.Schema)
	// #21 is a complex instance and is skipped.
	assert.Nil(t, m.Entity(21))

	wall := m.Entity(41)
	require.NotNil(t, wall)
	assert.Equal(t, "IfcWallStandardCase", wall.Type)
	assert.Equal(t, "3vB2YO$MX4xv5uCqZZG05x", wall.GlobalID())
	assert.Equal(t, "Wall A", wall.Name())
	assert.Equal(t, "W-01", wall.Str("Tag"))
	assert.Equal(t, "STANDARD", wall.Enum("PredefinedType"))
	assert.Equal(t, 33, wall.Ref("ObjectPlacement").ID)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile("testdata/does-not-exist.ifc")
	require.Error(t, err)
}

func TestParse_Values(t *testing.T) {
	src := `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC2X3'));
ENDSEC;
DATA;
#1=IFCCARTESIANPOINT((1.5,-2.,3.E2));
#2=IFCPROPERTYSINGLEVALUE('It''s',$,IFCLABEL('\X2\00E9\X0\t\X2\00E9\X0\'),*);
#3=IFCDIRECTION((0,1,0));
ENDSEC;
END-ISO-10303-21;
`
	m, err := Parse(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "IFC2X3", m.Schema)

	pt := m.Entity(1)
	assert.Equal(t, []float64{1.5, -2, 300}, pt.Floats("Coordinates"))

	prop := m.Entity(2)
	assert.Equal(t, "It's", prop.Name())
	assert.Equal(t, "été", prop.Str("NominalValue"))
	assert.IsType(t, Derived{}, prop.Attr("Unit"))
	assert.True(t, IsNull(prop.Attr("Unit")))

	dir := m.Entity(3)
	assert.Equal(t, List{Int(0), Int(1), Int(0)}, dir.Attr("DirectionRatios"))
	assert.Equal(t, []float64{0, 1, 0}, dir.Floats("DirectionRatios"))
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"unterminated list", "ISO-10303-21;\nDATA;\n#1=IFCDIRECTION((0.,1.;\n", "line 3"},
		{"instance outside data", "ISO-10303-21;\nHEADER;\n#1=IFCDIRECTION(());\n", "line 3"},
		{"unterminated string", "ISO-10303-21;\nDATA;\n#1=IFCWALL('abc);\n", "line 3"},
		{"missing data end", "ISO-10303-21;\nDATA;\n#1=IFCDIRECTION((0.,1.));\n", "line 4"},
		{"bad enum", "ISO-10303-21;\nDATA;\n#1=IFCWALL(.A B.);\n", "line 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSyntax), "error %v should wrap ErrSyntax", err)
			assert.Contains(t, err.Error(), tt.line)
		})
	}
}

func TestDecodeString(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{`a\\b`, `a\b`},
		{`\X\E9t\X\E9`, "été"},
		{`\S\i`, "é"},
		{`\X2\00C400D6\X0\`, "ÄÖ"},
	}
	for _, tt := range tests {
		got, err := decodeString(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := decodeString(`\X2\00E`)
	assert.Error(t, err)
}
