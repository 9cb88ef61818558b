package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		region  string
		want    string
		wantErr bool
	}{
		{name: "US national", raw: "(650) 253-0000", want: "+16502530000"},
		{name: "US with dashes and region", raw: "650-253-0000", region: "us", want: "+16502530000"},
		{name: "already E164", raw: "+16502530000", want: "+16502530000"},
		{name: "UK international", raw: "+44 20 7031 3000", want: "+442070313000"},
		{name: "UK national with region", raw: "020 7031 3000", region: "GB", want: "+442070313000"},
		{name: "empty", raw: "  ", wantErr: true},
		{name: "garbage", raw: "call me", wantErr: true},
		{name: "too short", raw: "123", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.raw, tt.region)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeOrKeep(t *testing.T) {
	assert.Equal(t, "+16502530000", NormalizeOrKeep("650 253 0000", ""))
	assert.Equal(t, "ext. 42", NormalizeOrKeep("  ext. 42 ", ""))
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "(650) 253-0000", Display("+16502530000"))
	assert.Equal(t, "+44 20 7031 3000", Display("+442070313000"))
	assert.Equal(t, "n/a", Display("n/a"))
	assert.Equal(t, "", Display(""))
}

func TestRegion(t *testing.T) {
	assert.Equal(t, "US", Region("+16502530000"))
	assert.Equal(t, "GB", Region("+442070313000"))
	assert.Equal(t, "", Region("6502530000"))
}
