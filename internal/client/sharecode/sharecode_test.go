package sharecode

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dmitrijs2005/tourcheck/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Format(t *testing.T) {
	for i := 0; i < 500; i++ {
		code := Generate()
		require.Len(t, code, Length)
		require.True(t, strings.HasPrefix(code, Prefix))
		require.NoError(t, Validate(code))
		for _, r := range "0O1IQWX" {
			require.NotContains(t, code[len(Prefix):], string(r))
		}
	}
}

func TestGenerate_RandomSourceFailurePanics(t *testing.T) {
	orig := readRandom
	t.Cleanup(func() { readRandom = orig })
	readRandom = bytes.NewReader(nil)

	assert.Panics(t, func() { Generate() })
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "TUR-AB23", Normalize("  tur-ab23 \n"))
	assert.Equal(t, "", Normalize("   "))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{name: "valid", code: "TUR-AB23"},
		{name: "missing prefix", code: "TOUR-AB2", wantErr: true},
		{name: "too short", code: "TUR-AB2", wantErr: true},
		{name: "too long", code: "TUR-AB234", wantErr: true},
		{name: "excluded symbol", code: "TUR-AB0C", wantErr: true},
		{name: "lower case", code: "tur-ab23", wantErr: true},
		{name: "empty", code: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.code)
			if tt.wantErr {
				require.ErrorIs(t, err, common.ErrInvalidCode)
				return
			}
			require.NoError(t, err)
		})
	}
}
