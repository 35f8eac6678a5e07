package modmeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArsenalMetadataIsValid(t *testing.T) {
	require.NoError(t, Arsenal.Validate())
	assert.Equal(t, "[SALCO'S ARSENAL v1.0.3 successfully loaded]", Arsenal.Banner())
	assert.Equal(t, []string{"com.wtt.commonlib", "com.wtt.contentbackport"}, Arsenal.DependencyNames())
}

func TestValidateRejectsBadVersions(t *testing.T) {
	m := Arsenal
	m.Version = "one.two"
	assert.ErrorIs(t, m.Validate(), ErrInvalidVersion)

	m = Arsenal
	m.HostRange = "~banana"
	assert.ErrorIs(t, m.Validate(), ErrInvalidRange)

	m = Arsenal
	m.Dependencies = map[string]string{"com.wtt.commonlib": ""}
	assert.ErrorIs(t, m.Validate(), ErrInvalidRange)

	m = Arsenal
	m.GUID = ""
	assert.Error(t, m.Validate())
}

func TestSatisfiesRange(t *testing.T) {
	tests := []struct {
		version string
		rng     string
		want    bool
	}{
		{"4.0.3", "~4.0.3", true},
		{"4.0.9", "~4.0.3", true},
		{"4.0.2", "~4.0.3", false},
		{"4.1.0", "~4.0.3", false},
		{"2.3.0", "^2.0.14", true},
		{"3.0.0", "^2.0.14", false},
		{"2.0.13", "^2.0.14", false},
		{"1.0.4", "1.0.4", true},
		{"1.0.5", "1.0.4", false},
		{"v4.0.3", "~4.0.3", true},
		{"4.9.0", "~4", true},
		{"5.0.0", "~4", false},
		{"4.1.7", "~4.1", true},
		{"4.2.0", "~4.1", false},
		{"1.9.9", "^1", true},
		{"0.2.9", "^0.2.3", true},
		{"0.3.0", "^0.2.3", false},
		{"0.2.2", "^0.2.3", false},
		{"0.0.3", "^0.0.3", true},
		{"0.0.4", "^0.0.3", false},
		{"0.1.5", "^0.1", true},
		{"0.2.0", "^0.1", false},
	}

	for _, tt := range tests {
		t.Run(tt.version+" "+tt.rng, func(t *testing.T) {
			got, err := SatisfiesRange(tt.version, tt.rng)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSatisfiesRangeErrors(t *testing.T) {
	_, err := SatisfiesRange("latest", "~4.0.3")
	assert.ErrorIs(t, err, ErrInvalidVersion)

	_, err = SatisfiesRange("4.0.3", "~")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSupportsHost(t *testing.T) {
	ok, err := Arsenal.SupportsHost("4.0.11")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = Arsenal.SupportsHost("3.11.4")
	require.NoError(t, err)
	assert.False(t, ok)
}
