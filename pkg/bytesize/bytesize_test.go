package bytesize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input    string
		expected int64
	}{
		{"1024", 1024},
		{"1KB", 1024},
		{"1K", 1024},
		{"1Ki", 1024},
		{"50MB", 50 * 1024 * 1024},
		{"1.5GB", int64(1.5 * 1024 * 1024 * 1024)},
		{"2 TB", 2 * 1024 * 1024 * 1024 * 1024},
		{"0", 0},
	}

	for _, tt := range tests {
		got, err := Parse(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.expected, got, "input %q", tt.input)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "abc", "10XB", "-5MB"} {
		_, err := Parse(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0.0B"},
		{512, "512.0B"},
		{1024, "1.0KiB"},
		{1536, "1.5KiB"},
		{50 * 1024 * 1024, "50.0MiB"},
		{3 * 1024 * 1024 * 1024, "3.0GiB"},
		{5 * 1024 * 1024 * 1024 * 1024, "5.0TiB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Format(tt.bytes))
	}
}

func TestSizeUnmarshalYAML(t *testing.T) {
	var s struct {
		Max Size `yaml:"max"`
	}

	require.NoError(t, yaml.Unmarshal([]byte("max: 500Mi"), &s))
	assert.Equal(t, int64(500*1024*1024), s.Max.Bytes())

	require.NoError(t, yaml.Unmarshal([]byte("max: 2048"), &s))
	assert.Equal(t, int64(2048), s.Max.Bytes())

	assert.Error(t, yaml.Unmarshal([]byte("max: [1, 2]"), &s))
}
