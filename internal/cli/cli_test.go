// internal/cli/cli_test.go
package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotSamples(t *testing.T) {
	tests := []struct {
		name    string
		flags   []string
		want    map[string][]string
		wantErr bool
	}{
		{name: "empty", flags: nil, want: nil},
		{
			name:  "single slot",
			flags: []string{"City=berlin|tokyo"},
			want:  map[string][]string{"City": {"berlin", "tokyo"}},
		},
		{
			name:  "multiple slots",
			flags: []string{"City=berlin", "Day=monday|friday"},
			want:  map[string][]string{"City": {"berlin"}, "Day": {"monday", "friday"}},
		},
		{
			name:  "value containing equals",
			flags: []string{"Query=a=b"},
			want:  map[string][]string{"Query": {"a=b"}},
		},
		{name: "missing separator", flags: []string{"City"}, wantErr: true},
		{name: "missing name", flags: []string{"=berlin"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSlotSamples(tt.flags)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}
	assert.True(t, names["init"])
	assert.True(t, names["import"])
	assert.True(t, names["export"])
}
