package flagx

import (
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		allowedFlags []string
		want         []string
	}{
		{
			name:         "short flag with separate value",
			args:         []string{"-c", "survey.json", "-d", "sitesurvey.db"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c", "survey.json"},
		},
		{
			name:         "long flag with equals",
			args:         []string{"--config=field-kit.json", "-d", "sitesurvey.db"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"--config=field-kit.json"},
		},
		{
			name:         "unknown flags ignored",
			args:         []string{"-x", "1", "--y=2", "positional"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "flag followed by another flag (no value)",
			args:         []string{"-c", "-notvalue"},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{"-c"},
		},
		{
			name:         "multiple allowed flags kept",
			args:         []string{"-a", "http://survey.local:8080", "-c", "survey.json", "--other", "x"},
			allowedFlags: []string{"-c", "-a"},
			want:         []string{"-a", "http://survey.local:8080", "-c", "survey.json"},
		},
		{
			name:         "empty args",
			args:         []string{},
			allowedFlags: []string{"-c", "--config"},
			want:         []string{},
		},
		{
			name:         "repeated allowed flag is preserved in order",
			args:         []string{"-c", "tablet.json", "-c", "office.json"},
			allowedFlags: []string{"-c"},
			want:         []string{"-c", "tablet.json", "-c", "office.json"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowedFlags)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("FilterArgs() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func Test_JsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("short -c with value", func(t *testing.T) {
		os.Args = []string{"surveyor", "-c", "/etc/sitesurvey/client.json"}
		assert.Equal(t, "/etc/sitesurvey/client.json", JsonConfigFlags())
	})

	t.Run("long -config with value", func(t *testing.T) {
		os.Args = []string{"surveyor", "-config", "/home/surveyor/kit.json"}
		assert.Equal(t, "/home/surveyor/kit.json", JsonConfigFlags())
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		os.Args = []string{"surveyor", "-x", "1", "-y", "2"}
		assert.Empty(t, JsonConfigFlags())
	})
}
