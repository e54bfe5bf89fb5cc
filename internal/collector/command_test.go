package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCommandRunner(t *testing.T) {
	tT := map[string]struct {
		command        string
		timeout        time.Duration
		maxOutputBytes int
		want           string
	}{
		"captures stdout": {
			command:        "echo coretemp-isa-0000",
			timeout:        5 * time.Second,
			maxOutputBytes: 1024,
			want:           "coretemp-isa-0000\n",
		},
		"extra whitespace between args": {
			command:        "  echo   a   b ",
			timeout:        5 * time.Second,
			maxOutputBytes: 1024,
			want:           "a b\n",
		},
		"output is truncated": {
			command:        "echo 0123456789",
			timeout:        5 * time.Second,
			maxOutputBytes: 4,
			want:           "0123",
		},
		"non-zero exit is empty": {
			command:        "false",
			timeout:        5 * time.Second,
			maxOutputBytes: 1024,
			want:           "",
		},
		"missing binary is empty": {
			command:        "sensors-csv-no-such-binary -u",
			timeout:        5 * time.Second,
			maxOutputBytes: 1024,
			want:           "",
		},
		"timeout is empty": {
			command:        "sleep 5",
			timeout:        50 * time.Millisecond,
			maxOutputBytes: 1024,
			want:           "",
		},
	}

	for name, test := range tT {
		t.Run(name, func(t *testing.T) {
			runner, err := NewCommandRunner(newTestLogger(), test.command, test.timeout, test.maxOutputBytes)
			require.NoError(t, err)

			start := time.Now()
			require.Equal(t, test.want, runner.Run(context.Background()))
			require.Less(t, time.Since(start), 4*time.Second)
		})
	}
}

func TestNewCommandRunnerValidation(t *testing.T) {
	_, err := NewCommandRunner(newTestLogger(), "   ", time.Second, 1024)
	require.Error(t, err)

	_, err = NewCommandRunner(newTestLogger(), "sensors -u", 0, 1024)
	require.Error(t, err)
}

func TestLimitedOutputBuffer(t *testing.T) {
	buffer := &limitedOutputBuffer{maxBytes: 5}

	n, err := buffer.Write([]byte("abc"))
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.False(t, buffer.truncated)

	n, err = buffer.Write([]byte("defg"))
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.True(t, buffer.truncated)
	require.Equal(t, "abcde", buffer.String())
}
