package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tenLines writes a file with lines "line 1" .. "line 10".
func tenLines(t *testing.T) string {
	t.Helper()
	var b strings.Builder
	for i := 1; i <= 10; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	path := filepath.Join(t.TempDir(), "ten.txt")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestReadRange(t *testing.T) {
	path := tenLines(t)

	tests := []struct {
		name      string
		start     int
		count     int
		wantText  string
		wantStart int
		wantEnd   int
	}{
		{"middle window", 3, 2, "line 3\nline 4", 3, 4},
		{"start only reads to end", 9, 0, "line 9\nline 10", 9, 10},
		{"count only starts at one", 0, 2, "line 1\nline 2", 1, 2},
		{"clamped past end", 1, 100000, strings.TrimSuffix(readAll(t, path), "\n"), 1, 10},
		{"window overlapping end", 10, 5, "line 10", 10, 10},
		{"entirely past end", 11, 5, "", 11, 10},
		{"far past end", 500, 1, "", 500, 499},
		{"negative start", -4, 1, "line 1", 1, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ReadRange(path, tc.start, tc.count)
			require.NoError(t, err)
			assert.Equal(t, tc.wantText, got.Text)
			assert.Equal(t, tc.wantStart, got.StartLine)
			assert.Equal(t, tc.wantEnd, got.EndLine)
			assert.Equal(t, 10, got.TotalLines)
		})
	}
}

func TestReadRangeClampedReturnsExactlyTenLines(t *testing.T) {
	got, err := ReadRange(tenLines(t), 1, 100000)
	require.NoError(t, err)
	assert.Len(t, strings.Split(got.Text, "\n"), 10)
}

func TestReadRangeWholeFile(t *testing.T) {
	path := tenLines(t)

	got, err := ReadRange(path, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, readAll(t, path), got.Text)
	assert.Equal(t, 1, got.StartLine)
	assert.Equal(t, 10, got.EndLine)
}

func TestReadRangeEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.d.ts")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	got, err := ReadRange(path, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, got.Text)
	assert.Zero(t, got.TotalLines)
}

func TestReadRangeNoTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.ts")
	require.NoError(t, os.WriteFile(path, []byte("a\nb"), 0o600))

	got, err := ReadRange(path, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Text)
	assert.Equal(t, 2, got.TotalLines)
}

func TestReadRangeMissingFile(t *testing.T) {
	_, err := ReadRange(filepath.Join(t.TempDir(), "missing.ts"), 1, 1)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWindow(t *testing.T) {
	tests := []struct {
		name                string
		start, end, padding int
		wantFrom, wantCount int
	}{
		{"no padding", 3, 7, 0, 3, 5},
		{"padding", 20, 22, 10, 10, 23},
		{"clamped at one", 3, 7, 10, 1, 17},
		{"single line", 5, 5, 0, 5, 1},
		{"negative padding treated as zero", 5, 6, -3, 5, 2},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			from, count := Window(tc.start, tc.end, tc.padding)
			assert.Equal(t, tc.wantFrom, from)
			assert.Equal(t, tc.wantCount, count)
		})
	}
}

func readAll(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
