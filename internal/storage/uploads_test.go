package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploads_Save(t *testing.T) {
	uploads, err := NewUploads(t.TempDir())
	require.NoError(t, err)

	t.Run("writes file under job id prefix", func(t *testing.T) {
		path, err := uploads.Save("job-1", "reads.fastq", strings.NewReader("@read1\nACGT\n+\nIIII\n"))
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(uploads.Root(), "job-1_reads.fastq"), path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "@read1\nACGT\n+\nIIII\n", string(content))
	})

	t.Run("strips directory components from filename", func(t *testing.T) {
		path, err := uploads.Save("job-2", "../../etc/passwd", strings.NewReader("x"))
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(uploads.Root(), "job-2_passwd"), path)
	})

	t.Run("falls back to a default name for empty filenames", func(t *testing.T) {
		path, err := uploads.Save("job-3", "", strings.NewReader("x"))
		require.NoError(t, err)

		assert.Equal(t, filepath.Join(uploads.Root(), "job-3_upload.fastq"), path)
	})

	t.Run("same job id twice collides", func(t *testing.T) {
		_, err := uploads.Save("job-4", "a.fastq", strings.NewReader("x"))
		require.NoError(t, err)

		_, err = uploads.Save("job-4", "a.fastq", strings.NewReader("y"))
		assert.Error(t, err)
	})
}
