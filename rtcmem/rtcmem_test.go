package rtcmem

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/easygraphs/easygraphs-device/helpers"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMem(t *testing.T) {
	t.Parallel()

	m := NewMem(16)
	assert.Equal(t, 16, m.Size())
	require.NoError(t, m.Write(4, []byte{1, 2, 3}))
	buf := make([]byte, 5)
	require.NoError(t, m.Read(3, buf))
	assert.Equal(t, []byte{0, 1, 2, 3, 0}, buf)

	err := m.Write(14, []byte{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.IsNotValid(err))
	assert.Error(t, m.Read(-1, buf))

	m.PowerLoss(helpers.RandUnix())
	require.NoError(t, m.Read(3, buf))
	assert.NotEqual(t, []byte{0, 1, 2, 3, 0}, buf)

	assert.Equal(t, DefaultSize, NewMem(0).Size())
}

func TestFileMem(t *testing.T) {
	t.Parallel()

	root, err := ioutil.TempDir("", "rtcmem-test")
	require.NoError(t, err)
	defer os.RemoveAll(root)
	dir := filepath.Join(root, "rtc")
	log := log2.NewTest(t, log2.LDebug)

	f, err := NewFileMem(dir, 32, log)
	require.NoError(t, err)
	buf := make([]byte, 4)
	require.NoError(t, f.Read(0, buf))
	assert.Equal(t, []byte{0, 0, 0, 0}, buf, "missing storage reads as zeroes")

	require.NoError(t, f.Write(8, []byte{0xde, 0xad, 0xbe, 0xef}))

	// new instance over same directory models wake from deep sleep
	f2, err := NewFileMem(dir, 32, log)
	require.NoError(t, err)
	require.NoError(t, f2.Read(8, buf))
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, buf)

	assert.True(t, errors.IsNotValid(f2.Write(30, buf)))

	_, err = NewFileMem("", 32, log)
	assert.True(t, errors.IsNotValid(err))
}
