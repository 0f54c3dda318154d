package radiostate

import (
	"testing"

	"github.com/easygraphs/easygraphs-device/helpers"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/easygraphs/easygraphs-device/rtcmem"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBSSID = BSSID{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}

func TestRecordLayout(t *testing.T) {
	t.Parallel()

	s := New(6, testBSSID)
	assert.Equal(t, uint32(0x6583c8de), s.Checksum)
	assert.True(t, s.Valid())
	b, err := s.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, helpers.MustHex("dec8836506aabbccddeeff00"), b)

	var s2 RadioState
	require.NoError(t, s2.UnmarshalBinary(b))
	assert.Equal(t, s, s2)

	err = s2.UnmarshalBinary(b[:11])
	assert.True(t, errors.IsNotValid(err))
}

func TestCache(t *testing.T) {
	t.Parallel()

	type Case struct {
		name   string
		before func(t testing.TB, mem *rtcmem.Mem, c *Cache)
		expect bool
	}
	cases := []Case{
		{"empty", func(t testing.TB, mem *rtcmem.Mem, c *Cache) {}, false},
		{"save-load", func(t testing.TB, mem *rtcmem.Mem, c *Cache) {
			require.NoError(t, c.Save(6, testBSSID))
		}, true},
		{"tampered-checksum", func(t testing.TB, mem *rtcmem.Mem, c *Cache) {
			require.NoError(t, c.Save(6, testBSSID))
			require.NoError(t, mem.Write(8, []byte{0x01}))
		}, false},
		{"tampered-channel", func(t testing.TB, mem *rtcmem.Mem, c *Cache) {
			require.NoError(t, c.Save(6, testBSSID))
			require.NoError(t, mem.Write(8+4, []byte{11}))
		}, false},
		{"invalidate", func(t testing.TB, mem *rtcmem.Mem, c *Cache) {
			require.NoError(t, c.Save(6, testBSSID))
			require.NoError(t, c.Invalidate())
		}, false},
		{"overwrite", func(t testing.TB, mem *rtcmem.Mem, c *Cache) {
			require.NoError(t, c.Save(1, BSSID{1, 2, 3, 4, 5, 6}))
			require.NoError(t, c.Save(6, testBSSID))
		}, true},
	}
	for _, c := range cases {
		c := c
		t.Run(c.name, func(t *testing.T) {
			mem := rtcmem.NewMem(64)
			cache := NewCache(mem, 8, log2.NewTest(t, log2.LDebug))
			c.before(t, mem, cache)
			s, ok := cache.Load()
			assert.Equal(t, c.expect, ok)
			if c.expect {
				assert.Equal(t, uint8(6), s.Channel)
				assert.Equal(t, testBSSID, s.BSSID)
				assert.True(t, s.Valid())
			} else {
				assert.Equal(t, RadioState{}, s)
			}
		})
	}
}

func TestCacheOutOfRange(t *testing.T) {
	t.Parallel()

	cache := NewCache(rtcmem.NewMem(16), 8, log2.NewTest(t, log2.LDebug))
	_, ok := cache.Load()
	assert.False(t, ok)
	err := cache.Save(6, testBSSID)
	require.Error(t, err)
	assert.True(t, errors.IsNotValid(errors.Cause(err)))
}
