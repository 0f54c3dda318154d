// Package radiostate keeps last known good WiFi association parameters
// (channel and access point BSSID) in RTC memory, so next wake can skip scan.
//
// Record layout, 12 bytes, same as ESP8266 firmware struct:
//   [0:4]  crc32 of bytes [4:12], little endian
//   [4]    channel
//   [5:11] access point MAC
//   [11]   padding
package radiostate

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/easygraphs/easygraphs-device/crc"
	"github.com/easygraphs/easygraphs-device/log2"
	"github.com/easygraphs/easygraphs-device/rtcmem"
	"github.com/juju/errors"
)

const RecordSize = 12

type BSSID [6]byte

func (b BSSID) String() string { return net.HardwareAddr(b[:]).String() }
func (b BSSID) IsZero() bool   { return b == BSSID{} }

type RadioState struct {
	Checksum uint32
	Channel  uint8
	BSSID    BSSID
	Padding  uint8
}

func New(channel uint8, bssid BSSID) RadioState {
	s := RadioState{Channel: channel, BSSID: bssid}
	s.Checksum = s.computeChecksum()
	return s
}

func (s RadioState) String() string {
	return fmt.Sprintf("channel=%d bssid=%s crc=%08x", s.Channel, s.BSSID, s.Checksum)
}

func (s RadioState) body() [RecordSize - 4]byte {
	var b [RecordSize - 4]byte
	b[0] = s.Channel
	copy(b[1:7], s.BSSID[:])
	b[7] = s.Padding
	return b
}

func (s RadioState) computeChecksum() uint32 {
	b := s.body()
	return crc.CRC32_ccitt_n(b[:])
}

// Valid means stored checksum matches content.
func (s RadioState) Valid() bool { return s.Checksum == s.computeChecksum() }

func (s RadioState) MarshalBinary() ([]byte, error) {
	b := make([]byte, RecordSize)
	binary.LittleEndian.PutUint32(b[0:4], s.Checksum)
	body := s.body()
	copy(b[4:], body[:])
	return b, nil
}

func (s *RadioState) UnmarshalBinary(b []byte) error {
	if len(b) != RecordSize {
		return errors.NotValidf("radio state record length=%d expected=%d", len(b), RecordSize)
	}
	s.Checksum = binary.LittleEndian.Uint32(b[0:4])
	s.Channel = b[4]
	copy(s.BSSID[:], b[5:11])
	s.Padding = b[11]
	return nil
}

// Cache binds RadioState to a slot in RTC memory.
// Not safe for concurrent use, owned by connection manager.
type Cache struct {
	mem    rtcmem.Memory
	offset int
	log    *log2.Log
}

func NewCache(mem rtcmem.Memory, offset int, log *log2.Log) *Cache {
	if mem == nil {
		panic("code error radiostate.NewCache mem=nil")
	}
	return &Cache{mem: mem, offset: offset, log: log}
}

// Load returns false when slot can not be read or checksum does not match.
// Absent state is normal (first boot, power loss), not an error.
func (c *Cache) Load() (RadioState, bool) {
	var s RadioState
	b := make([]byte, RecordSize)
	if err := c.mem.Read(c.offset, b); err != nil {
		c.log.Debugf("radio state read offset=%d err=%v", c.offset, err)
		return RadioState{}, false
	}
	if err := s.UnmarshalBinary(b); err != nil {
		c.log.Debugf("radio state decode err=%v", err)
		return RadioState{}, false
	}
	if !s.Valid() {
		c.log.Debugf("radio state invalid %s expected crc=%08x", s.String(), s.computeChecksum())
		return RadioState{}, false
	}
	c.log.Debugf("radio state loaded %s", s.String())
	return s, true
}

// Save overwrites slot with fresh record in single write.
func (c *Cache) Save(channel uint8, bssid BSSID) error {
	s := New(channel, bssid)
	b, _ := s.MarshalBinary()
	if err := c.mem.Write(c.offset, b); err != nil {
		return errors.Annotatef(err, "radio state save offset=%d", c.offset)
	}
	c.log.Debugf("radio state saved %s", s.String())
	return nil
}

// Invalidate zeroes slot. Zero record never passes checksum.
func (c *Cache) Invalidate() error {
	err := c.mem.Write(c.offset, make([]byte, RecordSize))
	return errors.Annotatef(err, "radio state invalidate offset=%d", c.offset)
}
