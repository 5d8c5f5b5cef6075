package gateway

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// AFInet is the IPv4 address family on every kernel this package reads.
const AFInet = 2

// RTFGateway marks a route whose destination is reached through a gateway.
const RTFGateway = 0x2

// Address slots of a route message, in the order they follow the header.
const (
	RTAXDst = iota
	RTAXGateway
	RTAXNetmask
	RTAXGenmask
	RTAXIfp
	RTAXIfa
	RTAXAuthor
	RTAXBrd
	rtaxMax
)

// Bits of Entry.Addrs announcing which address slots are present.
const (
	RTADst     = 1 << RTAXDst
	RTAGateway = 1 << RTAXGateway
	RTANetmask = 1 << RTAXNetmask
	RTAGenmask = 1 << RTAXGenmask
	RTAIfp     = 1 << RTAXIfp
	RTAIfa     = 1 << RTAXIfa
	RTAAuthor  = 1 << RTAXAuthor
	RTABrd     = 1 << RTAXBrd
)

// rt_msghdr field offsets shared by darwin and the BSDs.
const (
	offMsglen  = 0
	offVersion = 2
	offType    = 3
	offIndex   = 4
	offFlags   = 8
	offAddrs   = 12

	minHeaderLen = 16
)

// Layout describes the host's route message framing.
type Layout struct {
	HeaderLen int // sizeof(struct rt_msghdr)
	Align     int // sockaddr rounding boundary
}

var (
	LayoutDarwin    = Layout{HeaderLen: 92, Align: 4}
	LayoutFreeBSD64 = Layout{HeaderLen: 152, Align: 8}
)

func (l Layout) validate() error {
	if l.HeaderLen < minHeaderLen {
		return errors.Errorf("route message header length %d is below %d", l.HeaderLen, minHeaderLen)
	}
	if l.Align <= 0 || l.Align&(l.Align-1) != 0 {
		return errors.Errorf("sockaddr alignment %d is not a power of two", l.Align)
	}
	return nil
}

// roundup mirrors the kernel's SA_SIZE: an empty sockaddr still takes one boundary.
func (l Layout) roundup(n int) int {
	if n == 0 {
		return l.Align
	}
	return (n + l.Align - 1) &^ (l.Align - 1)
}

// Sockaddr is one address slot of a route message.
// IPv4 is only meaningful when Family is AFInet; other families are kept structurally.
type Sockaddr struct {
	Slot   int
	Len    int
	Family int
	IPv4   [4]byte
}

// Entry is a decoded route message.
type Entry struct {
	Offset    int
	Length    int
	Version   uint8
	Type      uint8
	Index     int
	Flags     int
	Addrs     int
	Sockaddrs []Sockaddr
}

// Sockaddr returns the address stored in slot, if the entry carries one.
func (e Entry) Sockaddr(slot int) (Sockaddr, bool) {
	for _, sa := range e.Sockaddrs {
		if sa.Slot == slot {
			return sa, true
		}
	}
	return Sockaddr{}, false
}

// Has reports whether every bit of mask is set in Addrs.
func (e Entry) Has(mask int) bool {
	return e.Addrs&mask == mask
}

// Decoder walks a snapshot one route message at a time.
// A decoder is single use: once it stops, a fresh one must be built from the snapshot.
type Decoder struct {
	buf    []byte
	layout Layout
	off    int
	entry  Entry
	err    error
}

// NewDecoder returns a decoder reading s with the framing described by l.
func NewDecoder(s Snapshot, l Layout) *Decoder {
	d := &Decoder{buf: s, layout: l}
	if err := l.validate(); err != nil {
		d.err = err
	}
	return d
}

// Next decodes the following entry. It returns false at the end of the snapshot or
// on the first malformed entry, in which case Err reports why.
func (d *Decoder) Next() bool {
	if d.err != nil || d.off >= len(d.buf) {
		return false
	}

	e, err := d.decodeEntry(d.off)
	if err != nil {
		d.err = err
		d.entry = Entry{}
		return false
	}

	d.off += e.Length
	d.entry = e
	return true
}

// Entry returns the entry decoded by the last successful call to Next.
func (d *Decoder) Entry() Entry { return d.entry }

// Err returns the error that stopped decoding, or nil at a clean end.
func (d *Decoder) Err() error { return d.err }

// Offset returns the byte offset of the next entry.
func (d *Decoder) Offset() int { return d.off }

func (d *Decoder) decodeEntry(off int) (Entry, error) {
	rest := len(d.buf) - off
	if rest < 2 {
		return Entry{}, errors.Wrapf(ErrCorrupt, "%d trailing bytes at offset %d", rest, off)
	}

	msglen := int(binary.NativeEndian.Uint16(d.buf[off+offMsglen:]))
	switch {
	case msglen <= 0:
		return Entry{}, errors.Wrapf(ErrCorrupt, "entry at offset %d declares length %d", off, msglen)
	case msglen > rest:
		return Entry{}, errors.Wrapf(ErrCorrupt, "entry at offset %d declares length %d, only %d bytes remain", off, msglen, rest)
	case msglen < d.layout.HeaderLen:
		return Entry{}, errors.Wrapf(ErrCorrupt, "entry at offset %d declares length %d, shorter than its %d byte header", off, msglen, d.layout.HeaderLen)
	}

	msg := d.buf[off : off+msglen]
	e := Entry{
		Offset:  off,
		Length:  msglen,
		Version: msg[offVersion],
		Type:    msg[offType],
		Index:   int(binary.NativeEndian.Uint16(msg[offIndex:])),
		Flags:   int(int32(binary.NativeEndian.Uint32(msg[offFlags:]))),
		Addrs:   int(int32(binary.NativeEndian.Uint32(msg[offAddrs:]))),
	}

	cur := d.layout.HeaderLen
	for slot := 0; slot < rtaxMax; slot++ {
		if e.Addrs&(1<<slot) == 0 {
			continue
		}
		sa, n, err := d.decodeSockaddr(msg, cur, slot)
		if err != nil {
			return Entry{}, errors.Wrapf(err, "entry at offset %d", off)
		}
		e.Sockaddrs = append(e.Sockaddrs, sa)
		cur += n
	}

	return e, nil
}

// decodeSockaddr reads the sockaddr at msg[cur:] and returns it with the number of
// bytes it occupies in the stream.
func (d *Decoder) decodeSockaddr(msg []byte, cur, slot int) (Sockaddr, int, error) {
	if cur >= len(msg) {
		return Sockaddr{}, 0, errors.Wrapf(ErrCorrupt, "address slot %d starts past the end of the entry", slot)
	}

	salen := int(msg[cur])
	n := d.layout.roundup(salen)
	if cur+n > len(msg) {
		return Sockaddr{}, 0, errors.Wrapf(ErrCorrupt, "address slot %d needs %d bytes, %d remain", slot, n, len(msg)-cur)
	}

	sa := Sockaddr{Slot: slot, Len: salen}
	if salen >= 2 {
		sa.Family = int(msg[cur+1])
	}
	if sa.Family == AFInet && salen > 4 {
		// sin_len, sin_family, sin_port, sin_addr; masks may be cut short by the kernel.
		copy(sa.IPv4[:], msg[cur+4:cur+min(salen, 8)])
	}

	return sa, n, nil
}

// Decode returns every entry of s in snapshot order, or the error that stopped it.
// No entries are returned alongside an error.
func Decode(s Snapshot, l Layout) ([]Entry, error) {
	d := NewDecoder(s, l)

	var entries []Entry
	for d.Next() {
		entries = append(entries, d.Entry())
	}
	if err := d.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
