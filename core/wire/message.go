package wire

import "zenoh-go/core/zerr"

// ProtocolVersion is the wire version byte, per spec §6.
const ProtocolVersion byte = 0x08

// Whatami is the 3-bit participant-kind mask of spec §6.
type Whatami byte

const (
	WhatRouter Whatami = 1 << iota
	WhatPeer
	WhatClient
)

// ZenohID is a 1-16 byte opaque participant identifier (spec §3).
type ZenohID struct {
	Size byte // 1..16, significant bytes of Bytes
	Bytes [16]byte
}

// NewZenohID builds a ZenohID from a byte slice of 1 to 16 bytes.
func NewZenohID(b []byte) (ZenohID, error) {
	var z ZenohID
	if len(b) < 1 || len(b) > 16 {
		return z, zerr.Newf(zerr.InvalidArgument, "zenoh id must be 1-16 bytes, got %d", len(b))
	}
	z.Size = byte(len(b))
	copy(z.Bytes[:], b)
	return z, nil
}

// Slice returns the significant bytes of the ID.
func (z ZenohID) Slice() []byte { return z.Bytes[:z.Size] }

func (z ZenohID) Equal(o ZenohID) bool {
	return z.Size == o.Size && z.Bytes == o.Bytes
}

func encodeZenohID(w *WBuf, z ZenohID) {
	_ = w.WriteByte(z.Size)
	_, _ = w.Write(z.Bytes[:z.Size])
}

func decodeZenohID(r *RBuf) (ZenohID, error) {
	size, err := r.ReadByte()
	if err != nil {
		return ZenohID{}, zerr.Wrap(zerr.ProtocolError, "truncated zid size", err)
	}
	if size < 1 || size > 16 {
		return ZenohID{}, zerr.Newf(zerr.ProtocolError, "invalid zid size %d", size)
	}
	b, err := r.ReadN(int(size))
	if err != nil {
		return ZenohID{}, zerr.Wrap(zerr.ProtocolError, "truncated zid bytes", err)
	}
	return NewZenohID(b)
}

func encodeBytes(w *WBuf, b []byte) {
	PutUvarint(w, uint64(len(b)))
	_, _ = w.Write(b)
}

func decodeBytes(r *RBuf) ([]byte, error) {
	n, err := GetUvarint(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.ReadN(int(n))
}

func encodeString(w *WBuf, s string) { encodeBytes(w, []byte(s)) }

func decodeString(r *RBuf) (string, error) {
	b, err := decodeBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WireKeyExpr is a key expression as it appears on the wire: either a
// resource id with an (optionally empty) trailing suffix, or id==0 with
// the full literal key carried in Suffix (spec §3).
type WireKeyExpr struct {
	RID    uint64
	Suffix string
}

func encodeKeyExpr(w *WBuf, k WireKeyExpr) {
	PutUvarint(w, k.RID)
	encodeString(w, k.Suffix)
}

func decodeKeyExpr(r *RBuf) (WireKeyExpr, error) {
	rid, err := GetUvarint(r)
	if err != nil {
		return WireKeyExpr{}, err
	}
	suffix, err := decodeString(r)
	if err != nil {
		return WireKeyExpr{}, err
	}
	return WireKeyExpr{RID: rid, Suffix: suffix}, nil
}

// Message is any top-level scouting/transport/network message.
type Message interface {
	msgID() byte
	msgFlags() byte
	encodeBody(w *WBuf)
}

// ---- Scouting ----

type Scout struct {
	Version byte
	What    Whatami
}

func (m Scout) msgID() byte    { return IDScout }
func (m Scout) msgFlags() byte { return 0 }
func (m Scout) encodeBody(w *WBuf) {
	_ = w.WriteByte(m.Version)
	_ = w.WriteByte(byte(m.What))
}
func decodeScout(r *RBuf) (Scout, error) {
	ver, err := r.ReadByte()
	if err != nil {
		return Scout{}, err
	}
	what, err := r.ReadByte()
	if err != nil {
		return Scout{}, err
	}
	return Scout{Version: ver, What: Whatami(what)}, nil
}

type Hello struct {
	Version byte
	What    Whatami
	ZID     ZenohID
	Locators []string
}

func (m Hello) msgID() byte    { return IDHello }
func (m Hello) msgFlags() byte { return 0 }
func (m Hello) encodeBody(w *WBuf) {
	_ = w.WriteByte(m.Version)
	_ = w.WriteByte(byte(m.What))
	encodeZenohID(w, m.ZID)
	PutUvarint(w, uint64(len(m.Locators)))
	for _, l := range m.Locators {
		encodeString(w, l)
	}
}
func decodeHello(r *RBuf) (Hello, error) {
	var m Hello
	var err error
	if m.Version, err = r.ReadByte(); err != nil {
		return m, err
	}
	what, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.What = Whatami(what)
	if m.ZID, err = decodeZenohID(r); err != nil {
		return m, err
	}
	n, err := GetUvarint(r)
	if err != nil {
		return m, err
	}
	if n > uint64(r.Remaining()) {
		return m, zerr.Newf(zerr.ProtocolError, "hello locator count %d exceeds remaining %d bytes", n, r.Remaining())
	}
	m.Locators = make([]string, n)
	for i := range m.Locators {
		if m.Locators[i], err = decodeString(r); err != nil {
			return m, err
		}
	}
	return m, nil
}

// ---- Transport: handshake ----

type InitSyn struct {
	Version      byte
	Whatami      Whatami
	ZID          ZenohID
	SnResolution uint64
	BatchSize    uint64
}

func (m InitSyn) msgID() byte    { return IDInitSyn }
func (m InitSyn) msgFlags() byte { return 0 }
func (m InitSyn) encodeBody(w *WBuf) {
	_ = w.WriteByte(m.Version)
	_ = w.WriteByte(byte(m.Whatami))
	encodeZenohID(w, m.ZID)
	PutUvarint(w, m.SnResolution)
	PutUvarint(w, m.BatchSize)
}
func decodeInitSyn(r *RBuf) (InitSyn, error) {
	var m InitSyn
	var err error
	if m.Version, err = r.ReadByte(); err != nil {
		return m, err
	}
	wa, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.Whatami = Whatami(wa)
	if m.ZID, err = decodeZenohID(r); err != nil {
		return m, err
	}
	if m.SnResolution, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.BatchSize, err = GetUvarint(r); err != nil {
		return m, err
	}
	return m, nil
}

type InitAck struct {
	Version      byte
	Whatami      Whatami
	ZID          ZenohID
	SnResolution uint64
	BatchSize    uint64
	Cookie       []byte
}

func (m InitAck) msgID() byte    { return IDInitAck }
func (m InitAck) msgFlags() byte { return 0 }
func (m InitAck) encodeBody(w *WBuf) {
	_ = w.WriteByte(m.Version)
	_ = w.WriteByte(byte(m.Whatami))
	encodeZenohID(w, m.ZID)
	PutUvarint(w, m.SnResolution)
	PutUvarint(w, m.BatchSize)
	encodeBytes(w, m.Cookie)
}
func decodeInitAck(r *RBuf) (InitAck, error) {
	var m InitAck
	var err error
	if m.Version, err = r.ReadByte(); err != nil {
		return m, err
	}
	wa, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.Whatami = Whatami(wa)
	if m.ZID, err = decodeZenohID(r); err != nil {
		return m, err
	}
	if m.SnResolution, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.BatchSize, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.Cookie, err = decodeBytes(r); err != nil {
		return m, err
	}
	return m, nil
}

type OpenSyn struct {
	Lease  uint64
	Cookie []byte
}

func (m OpenSyn) msgID() byte    { return IDOpenSyn }
func (m OpenSyn) msgFlags() byte { return 0 }
func (m OpenSyn) encodeBody(w *WBuf) {
	PutUvarint(w, m.Lease)
	encodeBytes(w, m.Cookie)
}
func decodeOpenSyn(r *RBuf) (OpenSyn, error) {
	var m OpenSyn
	var err error
	if m.Lease, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.Cookie, err = decodeBytes(r); err != nil {
		return m, err
	}
	return m, nil
}

type OpenAck struct {
	Lease uint64
}

func (m OpenAck) msgID() byte    { return IDOpenAck }
func (m OpenAck) msgFlags() byte { return 0 }
func (m OpenAck) encodeBody(w *WBuf) {
	PutUvarint(w, m.Lease)
}
func decodeOpenAck(r *RBuf) (OpenAck, error) {
	lease, err := GetUvarint(r)
	return OpenAck{Lease: lease}, err
}

type Close struct {
	Reason   byte
	LinkOnly bool
}

func (m Close) msgID() byte { return IDClose }
func (m Close) msgFlags() byte {
	if m.LinkOnly {
		return flagCloseLinkOnly
	}
	return 0
}
func (m Close) encodeBody(w *WBuf) {
	_ = w.WriteByte(m.Reason)
}
func decodeClose(r *RBuf, flags byte) (Close, error) {
	reason, err := r.ReadByte()
	return Close{Reason: reason, LinkOnly: flags&flagCloseLinkOnly != 0}, err
}

type KeepAlive struct{}

func (m KeepAlive) msgID() byte        { return IDKeepAlive }
func (m KeepAlive) msgFlags() byte     { return 0 }
func (m KeepAlive) encodeBody(w *WBuf) {}
func decodeKeepAlive(r *RBuf) (KeepAlive, error) { return KeepAlive{}, nil }

// Join announces multicast peer presence (spec §4.4).
type Join struct {
	Whatami        Whatami
	ZID            ZenohID
	Lease          uint64
	SnResolution   uint64
	NextSNReliable uint64
	NextSNBestEff  uint64
}

func (m Join) msgID() byte    { return IDJoin }
func (m Join) msgFlags() byte { return 0 }
func (m Join) encodeBody(w *WBuf) {
	_ = w.WriteByte(byte(m.Whatami))
	encodeZenohID(w, m.ZID)
	PutUvarint(w, m.Lease)
	PutUvarint(w, m.SnResolution)
	PutUvarint(w, m.NextSNReliable)
	PutUvarint(w, m.NextSNBestEff)
}
func decodeJoin(r *RBuf) (Join, error) {
	var m Join
	wa, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.Whatami = Whatami(wa)
	if m.ZID, err = decodeZenohID(r); err != nil {
		return m, err
	}
	if m.Lease, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.SnResolution, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.NextSNReliable, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.NextSNBestEff, err = GetUvarint(r); err != nil {
		return m, err
	}
	return m, nil
}

// Frame wraps one or more network messages stamped with a single SN on
// one reliability conduit (spec §4.3).
type Frame struct {
	Reliable bool
	SN       uint64
	Payload  []byte // pre-encoded network message(s)
}

func (m Frame) msgID() byte { return IDFrame }
func (m Frame) msgFlags() byte {
	if m.Reliable {
		return flagFrameReliable
	}
	return 0
}
func (m Frame) encodeBody(w *WBuf) {
	PutUvarint(w, m.SN)
	encodeBytes(w, m.Payload)
}
func decodeFrame(r *RBuf, flags byte) (Frame, error) {
	var m Frame
	m.Reliable = flags&flagFrameReliable != 0
	var err error
	if m.SN, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.Payload, err = decodeBytes(r); err != nil {
		return m, err
	}
	return m, nil
}

// Fragment carries one slice of a chain sharing a single SN (spec §4.1).
type Fragment struct {
	Reliable bool
	More     bool
	SN       uint64
	Payload  []byte
}

func (m Fragment) msgID() byte { return IDFragment }
func (m Fragment) msgFlags() byte {
	var f byte
	if m.More {
		f |= flagFragmentMore
	}
	if m.Reliable {
		f |= flagFragmentRel
	}
	return f
}
func (m Fragment) encodeBody(w *WBuf) {
	PutUvarint(w, m.SN)
	encodeBytes(w, m.Payload)
}
func decodeFragment(r *RBuf, flags byte) (Fragment, error) {
	var m Fragment
	m.More = flags&flagFragmentMore != 0
	m.Reliable = flags&flagFragmentRel != 0
	var err error
	if m.SN, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.Payload, err = decodeBytes(r); err != nil {
		return m, err
	}
	return m, nil
}

// ---- Network ----

type Encoding struct {
	Suffix string
}

func encodeEncoding(w *WBuf, e Encoding) { encodeString(w, e.Suffix) }
func decodeEncoding(r *RBuf) (Encoding, error) {
	s, err := decodeString(r)
	return Encoding{Suffix: s}, err
}

// Push carries a Put or Delete sample toward matching subscribers.
type Push struct {
	IsPut      bool
	Key        WireKeyExpr
	Payload    []byte
	Encoding   Encoding
	Attachment []byte
	Timestamp  uint64
}

func (m Push) msgID() byte { return IDPush }
func (m Push) msgFlags() byte {
	if m.IsPut {
		return flagPushPut
	}
	return 0
}
func (m Push) encodeBody(w *WBuf) {
	encodeKeyExpr(w, m.Key)
	encodeEncoding(w, m.Encoding)
	encodeBytes(w, m.Payload)
	encodeBytes(w, m.Attachment)
	PutUvarint(w, m.Timestamp)
}
func decodePush(r *RBuf, flags byte) (Push, error) {
	var m Push
	m.IsPut = flags&flagPushPut != 0
	var err error
	if m.Key, err = decodeKeyExpr(r); err != nil {
		return m, err
	}
	if m.Encoding, err = decodeEncoding(r); err != nil {
		return m, err
	}
	if m.Payload, err = decodeBytes(r); err != nil {
		return m, err
	}
	if m.Attachment, err = decodeBytes(r); err != nil {
		return m, err
	}
	if m.Timestamp, err = GetUvarint(r); err != nil {
		return m, err
	}
	return m, nil
}

// Consolidation identifies how duplicate replies to one query are
// reduced (spec glossary).
type Consolidation byte

const (
	ConsolidationNone Consolidation = iota
	ConsolidationMonotonic
	ConsolidationLatest
)

// Target identifies which queryables a Request should reach.
type Target byte

const (
	TargetBestMatching Target = iota
	TargetAll
	TargetAllComplete
)

type Request struct {
	QID           uint64
	Key           WireKeyExpr
	Selector      string // trailing "?params", may be empty
	Target        Target
	Consolidation Consolidation
	Payload       []byte // optional value attached to the query
}

func (m Request) msgID() byte    { return IDRequest }
func (m Request) msgFlags() byte { return 0 }
func (m Request) encodeBody(w *WBuf) {
	PutUvarint(w, m.QID)
	encodeKeyExpr(w, m.Key)
	encodeString(w, m.Selector)
	_ = w.WriteByte(byte(m.Target))
	_ = w.WriteByte(byte(m.Consolidation))
	encodeBytes(w, m.Payload)
}
func decodeRequest(r *RBuf) (Request, error) {
	var m Request
	var err error
	if m.QID, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.Key, err = decodeKeyExpr(r); err != nil {
		return m, err
	}
	if m.Selector, err = decodeString(r); err != nil {
		return m, err
	}
	target, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.Target = Target(target)
	cons, err := r.ReadByte()
	if err != nil {
		return m, err
	}
	m.Consolidation = Consolidation(cons)
	if m.Payload, err = decodeBytes(r); err != nil {
		return m, err
	}
	return m, nil
}

type Response struct {
	QID        uint64
	Key        WireKeyExpr
	Payload    []byte
	Encoding   Encoding
	Timestamp  uint64
	ReplierZID ZenohID
}

func (m Response) msgID() byte    { return IDResponse }
func (m Response) msgFlags() byte { return 0 }
func (m Response) encodeBody(w *WBuf) {
	PutUvarint(w, m.QID)
	encodeKeyExpr(w, m.Key)
	encodeEncoding(w, m.Encoding)
	encodeBytes(w, m.Payload)
	PutUvarint(w, m.Timestamp)
	encodeZenohID(w, m.ReplierZID)
}
func decodeResponse(r *RBuf) (Response, error) {
	var m Response
	var err error
	if m.QID, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.Key, err = decodeKeyExpr(r); err != nil {
		return m, err
	}
	if m.Encoding, err = decodeEncoding(r); err != nil {
		return m, err
	}
	if m.Payload, err = decodeBytes(r); err != nil {
		return m, err
	}
	if m.Timestamp, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.ReplierZID, err = decodeZenohID(r); err != nil {
		return m, err
	}
	return m, nil
}

type ResponseFinal struct {
	QID uint64
}

func (m ResponseFinal) msgID() byte    { return IDResponseFinal }
func (m ResponseFinal) msgFlags() byte { return 0 }
func (m ResponseFinal) encodeBody(w *WBuf) {
	PutUvarint(w, m.QID)
}
func decodeResponseFinal(r *RBuf) (ResponseFinal, error) {
	qid, err := GetUvarint(r)
	return ResponseFinal{QID: qid}, err
}

// OAM is opaque to the session layer (spec glossary).
type OAM struct {
	ID      uint64
	Payload []byte
}

func (m OAM) msgID() byte    { return IDOAM }
func (m OAM) msgFlags() byte { return 0 }
func (m OAM) encodeBody(w *WBuf) {
	PutUvarint(w, m.ID)
	encodeBytes(w, m.Payload)
}
func decodeOAM(r *RBuf) (OAM, error) {
	var m OAM
	var err error
	if m.ID, err = GetUvarint(r); err != nil {
		return m, err
	}
	if m.Payload, err = decodeBytes(r); err != nil {
		return m, err
	}
	return m, nil
}

// DeclareBody is one of the nine tagged declare variants carried inside
// a Declare message.
type DeclareBody interface {
	declID() byte
	encodeDeclBody(w *WBuf)
}

type Declare struct {
	Bodies []DeclareBody
}

func (m Declare) msgID() byte    { return IDDeclare }
func (m Declare) msgFlags() byte { return 0 }
func (m Declare) encodeBody(w *WBuf) {
	PutUvarint(w, uint64(len(m.Bodies)))
	for _, b := range m.Bodies {
		_ = w.WriteByte(b.declID())
		b.encodeDeclBody(w)
	}
}
func decodeDeclare(r *RBuf) (Declare, error) {
	n, err := GetUvarint(r)
	if err != nil {
		return Declare{}, err
	}
	if n > uint64(r.Remaining()) {
		return Declare{}, zerr.Newf(zerr.ProtocolError, "declare body count %d exceeds remaining %d bytes", n, r.Remaining())
	}
	bodies := make([]DeclareBody, 0, n)
	for i := uint64(0); i < n; i++ {
		id, err := r.ReadByte()
		if err != nil {
			return Declare{}, err
		}
		b, err := decodeDeclareBody(r, id)
		if err != nil {
			return Declare{}, err
		}
		bodies = append(bodies, b)
	}
	return Declare{Bodies: bodies}, nil
}

func decodeDeclareBody(r *RBuf, id byte) (DeclareBody, error) {
	switch id {
	case DeclKeyExpr:
		return decodeDeclareKeyExpr(r)
	case UndeclKeyExpr:
		return decodeUndeclareKeyExpr(r)
	case DeclSubscriber:
		return decodeDeclareSubscriber(r)
	case UndeclSubscriber:
		return decodeUndeclareSubscriber(r)
	case DeclQueryable:
		return decodeDeclareQueryable(r)
	case UndeclQueryable:
		return decodeUndeclareQueryable(r)
	case DeclToken:
		return decodeDeclareToken(r)
	case UndeclToken:
		return decodeUndeclareToken(r)
	case DeclFinal:
		return DeclareFinal{}, nil
	default:
		return nil, zerr.Newf(zerr.ProtocolError, "unknown declare body id %d", id)
	}
}

type DeclareKeyExpr struct {
	ID  uint64
	Key WireKeyExpr
}

func (d DeclareKeyExpr) declID() byte { return DeclKeyExpr }
func (d DeclareKeyExpr) encodeDeclBody(w *WBuf) {
	PutUvarint(w, d.ID)
	encodeKeyExpr(w, d.Key)
}
func decodeDeclareKeyExpr(r *RBuf) (DeclareKeyExpr, error) {
	var d DeclareKeyExpr
	var err error
	if d.ID, err = GetUvarint(r); err != nil {
		return d, err
	}
	d.Key, err = decodeKeyExpr(r)
	return d, err
}

type UndeclareKeyExpr struct {
	ID uint64
}

func (d UndeclareKeyExpr) declID() byte            { return UndeclKeyExpr }
func (d UndeclareKeyExpr) encodeDeclBody(w *WBuf)  { PutUvarint(w, d.ID) }
func decodeUndeclareKeyExpr(r *RBuf) (UndeclareKeyExpr, error) {
	id, err := GetUvarint(r)
	return UndeclareKeyExpr{ID: id}, err
}

type DeclareSubscriber struct {
	EntityID uint64
	Key      WireKeyExpr
}

func (d DeclareSubscriber) declID() byte { return DeclSubscriber }
func (d DeclareSubscriber) encodeDeclBody(w *WBuf) {
	PutUvarint(w, d.EntityID)
	encodeKeyExpr(w, d.Key)
}
func decodeDeclareSubscriber(r *RBuf) (DeclareSubscriber, error) {
	var d DeclareSubscriber
	var err error
	if d.EntityID, err = GetUvarint(r); err != nil {
		return d, err
	}
	d.Key, err = decodeKeyExpr(r)
	return d, err
}

type UndeclareSubscriber struct {
	EntityID uint64
}

func (d UndeclareSubscriber) declID() byte           { return UndeclSubscriber }
func (d UndeclareSubscriber) encodeDeclBody(w *WBuf) { PutUvarint(w, d.EntityID) }
func decodeUndeclareSubscriber(r *RBuf) (UndeclareSubscriber, error) {
	id, err := GetUvarint(r)
	return UndeclareSubscriber{EntityID: id}, err
}

type DeclareQueryable struct {
	EntityID uint64
	Key      WireKeyExpr
	Complete bool
	Distance uint64
}

func (d DeclareQueryable) declID() byte { return DeclQueryable }
func (d DeclareQueryable) encodeDeclBody(w *WBuf) {
	PutUvarint(w, d.EntityID)
	encodeKeyExpr(w, d.Key)
	if d.Complete {
		_ = w.WriteByte(1)
	} else {
		_ = w.WriteByte(0)
	}
	PutUvarint(w, d.Distance)
}
func decodeDeclareQueryable(r *RBuf) (DeclareQueryable, error) {
	var d DeclareQueryable
	var err error
	if d.EntityID, err = GetUvarint(r); err != nil {
		return d, err
	}
	if d.Key, err = decodeKeyExpr(r); err != nil {
		return d, err
	}
	c, err := r.ReadByte()
	if err != nil {
		return d, err
	}
	d.Complete = c != 0
	d.Distance, err = GetUvarint(r)
	return d, err
}

type UndeclareQueryable struct {
	EntityID uint64
}

func (d UndeclareQueryable) declID() byte           { return UndeclQueryable }
func (d UndeclareQueryable) encodeDeclBody(w *WBuf) { PutUvarint(w, d.EntityID) }
func decodeUndeclareQueryable(r *RBuf) (UndeclareQueryable, error) {
	id, err := GetUvarint(r)
	return UndeclareQueryable{EntityID: id}, err
}

// DeclareToken declares a liveliness token: a zero-payload subscription
// whose disappearance signals peer departure (spec glossary).
type DeclareToken struct {
	EntityID uint64
	Key      WireKeyExpr
}

func (d DeclareToken) declID() byte { return DeclToken }
func (d DeclareToken) encodeDeclBody(w *WBuf) {
	PutUvarint(w, d.EntityID)
	encodeKeyExpr(w, d.Key)
}
func decodeDeclareToken(r *RBuf) (DeclareToken, error) {
	var d DeclareToken
	var err error
	if d.EntityID, err = GetUvarint(r); err != nil {
		return d, err
	}
	d.Key, err = decodeKeyExpr(r)
	return d, err
}

type UndeclareToken struct {
	EntityID uint64
}

func (d UndeclareToken) declID() byte           { return UndeclToken }
func (d UndeclareToken) encodeDeclBody(w *WBuf) { PutUvarint(w, d.EntityID) }
func decodeUndeclareToken(r *RBuf) (UndeclareToken, error) {
	id, err := GetUvarint(r)
	return UndeclareToken{EntityID: id}, err
}

// DeclareFinal terminates a burst of declare bodies sent as one logical
// interest reply; it carries no fields.
type DeclareFinal struct{}

func (d DeclareFinal) declID() byte           { return DeclFinal }
func (d DeclareFinal) encodeDeclBody(w *WBuf) {}
