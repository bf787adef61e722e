package protocol

// View carries the committed view of a session's component tree.
// Data is the JSON encoding of the view value the root committed.
type View struct {
	Seq  uint64 // Monotonic per-session view sequence
	Data []byte // JSON-encoded view
}

// EncodeView encodes a View to bytes.
func EncodeView(v *View) []byte {
	e := NewEncoder()
	e.WriteUvarint(v.Seq)
	e.WriteLenBytes(v.Data)
	return e.Bytes()
}

// DecodeView decodes a View from bytes.
func DecodeView(data []byte) (*View, error) {
	d := NewDecoder(data)

	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	payload, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}

	payloadCopy := make([]byte, len(payload))
	copy(payloadCopy, payload)

	return &View{Seq: seq, Data: payloadCopy}, nil
}

// Ack is sent by the client to acknowledge applied views. It lets the
// server detect lagging clients and skip redundant resends on resume.
type Ack struct {
	LastSeq uint64 // Last applied view sequence
}

// EncodeAck encodes an Ack to bytes.
func EncodeAck(a *Ack) []byte {
	e := NewEncoder()
	e.WriteUvarint(a.LastSeq)
	return e.Bytes()
}

// DecodeAck decodes an Ack from bytes.
func DecodeAck(data []byte) (*Ack, error) {
	d := NewDecoder(data)
	lastSeq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	return &Ack{LastSeq: lastSeq}, nil
}
