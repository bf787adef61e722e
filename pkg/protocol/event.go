package protocol

// Event is a client-initiated handler invocation: the name of a handler
// registered on the session's app plus JSON-encoded arguments.
type Event struct {
	Seq  uint64 // Client-assigned sequence for correlation
	Name string // Registered handler name
	Args []byte // JSON-encoded argument payload, may be empty
}

// EncodeEvent encodes an Event to bytes.
func EncodeEvent(ev *Event) []byte {
	e := NewEncoder()
	e.WriteUvarint(ev.Seq)
	e.WriteString(ev.Name)
	e.WriteLenBytes(ev.Args)
	return e.Bytes()
}

// DecodeEvent decodes an Event from bytes.
func DecodeEvent(data []byte) (*Event, error) {
	d := NewDecoder(data)

	seq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	name, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	args, err := d.ReadLenBytes()
	if err != nil {
		return nil, err
	}

	// Copy args out of the decode buffer; the event outlives the frame.
	argsCopy := make([]byte, len(args))
	copy(argsCopy, args)

	return &Event{Seq: seq, Name: name, Args: argsCopy}, nil
}
