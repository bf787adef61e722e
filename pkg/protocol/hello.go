package protocol

// ProtocolVersion is the current wire protocol version.
const ProtocolVersion = 1

// Hello is the first frame a client sends after connecting.
// An empty SessionID requests a fresh session; a non-empty one asks the
// server to resume a detached session, with LastSeq indicating the last
// view the client applied so the server can resync.
type Hello struct {
	Version   uint64 // Protocol version the client speaks
	SessionID string // Session to resume, empty for a new session
	LastSeq   uint64 // Last applied view sequence (resume only)
}

// EncodeHello encodes a Hello to bytes.
func EncodeHello(h *Hello) []byte {
	e := NewEncoder()
	e.WriteUvarint(h.Version)
	e.WriteString(h.SessionID)
	e.WriteUvarint(h.LastSeq)
	return e.Bytes()
}

// DecodeHello decodes a Hello from bytes.
func DecodeHello(data []byte) (*Hello, error) {
	d := NewDecoder(data)

	version, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}
	sessionID, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	lastSeq, err := d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	return &Hello{Version: version, SessionID: sessionID, LastSeq: lastSeq}, nil
}

// Welcome is the server's reply to a Hello.
type Welcome struct {
	SessionID string // Assigned (or resumed) session ID
	Resumed   bool   // True when an existing session was resumed
}

// EncodeWelcome encodes a Welcome to bytes.
func EncodeWelcome(w *Welcome) []byte {
	e := NewEncoder()
	e.WriteString(w.SessionID)
	e.WriteBool(w.Resumed)
	return e.Bytes()
}

// DecodeWelcome decodes a Welcome from bytes.
func DecodeWelcome(data []byte) (*Welcome, error) {
	d := NewDecoder(data)

	sessionID, err := d.ReadString()
	if err != nil {
		return nil, err
	}
	resumed, err := d.ReadBool()
	if err != nil {
		return nil, err
	}

	return &Welcome{SessionID: sessionID, Resumed: resumed}, nil
}
