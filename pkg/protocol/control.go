package protocol

// ControlType identifies the type of control message.
type ControlType uint8

const (
	ControlPing       ControlType = 0x01 // Client/server ping
	ControlPong       ControlType = 0x02 // Response to ping
	ControlResync     ControlType = 0x10 // Client requests a full view resend
	ControlResyncFull ControlType = 0x11 // Server resends the full view next
	ControlClose      ControlType = 0x20 // Session close
)

// String returns the string representation of the control type.
func (ct ControlType) String() string {
	switch ct {
	case ControlPing:
		return "Ping"
	case ControlPong:
		return "Pong"
	case ControlResync:
		return "Resync"
	case ControlResyncFull:
		return "ResyncFull"
	case ControlClose:
		return "Close"
	default:
		return "Unknown"
	}
}

// CloseReason indicates why a session is being closed.
type CloseReason uint8

const (
	CloseNormal         CloseReason = 0x00 // Normal closure
	CloseGoingAway      CloseReason = 0x01 // Client/server going away
	CloseSessionExpired CloseReason = 0x02 // Session expired
	CloseServerShutdown CloseReason = 0x03 // Server shutting down
	CloseError          CloseReason = 0x04 // Error occurred
)

// String returns the string representation of the close reason.
func (cr CloseReason) String() string {
	switch cr {
	case CloseNormal:
		return "Normal"
	case CloseGoingAway:
		return "GoingAway"
	case CloseSessionExpired:
		return "SessionExpired"
	case CloseServerShutdown:
		return "ServerShutdown"
	case CloseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// EncodeControl encodes a control message: type byte plus optional data.
func EncodeControl(ct ControlType, data []byte) []byte {
	e := NewEncoder()
	e.WriteByte(byte(ct))
	e.WriteLenBytes(data)
	return e.Bytes()
}

// DecodeControl decodes a control message, returning the type and data.
func DecodeControl(payload []byte) (ControlType, []byte, error) {
	d := NewDecoder(payload)

	b, err := d.ReadByte()
	if err != nil {
		return 0, nil, err
	}
	data, err := d.ReadLenBytes()
	if err != nil {
		return 0, nil, err
	}

	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)
	return ControlType(b), dataCopy, nil
}
