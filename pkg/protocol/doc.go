// Package protocol implements the binary wire format for the Relight
// live-state channel.
//
// Clients send Hello (session setup/resume), Event (named handler
// invocations with JSON arguments), Ack (view sequence acknowledgment),
// and Control (ping/resync/close) frames. The server responds with View
// frames carrying the committed view of the component tree, plus Control
// and Error frames.
//
// Every message rides in a Frame with a fixed 4-byte header. Payloads use
// varint length prefixes throughout; decoders enforce allocation limits
// so a malicious length prefix cannot exhaust memory.
package protocol
