package protocol

import (
	"bytes"
	"errors"
	"fmt"
)

// Packet framing constants
const (
	// HeaderMarker is the first byte of every header packet.
	HeaderMarker = 0xFF

	// MinMTU is the smallest link MTU the codec supports. Below this the
	// header packet could not carry a single payload byte.
	MinMTU = 10

	// DefaultMTU is the characteristic payload size negotiated with the
	// unit. The unit accepts up to 200 bytes per write once the ATT MTU
	// exchange has completed.
	DefaultMTU = 200

	// headerOverhead is the header packet prefix: marker, reserved byte,
	// total count, msg_id, reserved byte.
	headerOverhead = 5

	// contOverhead is the continuation packet prefix: msg_id, seq index.
	contOverhead = 2
)

// payloadSentinel terminates the serialized envelope before fragmentation.
// The unit pads the characteristic with stale bytes, so the reader splits at
// the first 0x00 and discards everything after it.
var payloadSentinel = []byte{0x00, 0xFF}

// Codec sentinel errors. Reassembly failures wrap one of these so callers
// can distinguish malformed wire data from transport problems.
var (
	// ErrInvalidHeader indicates the first chunk does not start with the
	// header marker byte.
	ErrInvalidHeader = errors.New("first chunk is not a header packet")

	// ErrChunkIDMismatch indicates a continuation chunk belongs to a
	// different message than the header chunk.
	ErrChunkIDMismatch = errors.New("chunk message id mismatch")

	// ErrEmptyChunks indicates reassembly was attempted with no chunks.
	ErrEmptyChunks = errors.New("no chunks to reassemble")

	// ErrMalformedJSON indicates the reassembled payload did not decode as
	// a response envelope.
	ErrMalformedJSON = errors.New("malformed response json")
)

// Fragment splits a serialized envelope into link-sized packets.
//
// The payload is terminated with the 0x00 0xFF sentinel, then split into one
// header packet carrying up to mtu-5 bytes and continuation packets carrying
// up to mtu-2 bytes each, indexed from 1.
//
// msgID is caller-supplied and must advance for every outbound transaction
// (see Engine.nextMsgID); 0x00 and 0xFF are reserved for packet markers.
func Fragment(payload []byte, mtu int, msgID byte) ([][]byte, error) {
	if mtu < MinMTU {
		return nil, fmt.Errorf("mtu %d below minimum %d", mtu, MinMTU)
	}
	if msgID == 0x00 || msgID == HeaderMarker {
		return nil, fmt.Errorf("msg id 0x%02x is reserved", msgID)
	}

	framed := make([]byte, 0, len(payload)+len(payloadSentinel))
	framed = append(framed, payload...)
	framed = append(framed, payloadSentinel...)

	firstCap := mtu - headerOverhead
	nextCap := mtu - contOverhead

	total := 1
	if len(framed) > firstCap {
		rest := len(framed) - firstCap
		total += (rest + nextCap - 1) / nextCap
	}
	if total > 255 {
		return nil, fmt.Errorf("payload needs %d packets, exceeds 255", total)
	}

	packets := make([][]byte, 0, total)

	end := firstCap
	if end > len(framed) {
		end = len(framed)
	}
	header := make([]byte, 0, headerOverhead+end)
	header = append(header, HeaderMarker, 0x00, byte(total), msgID, 0x00)
	header = append(header, framed[:end]...)
	packets = append(packets, header)

	seq := byte(1)
	for offset := end; offset < len(framed); offset += nextCap {
		chunkEnd := offset + nextCap
		if chunkEnd > len(framed) {
			chunkEnd = len(framed)
		}
		pkt := make([]byte, 0, contOverhead+chunkEnd-offset)
		pkt = append(pkt, msgID, seq)
		pkt = append(pkt, framed[offset:chunkEnd]...)
		packets = append(packets, pkt)
		seq++
	}

	return packets, nil
}

// JoinChunks reassembles received packets into the original payload bytes.
//
// The first chunk must be a header packet; every continuation chunk must
// echo the header's msg_id. The concatenated payload is cut at the first
// 0x00 byte, which drops the sentinel and any stale trailing bytes the
// characteristic still held.
func JoinChunks(chunks [][]byte) ([]byte, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyChunks
	}
	header := chunks[0]
	if len(header) < headerOverhead || header[0] != HeaderMarker {
		return nil, ErrInvalidHeader
	}

	msgID := header[3]
	payload := append([]byte(nil), header[headerOverhead:]...)

	for i, chunk := range chunks[1:] {
		if len(chunk) < contOverhead {
			return nil, fmt.Errorf("continuation chunk %d truncated (%d bytes)", i+1, len(chunk))
		}
		if chunk[0] != msgID {
			return nil, fmt.Errorf("%w: chunk %d has id 0x%02x, header has 0x%02x",
				ErrChunkIDMismatch, i+1, chunk[0], msgID)
		}
		payload = append(payload, chunk[contOverhead:]...)
	}

	if cut := bytes.IndexByte(payload, 0x00); cut >= 0 {
		payload = payload[:cut]
	}
	return payload, nil
}

// DeclaredTotal returns the chunk count a header packet announces, or 0 if
// the packet is not a header packet. Used by the read-poll loop to learn how
// many chunks to wait for.
func DeclaredTotal(packet []byte) int {
	if len(packet) < headerOverhead || packet[0] != HeaderMarker {
		return 0
	}
	return int(packet[2])
}
