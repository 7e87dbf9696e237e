package protocol

import (
	"bytes"
	"errors"
	"testing"
)

func TestFragment(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		mtu     int
		msgID   byte
		wantErr bool
		verify  func(t *testing.T, packets [][]byte)
	}{
		{
			name:    "small payload fits in one packet",
			payload: []byte(`{"status":`),
			mtu:     200,
			msgID:   10,
			verify: func(t *testing.T, packets [][]byte) {
				if len(packets) != 1 {
					t.Fatalf("packet count = %d, want 1", len(packets))
				}
				want := append([]byte{0xFF, 0x00, 1, 10, 0x00}, []byte(`{"status":`)...)
				want = append(want, 0x00, 0xFF)
				if !bytes.Equal(packets[0], want) {
					t.Errorf("packet = % x, want % x", packets[0], want)
				}
			},
		},
		{
			name:    "payload spanning multiple packets",
			payload: bytes.Repeat([]byte{'a'}, 450),
			mtu:     200,
			msgID:   7,
			verify: func(t *testing.T, packets [][]byte) {
				// 452 framed bytes: 195 in the header, then 198 per
				// continuation.
				if len(packets) != 3 {
					t.Fatalf("packet count = %d, want 3", len(packets))
				}
				if packets[0][0] != 0xFF {
					t.Errorf("header marker = 0x%02x, want 0xFF", packets[0][0])
				}
				if packets[0][2] != 3 {
					t.Errorf("declared total = %d, want 3", packets[0][2])
				}
				for i, pkt := range packets[1:] {
					if pkt[0] != 7 {
						t.Errorf("continuation %d msg id = 0x%02x, want 0x07", i+1, pkt[0])
					}
					if pkt[1] != byte(i+1) {
						t.Errorf("continuation %d seq = %d, want %d", i+1, pkt[1], i+1)
					}
				}
				for i, pkt := range packets {
					if len(pkt) > 200 {
						t.Errorf("packet %d is %d bytes, exceeds mtu", i, len(pkt))
					}
				}
			},
		},
		{
			name:    "payload exactly filling the header packet",
			payload: bytes.Repeat([]byte{'b'}, 193), // 195 with sentinel
			mtu:     200,
			msgID:   42,
			verify: func(t *testing.T, packets [][]byte) {
				if len(packets) != 1 {
					t.Fatalf("packet count = %d, want 1", len(packets))
				}
				if len(packets[0]) != 200 {
					t.Errorf("packet size = %d, want 200", len(packets[0]))
				}
			},
		},
		{
			name:    "one byte over the header capacity",
			payload: bytes.Repeat([]byte{'b'}, 194), // 196 with sentinel
			mtu:     200,
			msgID:   42,
			verify: func(t *testing.T, packets [][]byte) {
				if len(packets) != 2 {
					t.Fatalf("packet count = %d, want 2", len(packets))
				}
				// header: 42, seq 1, single overflow byte
				if len(packets[1]) != 3 {
					t.Errorf("continuation size = %d, want 3", len(packets[1]))
				}
			},
		},
		{
			name:    "minimum mtu",
			payload: []byte("hello"),
			mtu:     10,
			msgID:   1,
			verify: func(t *testing.T, packets [][]byte) {
				// 7 framed bytes, 5 fit the header, 2 overflow.
				if len(packets) != 2 {
					t.Fatalf("packet count = %d, want 2", len(packets))
				}
			},
		},
		{
			name:    "mtu below minimum rejected",
			payload: []byte("hello"),
			mtu:     9,
			msgID:   1,
			wantErr: true,
		},
		{
			name:    "msg id 0x00 reserved",
			payload: []byte("hello"),
			mtu:     200,
			msgID:   0x00,
			wantErr: true,
		},
		{
			name:    "msg id 0xFF reserved",
			payload: []byte("hello"),
			mtu:     200,
			msgID:   0xFF,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packets, err := Fragment(tt.payload, tt.mtu, tt.msgID)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Fragment() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && tt.verify != nil {
				tt.verify(t, packets)
			}
		})
	}
}

func TestFragmentJoinRoundTrip(t *testing.T) {
	payloads := []struct {
		name string
		data []byte
		mtu  int
	}{
		{"tiny json", []byte(`{"a":1}`), 200},
		{"exact boundary", bytes.Repeat([]byte{'x'}, 193), 200},
		{"multi packet", bytes.Repeat([]byte{'y'}, 1000), 200},
		{"small mtu", bytes.Repeat([]byte{'z'}, 100), 10},
	}

	for _, tt := range payloads {
		t.Run(tt.name, func(t *testing.T) {
			packets, err := Fragment(tt.data, tt.mtu, 33)
			if err != nil {
				t.Fatalf("Fragment() error = %v", err)
			}
			got, err := JoinChunks(packets)
			if err != nil {
				t.Fatalf("JoinChunks() error = %v", err)
			}
			if !bytes.Equal(got, tt.data) {
				t.Errorf("round trip mismatch: got %d bytes, want %d", len(got), len(tt.data))
			}
		})
	}
}

func TestJoinChunks(t *testing.T) {
	tests := []struct {
		name    string
		chunks  [][]byte
		want    []byte
		wantErr error
	}{
		{
			name:    "no chunks",
			chunks:  nil,
			wantErr: ErrEmptyChunks,
		},
		{
			name:    "first chunk not a header",
			chunks:  [][]byte{{0x05, 0x01, 'a', 'b'}},
			wantErr: ErrInvalidHeader,
		},
		{
			name:    "truncated header",
			chunks:  [][]byte{{0xFF, 0x00}},
			wantErr: ErrInvalidHeader,
		},
		{
			name: "continuation with wrong msg id",
			chunks: [][]byte{
				{0xFF, 0x00, 2, 10, 0x00, 'a'},
				{11, 1, 'b'},
			},
			wantErr: ErrChunkIDMismatch,
		},
		{
			name: "payload cut at first zero byte",
			chunks: [][]byte{
				{0xFF, 0x00, 1, 10, 0x00, 'h', 'i', 0x00, 0xFF, 'j', 'u', 'n', 'k'},
			},
			want: []byte("hi"),
		},
		{
			name: "two chunk message",
			chunks: [][]byte{
				{0xFF, 0x00, 2, 10, 0x00, 'h', 'e'},
				{10, 1, 'l', 'l', 'o', 0x00, 0xFF},
			},
			want: []byte("hello"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinChunks(tt.chunks)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("JoinChunks() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("JoinChunks() error = %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("JoinChunks() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeclaredTotal(t *testing.T) {
	tests := []struct {
		name   string
		packet []byte
		want   int
	}{
		{"header with total 3", []byte{0xFF, 0x00, 3, 10, 0x00, 'a'}, 3},
		{"continuation packet", []byte{10, 1, 'a'}, 0},
		{"truncated packet", []byte{0xFF, 0x00}, 0},
		{"empty packet", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeclaredTotal(tt.packet); got != tt.want {
				t.Errorf("DeclaredTotal() = %d, want %d", got, tt.want)
			}
		})
	}
}
