package protocol

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestEnvelopeMarshal(t *testing.T) {
	tests := []struct {
		name     string
		envelope Envelope
		verify   func(t *testing.T, decoded map[string]any, raw string)
	}{
		{
			name: "pairing request omits dev_id, opts and pars",
			envelope: Envelope{
				Session: 1234567,
				ID:      7654321,
				Type:    EnvelopeTypeRequest,
				Token:   "abc",
				Salt:    "12345677654321",
				Body: Body{
					Meta: Meta{EvtType: EvtTypePairing, DevType: 1, EvtVer: 1, EvtTs: 1700000000000},
				},
			},
			verify: func(t *testing.T, decoded map[string]any, raw string) {
				body := decoded["body"].(map[string]any)
				meta := body["meta"].(map[string]any)
				if _, present := meta["dev_id"]; present {
					t.Error("pairing request must not carry dev_id")
				}
				if _, present := body["opts"]; present {
					t.Error("request without ctrl must not carry opts")
				}
				if _, present := body["pars"]; present {
					t.Error("request without parameters must not carry pars")
				}
				if strings.Contains(raw, "null") {
					t.Errorf("envelope contains explicit null: %s", raw)
				}
			},
		},
		{
			name: "query request carries ctrl and pars",
			envelope: Envelope{
				Session: 1234567,
				ID:      7654321,
				Type:    EnvelopeTypeRequest,
				Token:   "abc",
				Salt:    "12345677654321",
				Body: Body{
					Meta: Meta{EvtType: EvtTypeRequest, DevID: "dev-1", DevType: 1, EvtVer: 1, EvtTs: 1700000000000},
					Opts: map[string]int{"ctrl": CtrlQuery},
					Pars: map[string]any{"evt_type": QueryStatus},
				},
			},
			verify: func(t *testing.T, decoded map[string]any, raw string) {
				body := decoded["body"].(map[string]any)
				meta := body["meta"].(map[string]any)
				if meta["dev_id"] != "dev-1" {
					t.Errorf("dev_id = %v, want dev-1", meta["dev_id"])
				}
				opts := body["opts"].(map[string]any)
				if opts["ctrl"] != float64(CtrlQuery) {
					t.Errorf("ctrl = %v, want %d", opts["ctrl"], CtrlQuery)
				}
				pars := body["pars"].(map[string]any)
				if pars["evt_type"] != float64(QueryStatus) {
					t.Errorf("pars.evt_type = %v, want %d", pars["evt_type"], QueryStatus)
				}
			},
		},
		{
			name: "top level wire keys",
			envelope: Envelope{
				Session: 11,
				ID:      22,
				Type:    EnvelopeTypeRequest,
				Token:   "tok",
				Salt:    "1122",
				Body: Body{
					Meta: Meta{EvtType: EvtTypeRequest, DevID: "d", DevType: 1, EvtVer: 1, EvtTs: 1},
				},
			},
			verify: func(t *testing.T, decoded map[string]any, raw string) {
				for _, key := range []string{"session", "id", "type", "token", "salt", "body"} {
					if _, present := decoded[key]; !present {
						t.Errorf("envelope missing wire key %q", key)
					}
				}
				meta := decoded["body"].(map[string]any)["meta"].(map[string]any)
				for _, key := range []string{"evt_type", "dev_id", "dev_type", "evt_ver", "evt_ts"} {
					if _, present := meta[key]; !present {
						t.Errorf("meta missing wire key %q", key)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.envelope.Marshal()
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			var decoded map[string]any
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("marshaled envelope is not valid json: %v", err)
			}
			tt.verify(t, decoded, string(data))
		})
	}
}

func TestNewMeta(t *testing.T) {
	meta := newMeta(EvtTypeRequest, "dev-9", 1)
	if meta.EvtType != EvtTypeRequest {
		t.Errorf("EvtType = %d, want %d", meta.EvtType, EvtTypeRequest)
	}
	if meta.DevID != "dev-9" {
		t.Errorf("DevID = %q, want dev-9", meta.DevID)
	}
	if meta.EvtVer != 1 {
		t.Errorf("EvtVer = %d, want 1", meta.EvtVer)
	}
	if meta.EvtTs == 0 {
		t.Error("EvtTs must be stamped with the current time")
	}
}
