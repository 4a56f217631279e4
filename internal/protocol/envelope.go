package protocol

import "encoding/json"

// Envelope is the one wire-level unit: `{"t":..,"id":..,"ts":..,"d":..}`.
// D is left as raw JSON so the router can dispatch on T before
// unmarshaling into the concrete payload type.
type Envelope struct {
	T  PacketType      `json:"t"`
	ID string          `json:"id"`
	TS int64           `json:"ts"`
	D  json.RawMessage `json:"d,omitempty"`
}

// NewEnvelope marshals payload into D and stamps ts with nowMillis.
func NewEnvelope(t PacketType, id string, nowMillis int64, payload any) (Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, err
		}
		raw = b
	}
	return Envelope{T: t, ID: id, TS: nowMillis, D: raw}, nil
}

// Decode unmarshals e.D into out.
func (e Envelope) Decode(out any) error {
	if len(e.D) == 0 {
		return nil
	}
	return json.Unmarshal(e.D, out)
}
