package common

import "encoding/json"

// MarshalJSON renders the hash as its hex string.
func (h Hash) MarshalJSON() ([]byte, error) { return json.Marshal(h.Hex()) }

// UnmarshalJSON parses a hex string into the hash.
func (h *Hash) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = HexToHash(s)
	return nil
}

// MarshalJSON renders the address as its hex string.
func (a Address) MarshalJSON() ([]byte, error) { return json.Marshal(a.Hex()) }

// UnmarshalJSON parses a hex string into the address.
func (a *Address) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*a = HexToAddress(s)
	return nil
}
