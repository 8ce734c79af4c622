package paystack

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"strings"
)

// SignatureHeader carries the hex HMAC-SHA512 of the raw request body.
const SignatureHeader = "x-paystack-signature"

// EventChargeSuccess is the only event that moves money into the ledger.
const EventChargeSuccess = "charge.success"

// Sign computes the signature Paystack attaches to a webhook body.
func Sign(secretKey string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether signature matches body under secretKey.
// The comparison is constant time over the decoded digest.
func VerifySignature(secretKey string, body []byte, signature string) bool {
	if secretKey == "" || signature == "" {
		return false
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), got)
}

// Event is a webhook delivery.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ChargeData is the payload of a charge.success event.
type ChargeData struct {
	Reference string   `json:"reference"`
	Status    string   `json:"status"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency"`
	Metadata  Metadata `json:"metadata"`
}

// ParseEvent decodes a verified webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// Charge decodes the event data as a charge.
func (e *Event) Charge() (*ChargeData, error) {
	var charge ChargeData
	if len(e.Data) == 0 {
		return &charge, nil
	}
	if err := json.Unmarshal(e.Data, &charge); err != nil {
		return nil, err
	}
	return &charge, nil
}

// UnmarshalJSON accepts metadata as an object, as a JSON-encoded string or as
// an empty string, and coin quantities as numbers or numeric strings.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*m = Metadata{}
			return nil
		}
		data = []byte(s)
	}
	if string(data) == "null" {
		*m = Metadata{}
		return nil
	}

	var raw struct {
		UserID            string        `json:"user_id"`
		PackageID         string        `json:"package_id"`
		CoinsToBeCredited json.Number   `json:"coins_to_be_credited"`
		CustomFields      []CustomField `json:"custom_fields"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metadata{
		UserID:       raw.UserID,
		PackageID:    raw.PackageID,
		CustomFields: raw.CustomFields,
	}
	if raw.CoinsToBeCredited != "" {
		coins, err := raw.CoinsToBeCredited.Int64()
		if err != nil {
			return err
		}
		m.CoinsToBeCredited = coins
	}
	return nil
}
