package qiwi

import "time"

// BillPayload is the wire shape of a bill resource as the payment API
// returns it. All date-times are ISO-8601 strings with explicit offsets.
type BillPayload struct {
	SiteID             string               `json:"siteId"`
	BillID             string               `json:"billId"`
	Amount             AmountPayload        `json:"amount"`
	Status             StatusPayload        `json:"status"`
	Customer           Customer             `json:"customer"`
	CustomFields       *CustomFieldsPayload `json:"customFields,omitempty"`
	Comment            string               `json:"comment"`
	CreationDateTime   string               `json:"creationDateTime"`
	ExpirationDateTime string               `json:"expirationDateTime"`
	PayURL             string               `json:"payUrl"`
}

// AmountPayload is the wire shape of a monetary value.
type AmountPayload struct {
	Value    string   `json:"value"`
	Currency Currency `json:"currency"`
}

// StatusPayload is the wire shape of a bill status.
type StatusPayload struct {
	Value           StatusValue `json:"value"`
	ChangedDateTime string      `json:"changedDateTime"`
}

// Customer identifies the payer. Every field is optional.
type Customer struct {
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Account string `json:"account,omitempty"`
}

// CustomFieldsPayload is the wire shape of the optional bill metadata.
// The pay-sources filter travels as a comma-joined string. Pointer fields
// distinguish an absent value from a present empty one.
type CustomFieldsPayload struct {
	PaySourcesFilter *string `json:"paySourcesFilter,omitempty"`
	ThemeCode        *string `json:"themeCode,omitempty"`
}

type createBillRequest struct {
	Amount             AmountPayload        `json:"amount"`
	ExpirationDateTime string               `json:"expirationDateTime"`
	Customer           *Customer            `json:"customer,omitempty"`
	Comment            string               `json:"comment,omitempty"`
	CustomFields       *CustomFieldsPayload `json:"customFields,omitempty"`
}

const timestampLayout = "2006-01-02T15:04:05-07:00"

// parseTimestamp is tolerant: a malformed date-time yields the zero time
// rather than failing the whole payload.
func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
