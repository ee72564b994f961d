package api

import "github.com/starford/callerid/internal/contact"

// CreateContactRequest is the request body for adding a contact.
type CreateContactRequest struct {
	Name  string `json:"name" example:"Budi"`
	Phone string `json:"phone" example:"+62 812-3456-7890"`
	Notes string `json:"notes,omitempty" example:"kantor"`
}

// ContactListResponse wraps the contact listing.
type ContactListResponse struct {
	Contacts []contact.Contact `json:"contacts"`
	Total    int               `json:"total" example:"2"`
}

// LookupResponse is the display resolution for one number.
type LookupResponse struct {
	Number      string           `json:"number" example:"+6281234567890"`
	Key         string           `json:"key" example:"081234567890"`
	DisplayName string           `json:"display_name" example:"Budi"`
	Contact     *contact.Contact `json:"contact"`
}

// SMSEventRequest is an SMS-received event from the host.
//
// For format "3gpp" (the default) PDUs holds base64-encoded SMS-DELIVER
// PDUs; for format "text" Parts holds already-decoded body parts.
type SMSEventRequest struct {
	Format             string   `json:"format" example:"3gpp"`
	PDUs               [][]byte `json:"pdus,omitempty"`
	Parts              []string `json:"parts,omitempty"`
	OriginatingAddress string   `json:"originating_address,omitempty" example:"+6281234567890"`
}

// CallEventRequest is a call-state-changed event from the host.
type CallEventRequest struct {
	State          string  `json:"state" example:"ringing"`
	IncomingNumber *string `json:"incoming_number,omitempty" example:"0299999999"`
}

// AcceptedResponse is returned once an event is queued.
type AcceptedResponse struct {
	Status string `json:"status" example:"accepted"`
}
