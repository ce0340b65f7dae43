package payments

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
)

// Metadata keys round-tripped through the checkout provider. Every key written
// at session creation comes back verbatim on the completion event and on
// session retrieval.
const (
	metaTicketID       = "ticketId"
	metaEventID        = "eventId"
	metaExternalUserID = "externalUserId"
	metaUserID         = "userId"
	metaTierID         = "tierId"
	metaTierName       = "tierName"
	metaTierPrice      = "tierPrice"
)

// SessionMetadata carries structured registration intent through the opaque
// provider. TicketID references the pending row created before redirect;
// the remaining fields are enough to resynthesize the ticket if that row is
// gone by the time the completion event lands.
type SessionMetadata struct {
	TicketID       uuid.UUID
	EventID        uuid.UUID
	ExternalUserID string
	UserID         uuid.UUID
	TierID         string
	TierName       string
	TierPrice      decimal.Decimal
}

// Encode flattens the metadata into the provider's string map.
func (m SessionMetadata) Encode() map[string]string {
	return map[string]string{
		metaTicketID:       m.TicketID.String(),
		metaEventID:        m.EventID.String(),
		metaExternalUserID: m.ExternalUserID,
		metaUserID:         m.UserID.String(),
		metaTierID:         m.TierID,
		metaTierName:       m.TierName,
		metaTierPrice:      m.TierPrice.String(),
	}
}

// DecodeMetadata strictly validates an inbound metadata map. A missing or
// malformed required key fails the whole event; the caller must never guess a
// ticket id.
func DecodeMetadata(raw map[string]string) (SessionMetadata, error) {
	if raw == nil {
		return SessionMetadata{}, pkgerrors.New(pkgerrors.CodeValidation, "session metadata missing")
	}

	var meta SessionMetadata
	var err error

	if meta.TicketID, err = requiredUUID(raw, metaTicketID); err != nil {
		return SessionMetadata{}, err
	}
	if meta.EventID, err = requiredUUID(raw, metaEventID); err != nil {
		return SessionMetadata{}, err
	}
	if meta.ExternalUserID = raw[metaExternalUserID]; meta.ExternalUserID == "" {
		return SessionMetadata{}, missingKey(metaExternalUserID)
	}
	if meta.TierID = raw[metaTierID]; meta.TierID == "" {
		return SessionMetadata{}, missingKey(metaTierID)
	}
	if meta.TierName = raw[metaTierName]; meta.TierName == "" {
		return SessionMetadata{}, missingKey(metaTierName)
	}

	// Optional keys: internal user id and captured price. Older sessions may
	// not carry them; downstream fills the gaps from the provider's own data.
	if v := raw[metaUserID]; v != "" {
		if meta.UserID, err = uuid.Parse(v); err != nil {
			return SessionMetadata{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "metadata key "+metaUserID+" malformed")
		}
	}
	if v := raw[metaTierPrice]; v != "" {
		if meta.TierPrice, err = decimal.NewFromString(v); err != nil {
			return SessionMetadata{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "metadata key "+metaTierPrice+" malformed")
		}
	}

	return meta, nil
}

// TicketIDFromMetadata extracts just the ticket reference, used by expiration
// events which carry no other business fields worth trusting.
func TicketIDFromMetadata(raw map[string]string) (uuid.UUID, error) {
	if raw == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata missing")
	}
	return requiredUUID(raw, metaTicketID)
}

func requiredUUID(raw map[string]string, key string) (uuid.UUID, error) {
	value := raw[key]
	if value == "" {
		return uuid.Nil, missingKey(key)
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "metadata key "+key+" malformed")
	}
	return id, nil
}

func missingKey(key string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, "metadata key "+key+" missing")
}
