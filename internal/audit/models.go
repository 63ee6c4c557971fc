// Package audit records who changed which customer, when, and what fields
// moved. Entries are emitted on a best-effort side channel so the caller's
// response never waits on audit persistence.
package audit

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Action describes what triggered an audit entry.
type Action string

const (
	ActionCustomerCreated  Action = "CUSTOMER_CREATED"
	ActionCustomerUpdated  Action = "CUSTOMER_UPDATED"
	ActionCustomerDeleted  Action = "CUSTOMER_DELETED"
	ActionDocumentUploaded Action = "DOCUMENT_UPLOADED"
	ActionValidation       Action = "VALIDATION"
)

// Change is one field-level difference between the pre- and post-change
// snapshots. Values are stored as their JSON encoding.
type Change struct {
	FieldName      string `json:"fieldName"`
	PreviousValue  string `json:"previousValue"`
	ChangedToValue string `json:"changedToValue"`
}

// Entry is one audit trail record.
type Entry struct {
	ID             string    `json:"id"`
	CustomerID     string    `json:"customerId"`
	OrganisationID string    `json:"organisationId"`
	DateCreated    time.Time `json:"dateCreated"`
	CreatedBy      string    `json:"createdBy"`
	Action         Action    `json:"action"`
	Changes        []Change  `json:"changes"`
}

// NewEntry builds an entry with the field diff between two snapshots. Either
// snapshot may be nil, e.g. creation has no pre-change state.
func NewEntry(customerID, organisationID, createdBy string, action Action, preChange, postChange any, now time.Time) Entry {
	return Entry{
		ID:             uuid.NewString(),
		CustomerID:     customerID,
		OrganisationID: organisationID,
		DateCreated:    now,
		CreatedBy:      createdBy,
		Action:         action,
		Changes:        diffChanges(preChange, postChange),
	}
}

// diffChanges reports, for every top-level field of the post-change snapshot,
// the fields whose encoded value differs from the pre-change snapshot. Fields
// absent before the change diff against the empty string.
func diffChanges(preChange, postChange any) []Change {
	pre := toFieldMap(preChange)
	post := toFieldMap(postChange)

	fields := make([]string, 0, len(post))
	for field := range post {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var changes []Change
	for _, field := range fields {
		previous := ""
		if v, ok := pre[field]; ok {
			previous = v
		}
		if previous != post[field] {
			changes = append(changes, Change{
				FieldName:      field,
				PreviousValue:  previous,
				ChangedToValue: post[field],
			})
		}
	}
	return changes
}

func toFieldMap(snapshot any) map[string]string {
	out := make(map[string]string)
	if snapshot == nil {
		return out
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return out
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return out
	}
	for field, value := range fields {
		out[field] = string(value)
	}
	return out
}
