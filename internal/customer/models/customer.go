package models

import (
	"fmt"
	"strings"
	"time"
)

// VerificationResult is the immutable outcome of a single automated check.
//
// Invariants:
//   - A provider/system error during a check still yields a result with
//     Passed=false, Warning=true; a run never aborts on a provider failure.
//   - DateCreated is the evaluation time, not the persistence time.
type VerificationResult struct {
	VerificationName string    `json:"verificationName"`
	Passed           bool      `json:"passed"`
	Warning          bool      `json:"warning"`
	Details          string    `json:"details,omitempty"`
	DateCreated      time.Time `json:"dateCreated"`
}

// Document is one verification artifact slot on a customer.
//
// The storage key is fully determined by (organisationId, customerId,
// documentType): re-uploads of the same type overwrite the same key.
type Document struct {
	DocumentType     DocumentType   `json:"documentType"`
	DocumentStatus   DocumentStatus `json:"documentStatus"`
	FileExtension    string         `json:"fileExtension,omitempty"`
	OriginalFileName string         `json:"originalFileName,omitempty"`
	StorageKey       string         `json:"storageKey,omitempty"`
	DateUploaded     time.Time      `json:"dateUploaded,omitzero"`
}

// StorageKey derives the deterministic blob key for a document.
func StorageKey(organisationID, customerID string, docType DocumentType, ext string) string {
	if ext == "" {
		ext = "unk"
	}
	typePart := strings.ReplaceAll(strings.ToUpper(string(docType)), " ", "")
	return fmt.Sprintf("%s_%s_%s.%s", organisationID, customerID, typePart, ext)
}

// Customer is the aggregate root for one KYC application.
//
// Invariants:
//   - At most one document per DocumentType.
//   - Progress is derived, never caller-set, and always in [0,100].
//   - CustomerStatus and CustomerStatusReason change together.
//   - Verified=true via the automatic path implies progress==100 with zero
//     warnings and failures at the moment of transition.
type Customer struct {
	ID             string `json:"id"`
	OrganisationID string `json:"organisationId"`

	FirstName   string `json:"firstName"`
	MiddleNames string `json:"middleNames,omitempty"`
	LastName    string `json:"lastName"`
	Gender      Gender `json:"gender"`
	// DateOfBirth is kept in YYYY-MM-DD form; validators compare against it
	// after normalising to the same format.
	DateOfBirth    string  `json:"dateOfBirth"`
	CountryOfBirth Country `json:"countryOfBirth"`

	IdentityDocumentNumber  string         `json:"identityDocumentNumber"`
	IdentityDocumentType    IDDocumentType `json:"identityDocumentType"`
	IdentityDocumentCountry Country        `json:"identityDocumentCountry"`

	Email     string `json:"email,omitempty"`
	CellPhone string `json:"cellPhone,omitempty"`
	HomePhone string `json:"homePhone,omitempty"`
	WorkPhone string `json:"workPhone,omitempty"`

	PhysicalAddressLine1   string `json:"physicalAddressLine1,omitempty"`
	PhysicalAddressLine2   string `json:"physicalAddressLine2,omitempty"`
	PhysicalAddressLine3   string `json:"physicalAddressLine3,omitempty"`
	PhysicalAddressCity    string `json:"physicalAddressCity,omitempty"`
	PhysicalAddressRegion  string `json:"physicalAddressRegion,omitempty"`
	PhysicalAddressCountry string `json:"physicalAddressCountry,omitempty"`
	PhysicalAddressCode    string `json:"physicalAddressCode,omitempty"`
	PostalAddressLine1     string `json:"postalAddressLine1,omitempty"`
	PostalAddressLine2     string `json:"postalAddressLine2,omitempty"`
	PostalAddressLine3     string `json:"postalAddressLine3,omitempty"`
	PostalAddressCity      string `json:"postalAddressCity,omitempty"`
	PostalAddressRegion    string `json:"postalAddressRegion,omitempty"`
	PostalAddressCountry   string `json:"postalAddressCountry,omitempty"`
	PostalAddressCode      string `json:"postalAddressCode,omitempty"`

	Documents           []Document           `json:"documents"`
	VerificationResults []VerificationResult `json:"verificationResults"`
	Progress            int                  `json:"progress"`

	CustomerStatus       CustomerStatus `json:"customerStatus"`
	CustomerStatusReason string         `json:"customerStatusReason"`

	ManualVerificationRequested bool      `json:"manualVerificationRequested"`
	ManuallyVerified            bool      `json:"manuallyVerified"`
	ManuallyVerifiedBy          string    `json:"manuallyVerifiedBy,omitempty"`
	Verified                    bool      `json:"verified"`
	DateVerified                time.Time `json:"dateVerified,omitzero"`

	IsDeleted   bool      `json:"isDeleted,omitempty"`
	DateCreated time.Time `json:"dateCreated"`
	DateUpdated time.Time `json:"dateUpdated"`
}

// NewCustomer constructs a customer in its initial state: status NEW,
// progress 0, empty results, and one MISSING document slot per required type.
func NewCustomer(id, organisationID string, requiredDocs []DocumentType, now time.Time) *Customer {
	c := &Customer{
		ID:                   id,
		OrganisationID:       organisationID,
		Documents:            []Document{},
		VerificationResults:  []VerificationResult{},
		CustomerStatus:       StatusNew,
		CustomerStatusReason: "New KYC request received.",
		DateCreated:          now,
		DateUpdated:          now,
	}
	for _, dt := range requiredDocs {
		c.Documents = append(c.Documents, Document{
			DocumentType:   dt,
			DocumentStatus: DocumentMissing,
		})
	}
	return c
}

// DocumentOfType returns the document entry for the given type, or nil.
func (c *Customer) DocumentOfType(t DocumentType) *Document {
	for i := range c.Documents {
		if c.Documents[i].DocumentType == t {
			return &c.Documents[i]
		}
	}
	return nil
}

// PutDocument inserts or replaces the entry for doc's type, preserving the
// at-most-one-per-type invariant. Replacement overwrites every field.
func (c *Customer) PutDocument(doc Document) {
	for i := range c.Documents {
		if c.Documents[i].DocumentType == doc.DocumentType {
			c.Documents[i] = doc
			return
		}
	}
	c.Documents = append(c.Documents, doc)
}

// MissingDocumentTypes lists the types of documents not yet uploaded.
func (c *Customer) MissingDocumentTypes() []DocumentType {
	var missing []DocumentType
	for _, d := range c.Documents {
		if d.DocumentStatus != DocumentUploaded {
			missing = append(missing, d.DocumentType)
		}
	}
	return missing
}

// SetStatus updates status and reason together.
func (c *Customer) SetStatus(status CustomerStatus, reason string) {
	c.CustomerStatus = status
	c.CustomerStatusReason = reason
}

// SearchName builds the sanctions screening name from first, middle, and last
// names with repeated whitespace collapsed.
func (c *Customer) SearchName() string {
	full := fmt.Sprintf("%s %s %s", c.FirstName, c.MiddleNames, c.LastName)
	return strings.Join(strings.Fields(full), " ")
}

// Clone returns a deep copy, used for pre-change audit snapshots.
func (c *Customer) Clone() *Customer {
	dup := *c
	dup.Documents = append([]Document(nil), c.Documents...)
	dup.VerificationResults = append([]VerificationResult(nil), c.VerificationResults...)
	return &dup
}
