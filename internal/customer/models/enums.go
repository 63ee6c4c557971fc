package models

// CustomerStatus is the lifecycle state of a KYC application. Status and
// StatusReason are always updated together.
type CustomerStatus string

const (
	StatusNew         CustomerStatus = "NEW"
	StatusInProgress  CustomerStatus = "IN_PROGRESS"
	StatusVerified    CustomerStatus = "VERIFIED"
	StatusNotVerified CustomerStatus = "NOT_VERIFIED"
	StatusFailed      CustomerStatus = "FAILED"
	StatusRejected    CustomerStatus = "REJECTED"
)

// DocumentType identifies one verification artifact slot. A customer holds at
// most one document per type.
type DocumentType string

const (
	DocNationalID       DocumentType = "NATIONAL_ID"
	DocSelfie           DocumentType = "SELFIE"
	DocLiveness         DocumentType = "LIVENESS"
	DocGovernmentPhoto  DocumentType = "GOVERNMENT_ID_PHOTO"
	DocPassport         DocumentType = "PASSPORT"
	DocProofOfResidence DocumentType = "PROOF_OF_RESIDENCE"
)

// KnownDocumentType reports whether t is part of the document catalog.
func KnownDocumentType(t DocumentType) bool {
	switch t {
	case DocNationalID, DocSelfie, DocLiveness, DocGovernmentPhoto, DocPassport, DocProofOfResidence:
		return true
	}
	return false
}

// DocumentStatus tracks whether a required document slot has been filled.
type DocumentStatus string

const (
	DocumentMissing  DocumentStatus = "MISSING"
	DocumentUploaded DocumentStatus = "UPLOADED"
)

// IDDocumentType is the kind of government-issued identity document the
// customer verifies with.
type IDDocumentType string

const (
	IDDocNationalID IDDocumentType = "NATIONAL_ID"
	IDDocPassport   IDDocumentType = "PASSPORT"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

// Country is an ISO 3166-1 alpha-2 code. Only ZA has jurisdiction-specific
// structural and registry checks; other countries fall through to warning
// results.
type Country string

const CountryZA Country = "ZA"
