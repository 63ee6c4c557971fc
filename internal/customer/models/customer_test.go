package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCustomer(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	c := NewCustomer("CUST-001", "ORG-001", []DocumentType{DocNationalID, DocSelfie}, now)

	assert.Equal(t, StatusNew, c.CustomerStatus)
	assert.Equal(t, "New KYC request received.", c.CustomerStatusReason)
	assert.Equal(t, now, c.DateCreated)
	assert.Equal(t, now, c.DateUpdated)
	assert.Empty(t, c.VerificationResults)
	require.Len(t, c.Documents, 2)
	for _, d := range c.Documents {
		assert.Equal(t, DocumentMissing, d.DocumentStatus)
	}
}

func TestStorageKey(t *testing.T) {
	tests := []struct {
		name    string
		docType DocumentType
		ext     string
		want    string
	}{
		{"national id", DocNationalID, "png", "ORG-001_CUST-001_NATIONAL_ID.png"},
		{"government photo", DocGovernmentPhoto, "jpg", "ORG-001_CUST-001_GOVERNMENT_ID_PHOTO.jpg"},
		{"missing extension falls back", DocSelfie, "", "ORG-001_CUST-001_SELFIE.unk"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StorageKey("ORG-001", "CUST-001", tc.docType, tc.ext))
		})
	}
}

func TestPutDocument(t *testing.T) {
	c := NewCustomer("CUST-001", "ORG-001", []DocumentType{DocNationalID}, time.Now())

	c.PutDocument(Document{DocumentType: DocNationalID, DocumentStatus: DocumentUploaded, OriginalFileName: "first.png"})
	c.PutDocument(Document{DocumentType: DocNationalID, DocumentStatus: DocumentUploaded, OriginalFileName: "second.jpg"})

	require.Len(t, c.Documents, 1, "at most one document per type")
	assert.Equal(t, "second.jpg", c.Documents[0].OriginalFileName)

	c.PutDocument(Document{DocumentType: DocGovernmentPhoto, DocumentStatus: DocumentUploaded})
	require.Len(t, c.Documents, 2, "new types append")
}

func TestMissingDocumentTypes(t *testing.T) {
	c := NewCustomer("CUST-001", "ORG-001", []DocumentType{DocNationalID, DocSelfie}, time.Now())

	assert.Equal(t, []DocumentType{DocNationalID, DocSelfie}, c.MissingDocumentTypes())

	c.PutDocument(Document{DocumentType: DocNationalID, DocumentStatus: DocumentUploaded})
	assert.Equal(t, []DocumentType{DocSelfie}, c.MissingDocumentTypes())

	c.PutDocument(Document{DocumentType: DocSelfie, DocumentStatus: DocumentUploaded})
	assert.Empty(t, c.MissingDocumentTypes())
}

func TestSearchName(t *testing.T) {
	tests := []struct {
		name     string
		customer Customer
		want     string
	}{
		{
			"full name",
			Customer{FirstName: "Thandi", MiddleNames: "Naledi", LastName: "Mokoena"},
			"Thandi Naledi Mokoena",
		},
		{
			"no middle names",
			Customer{FirstName: "Thandi", LastName: "Mokoena"},
			"Thandi Mokoena",
		},
		{
			"stray whitespace collapsed",
			Customer{FirstName: " Thandi ", MiddleNames: "  Naledi", LastName: "Mokoena "},
			"Thandi Naledi Mokoena",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.customer.SearchName())
		})
	}
}

func TestClone(t *testing.T) {
	c := NewCustomer("CUST-001", "ORG-001", []DocumentType{DocNationalID}, time.Now())
	c.VerificationResults = []VerificationResult{{VerificationName: "original", Passed: true}}

	dup := c.Clone()
	dup.FirstName = "changed"
	dup.Documents[0].DocumentStatus = DocumentUploaded
	dup.VerificationResults[0].VerificationName = "changed"

	assert.Empty(t, c.FirstName)
	assert.Equal(t, DocumentMissing, c.Documents[0].DocumentStatus)
	assert.Equal(t, "original", c.VerificationResults[0].VerificationName)
}
