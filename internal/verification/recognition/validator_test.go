package recognition

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kyc/internal/customer/models"
)

type fakeVision struct {
	labels    []string
	texts     []string
	labelsErr error
	textsErr  error

	// similarity keyed by source storage key.
	similarity map[string]float64
	compareErr error

	compareCalls []string
}

func (f *fakeVision) DetectLabels(ctx context.Context, key string) ([]string, error) {
	return f.labels, f.labelsErr
}

func (f *fakeVision) DetectText(ctx context.Context, key string) ([]string, error) {
	return f.texts, f.textsErr
}

func (f *fakeVision) CompareFaces(ctx context.Context, sourceKey, targetKey string) (float64, error) {
	f.compareCalls = append(f.compareCalls, sourceKey)
	if f.compareErr != nil {
		return 0, f.compareErr
	}
	return f.similarity[sourceKey], nil
}

func customerWithImages(types ...models.DocumentType) *models.Customer {
	c := &models.Customer{
		ID:                     "CUST-001",
		OrganisationID:         "ORG-001",
		FirstName:              "Thandi",
		LastName:               "Mokoena",
		DateOfBirth:            "1995-01-01",
		IdentityDocumentNumber: "9501010001086",
	}
	for _, t := range types {
		c.PutDocument(models.Document{
			DocumentType:   t,
			DocumentStatus: models.DocumentUploaded,
			StorageKey:     models.StorageKey(c.OrganisationID, c.ID, t, "jpg"),
		})
	}
	return c
}

func passingVision(c *models.Customer) *fakeVision {
	return &fakeVision{
		labels: []string{"Document", "Id Cards", "Text"},
		texts:  []string{"REPUBLIC OF SOUTH AFRICA", "I.D. No. 950101 0001 086", "THANDI", "MOKOENA", "1995-01-01"},
		similarity: map[string]float64{
			models.StorageKey(c.OrganisationID, c.ID, models.DocSelfie, "jpg"):          99.1,
			models.StorageKey(c.OrganisationID, c.ID, models.DocLiveness, "jpg"):        98.4,
			models.StorageKey(c.OrganisationID, c.ID, models.DocGovernmentPhoto, "jpg"): 97.0,
		},
	}
}

func resultByName(t *testing.T, results []models.VerificationResult, name string) models.VerificationResult {
	t.Helper()
	for _, r := range results {
		if r.VerificationName == name {
			return r
		}
	}
	t.Fatalf("no result named %q", name)
	return models.VerificationResult{}
}

func TestMissingImagesShortCircuit(t *testing.T) {
	vision := &fakeVision{}
	c := customerWithImages(models.DocNationalID)

	out, err := New(vision, nil).Validate(context.Background(), c)

	require.NoError(t, err)
	require.Len(t, out.Results, 3, "presence results only, no remote calls")
	assert.True(t, resultByName(t, out.Results, "National ID document uploaded").Passed)

	selfie := resultByName(t, out.Results, "Selfie image uploaded")
	assert.False(t, selfie.Passed)
	assert.Equal(t, "Please upload an image of your face.", selfie.Details)

	liveness := resultByName(t, out.Results, "Liveness reference image uploaded")
	assert.False(t, liveness.Passed)
	assert.Empty(t, vision.compareCalls)
}

func TestAllChecksPassWithGovernmentPhoto(t *testing.T) {
	c := customerWithImages(models.DocNationalID, models.DocSelfie, models.DocLiveness, models.DocGovernmentPhoto)
	vision := passingVision(c)

	out, err := New(vision, nil).Validate(context.Background(), c)

	require.NoError(t, err)
	require.Len(t, out.Results, 11)
	for _, r := range out.Results {
		assert.True(t, r.Passed, r.VerificationName)
		assert.False(t, r.Warning, r.VerificationName)
	}
	assert.Len(t, vision.compareCalls, 3)
}

func TestIDNumberAcceptsLabeledAndBareForms(t *testing.T) {
	c := customerWithImages(models.DocNationalID, models.DocSelfie, models.DocLiveness)
	for _, text := range []string{"I.D. No. 9501010001086", "950101 0001 08 6"} {
		vision := passingVision(c)
		vision.texts = []string{text}

		out, err := New(vision, nil).Validate(context.Background(), c)

		require.NoError(t, err)
		assert.True(t, resultByName(t, out.Results, "ID number recognised in ID document").Passed, text)
	}
}

func TestDateOfBirthAcceptsPrintedForm(t *testing.T) {
	c := customerWithImages(models.DocNationalID, models.DocSelfie, models.DocLiveness)
	vision := passingVision(c)
	vision.texts = []string{"01 JAN 1995"}

	out, err := New(vision, nil).Validate(context.Background(), c)

	require.NoError(t, err)
	assert.True(t, resultByName(t, out.Results, "Date of birth recognised in ID document").Passed)
}

func TestUnrecognisedTextFails(t *testing.T) {
	c := customerWithImages(models.DocNationalID, models.DocSelfie, models.DocLiveness)
	vision := passingVision(c)
	vision.labels = []string{"Document"}
	vision.texts = []string{"SOMETHING ELSE"}

	out, err := New(vision, nil).Validate(context.Background(), c)

	require.NoError(t, err)
	for _, name := range []string{
		"Image recognised as ID document",
		"ID number recognised in ID document",
		"First name(s) recognised in ID document",
		"Last name recognised in ID document",
		"Date of birth recognised in ID document",
	} {
		r := resultByName(t, out.Results, name)
		assert.False(t, r.Passed, name)
		assert.False(t, r.Warning, name)
	}
}

func TestLikenessBelowThresholdFails(t *testing.T) {
	c := customerWithImages(models.DocNationalID, models.DocSelfie, models.DocLiveness)
	vision := passingVision(c)
	vision.similarity[models.StorageKey(c.OrganisationID, c.ID, models.DocSelfie, "jpg")] = 93.9

	out, err := New(vision, nil).Validate(context.Background(), c)

	require.NoError(t, err)
	r := resultByName(t, out.Results, "NATIONAL_ID photo matches SELFIE")
	assert.False(t, r.Passed)
	assert.Contains(t, r.Details, "does not sufficiently match")
	assert.Contains(t, r.Details, "93.90")
}

func TestNoFaceMatchesCountsAsZeroSimilarity(t *testing.T) {
	c := customerWithImages(models.DocNationalID, models.DocSelfie, models.DocLiveness)
	vision := passingVision(c)
	delete(vision.similarity, models.StorageKey(c.OrganisationID, c.ID, models.DocLiveness, "jpg"))

	out, err := New(vision, nil).Validate(context.Background(), c)

	require.NoError(t, err)
	r := resultByName(t, out.Results, "NATIONAL_ID photo matches LIVENESS")
	assert.False(t, r.Passed)
	assert.Contains(t, r.Details, "0.00")
}

func TestMissingGovernmentPhotoDegradesToWarning(t *testing.T) {
	c := customerWithImages(models.DocNationalID, models.DocSelfie, models.DocLiveness)
	vision := passingVision(c)

	out, err := New(vision, nil).Validate(context.Background(), c)

	require.NoError(t, err)
	r := resultByName(t, out.Results, "NATIONAL_ID photo matches GOVERNMENT_ID_PHOTO")
	assert.True(t, r.Passed)
	assert.True(t, r.Warning)
	assert.Equal(t, "GOVERNMENT_ID_PHOTO not found.", r.Details)
	assert.Len(t, vision.compareCalls, 2, "no comparison attempted without the photo")
}

func TestProviderFailureCollapsesToFallback(t *testing.T) {
	c := customerWithImages(models.DocNationalID, models.DocSelfie, models.DocLiveness)
	cases := map[string]*fakeVision{
		"labels fail":  {labelsErr: errors.New("throttled")},
		"text fails":   {labels: []string{"Id Cards"}, textsErr: errors.New("throttled")},
		"compare fails": {
			labels:     []string{"Id Cards"},
			texts:      []string{"THANDI"},
			compareErr: errors.New("no face detected"),
		},
	}
	for name, vision := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := New(vision, nil).Validate(context.Background(), c)

			require.NoError(t, err)
			require.Len(t, out.Results, 4, "three presence results plus one fallback")
			fallback := out.Results[3]
			assert.Equal(t, "Recognition verification process successful", fallback.VerificationName)
			assert.False(t, fallback.Passed)
			assert.True(t, fallback.Warning)
			assert.Equal(t, fallbackDetails, fallback.Details)
		})
	}
}

func TestResultNamesUseDocumentTypeVocabulary(t *testing.T) {
	c := customerWithImages(models.DocNationalID, models.DocSelfie, models.DocLiveness, models.DocGovernmentPhoto)

	out, err := New(passingVision(c), nil).Validate(context.Background(), c)

	require.NoError(t, err)
	for _, against := range []models.DocumentType{models.DocSelfie, models.DocLiveness, models.DocGovernmentPhoto} {
		resultByName(t, out.Results, fmt.Sprintf("NATIONAL_ID photo matches %s", against))
	}
}
