package liveness

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"

	"kyc/pkg/kycerrors"
)

// SessionResult is the provider's verdict on one completed liveness session.
type SessionResult struct {
	Status         string
	Confidence     float64
	ReferenceImage []byte
}

// Provider opens liveness sessions and reports their outcomes.
type Provider interface {
	CreateSession(ctx context.Context, clientToken string) (sessionID string, err error)
	SessionResult(ctx context.Context, sessionID string) (SessionResult, error)
}

// RekognitionProvider runs face liveness sessions on AWS Rekognition.
type RekognitionProvider struct {
	api rekognitioniface.RekognitionAPI
}

func NewRekognitionProvider(api rekognitioniface.RekognitionAPI) *RekognitionProvider {
	return &RekognitionProvider{api: api}
}

func (p *RekognitionProvider) CreateSession(ctx context.Context, clientToken string) (string, error) {
	out, err := p.api.CreateFaceLivenessSessionWithContext(ctx, &rekognition.CreateFaceLivenessSessionInput{
		ClientRequestToken: aws.String(clientToken),
		Settings: &rekognition.CreateFaceLivenessSessionRequestSettings{
			AuditImagesLimit: aws.Int64(1),
		},
	})
	if err != nil {
		return "", kycerrors.Wrap(err, kycerrors.CodeInternal, "could not create liveness session")
	}
	return aws.StringValue(out.SessionId), nil
}

func (p *RekognitionProvider) SessionResult(ctx context.Context, sessionID string) (SessionResult, error) {
	out, err := p.api.GetFaceLivenessSessionResultsWithContext(ctx, &rekognition.GetFaceLivenessSessionResultsInput{
		SessionId: aws.String(sessionID),
	})
	if err != nil {
		return SessionResult{}, kycerrors.Wrap(err, kycerrors.CodeInternal, "could not fetch liveness session results")
	}
	result := SessionResult{
		Status:     aws.StringValue(out.Status),
		Confidence: aws.Float64Value(out.Confidence),
	}
	if out.ReferenceImage != nil {
		result.ReferenceImage = out.ReferenceImage.Bytes
	}
	return result, nil
}
