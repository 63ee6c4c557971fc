// Package recognition implements the document and facial image checks: the
// uploaded national ID must classify as an identity document, carry the
// customer's captured details as machine-readable text, and its photo must
// match the selfie, the liveness reference image, and the government-sourced
// photo when one exists.
package recognition

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/rekognition"
	"github.com/aws/aws-sdk-go/service/rekognition/rekognitioniface"
)

// VisionClient is the remote vision capability. Keys refer to objects in the
// shared document bucket. CompareFaces returns the highest similarity found,
// or 0 when no face matches at all.
type VisionClient interface {
	DetectLabels(ctx context.Context, key string) ([]string, error)
	DetectText(ctx context.Context, key string) ([]string, error)
	CompareFaces(ctx context.Context, sourceKey, targetKey string) (float64, error)
}

const (
	maxLabels          = 5
	minLabelConfidence = 90
)

// RekognitionClient is the production VisionClient on AWS Rekognition.
type RekognitionClient struct {
	api    rekognitioniface.RekognitionAPI
	bucket string
}

func NewRekognitionClient(sess *session.Session, bucket string) *RekognitionClient {
	return &RekognitionClient{api: rekognition.New(sess), bucket: bucket}
}

// NewRekognitionClientWithAPI is used by tests to inject a stub API.
func NewRekognitionClientWithAPI(api rekognitioniface.RekognitionAPI, bucket string) *RekognitionClient {
	return &RekognitionClient{api: api, bucket: bucket}
}

func (c *RekognitionClient) s3Object(key string) *rekognition.Image {
	return &rekognition.Image{
		S3Object: &rekognition.S3Object{
			Bucket: aws.String(c.bucket),
			Name:   aws.String(key),
		},
	}
}

func (c *RekognitionClient) DetectLabels(ctx context.Context, key string) ([]string, error) {
	out, err := c.api.DetectLabelsWithContext(ctx, &rekognition.DetectLabelsInput{
		Image:         c.s3Object(key),
		MaxLabels:     aws.Int64(maxLabels),
		MinConfidence: aws.Float64(minLabelConfidence),
	})
	if err != nil {
		return nil, fmt.Errorf("detect labels: %w", err)
	}
	labels := make([]string, 0, len(out.Labels))
	for _, l := range out.Labels {
		labels = append(labels, aws.StringValue(l.Name))
	}
	return labels, nil
}

func (c *RekognitionClient) DetectText(ctx context.Context, key string) ([]string, error) {
	out, err := c.api.DetectTextWithContext(ctx, &rekognition.DetectTextInput{
		Image: c.s3Object(key),
	})
	if err != nil {
		return nil, fmt.Errorf("detect text: %w", err)
	}
	texts := make([]string, 0, len(out.TextDetections))
	for _, t := range out.TextDetections {
		texts = append(texts, aws.StringValue(t.DetectedText))
	}
	return texts, nil
}

func (c *RekognitionClient) CompareFaces(ctx context.Context, sourceKey, targetKey string) (float64, error) {
	out, err := c.api.CompareFacesWithContext(ctx, &rekognition.CompareFacesInput{
		SourceImage:         c.s3Object(sourceKey),
		TargetImage:         c.s3Object(targetKey),
		SimilarityThreshold: aws.Float64(0),
	})
	if err != nil {
		return 0, fmt.Errorf("compare faces: %w", err)
	}
	best := float64(0)
	for _, m := range out.FaceMatches {
		if s := aws.Float64Value(m.Similarity); s > best {
			best = s
		}
	}
	return best, nil
}
