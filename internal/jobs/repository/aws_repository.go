package repository

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/framefarm/framefarm/internal/jobs"
)

type awsRepo struct {
	s3Client *s3.Client
	bucket   string
}

// NewAwsResultsRepo stores accepted result files in S3, one object per
// job/task pair.
func NewAwsResultsRepo(s3Client *s3.Client, bucket string) jobs.ResultsRepository {
	return &awsRepo{
		s3Client: s3Client,
		bucket:   bucket,
	}
}

func (a *awsRepo) SaveResult(ctx context.Context, jobID, taskID string, body io.Reader) (string, error) {
	if !resultIDPathSafe(jobID) || !resultIDPathSafe(taskID) {
		return "", fmt.Errorf("results.SaveResult: unsafe id %q/%q", jobID, taskID)
	}
	key := fmt.Sprintf("results/%s/%s", jobID, taskID)
	_, err := a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &a.bucket,
		Key:    &key,
		Body:   body,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload result: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
