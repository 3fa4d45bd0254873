package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// SpacesSource reads bucket files from a DigitalOcean Spaces (S3-compatible)
// bucket laid out as {root}/{gen}/{rarity}.json.
type SpacesSource struct {
	client   *s3.Client
	bucket   string
	region   string
	dataRoot string
}

func NewSpacesSource(key, secret, region, bucket, dataRoot string) (*SpacesSource, error) {
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL: fmt.Sprintf("https://%s.digitaloceanspaces.com", region),
		}, nil
	})

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithEndpointResolverWithOptions(resolver),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(key, secret, "")),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to load spaces config: %w", err)
	}

	return &SpacesSource{
		client:   s3.NewFromConfig(cfg),
		bucket:   bucket,
		region:   region,
		dataRoot: strings.Trim(dataRoot, "/"),
	}, nil
}

func (s *SpacesSource) Bucket(ctx context.Context, genID string, rarity Rarity) ([]Card, error) {
	key := fmt.Sprintf("%s/%s/%s.json", s.dataRoot, genID, rarity)

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch bucket object %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read bucket object %s: %w", key, err)
	}

	return decodeBucket(body, genID, rarity)
}

func (s *SpacesSource) GetBucket() string {
	return s.bucket
}

func (s *SpacesSource) GetRegion() string {
	return s.region
}
