package stateops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	tferrors "github.com/EPdacoder05/TF2S3-migration/internal/errors"
	"github.com/EPdacoder05/TF2S3-migration/internal/run"
)

// ObjectVerifier checks that a state object landed in the bucket.
type ObjectVerifier interface {
	// StateExists reports whether s3://bucket/key holds an object.
	StateExists(ctx context.Context, bucket, key string) (bool, error)
}

// CLIVerifier verifies through the aws CLI, using whatever credentials the
// configured profile resolves to.
type CLIVerifier struct {
	runner  *run.Runner
	profile string
	region  string
}

// NewCLIVerifier creates a verifier backed by aws s3api head-object.
func NewCLIVerifier(runner *run.Runner, profile, region string) *CLIVerifier {
	return &CLIVerifier{runner: runner, profile: profile, region: region}
}

// StateExists implements ObjectVerifier.
func (v *CLIVerifier) StateExists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := v.runner.Run(ctx, run.Command{
		Argv: []string{
			"aws", "s3api", "head-object",
			"--bucket", bucket,
			"--key", key,
			"--profile", v.profile,
			"--region", v.region,
		},
	})
	if err == nil {
		return true, nil
	}

	// head-object exits non-zero for a missing object, but also for expired
	// credentials or a missing bucket. Only a 404 means the object is absent;
	// everything else must surface so Verify does not misreport an auth
	// problem as missing state.
	var cmdErr *tferrors.CommandError
	if errors.As(err, &cmdErr) && !cmdErr.Timeout() && cmdErr.ExitCode > 0 && headObjectNotFound(cmdErr.Stderr) {
		return false, nil
	}
	return false, fmt.Errorf("failed to verify state object: %w", err)
}

// headObjectNotFound reports whether aws s3api head-object stderr describes a
// missing object, e.g. "An error occurred (404) when calling the HeadObject
// operation: Not Found".
func headObjectNotFound(stderr string) bool {
	return strings.Contains(stderr, "(404)") || strings.Contains(stderr, "Not Found")
}

// S3API is the slice of the S3 client the SDK verifier needs.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// SDKVerifier verifies directly against the S3 API.
type SDKVerifier struct {
	client S3API
}

// NewSDKVerifier creates a verifier around an S3 client.
func NewSDKVerifier(client S3API) *SDKVerifier {
	return &SDKVerifier{client: client}
}

// StateExists implements ObjectVerifier.
func (v *SDKVerifier) StateExists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := v.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head state object: %w", err)
	}
	return true, nil
}

// NewS3Client builds an S3 client from environment credentials. The SDK's
// shared-config loader is deliberately not pulled in; sdk verify mode targets
// CI environments where credentials arrive through the standard variables.
func NewS3Client(region string) S3API {
	return s3.New(s3.Options{
		Region: region,
		Credentials: aws.CredentialsProviderFunc(func(_ context.Context) (aws.Credentials, error) {
			id := os.Getenv("AWS_ACCESS_KEY_ID")
			secret := os.Getenv("AWS_SECRET_ACCESS_KEY")
			if id == "" || secret == "" {
				return aws.Credentials{}, errors.New("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set for sdk verify mode")
			}
			return aws.Credentials{
				AccessKeyID:     id,
				SecretAccessKey: secret,
				SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
				Source:          "environment",
			}, nil
		}),
	})
}

// NewVerifier picks the verifier implementation for mode.
func NewVerifier(mode config.VerifyMode, runner *run.Runner, profile, region string) ObjectVerifier {
	if mode == config.VerifySDK {
		return NewSDKVerifier(NewS3Client(region))
	}
	return NewCLIVerifier(runner, profile, region)
}
