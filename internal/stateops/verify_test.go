package stateops

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
	"github.com/EPdacoder05/TF2S3-migration/internal/logging"
	"github.com/EPdacoder05/TF2S3-migration/internal/run"
)

// fakeS3 serves HeadObject from an in-memory key set.
type fakeS3 struct {
	objects map[string]bool
	err     error
}

func (f *fakeS3) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	key := *params.Bucket + "/" + *params.Key
	if !f.objects[key] {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestSDKVerifierFindsObject(t *testing.T) {
	t.Parallel()

	v := NewSDKVerifier(&fakeS3{objects: map[string]bool{
		"acme-tfstate/infra-networking/terraform.tfstate": true,
	}})

	exists, err := v.StateExists(context.Background(), "acme-tfstate", "infra-networking/terraform.tfstate")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestSDKVerifierMissingObject(t *testing.T) {
	t.Parallel()

	v := NewSDKVerifier(&fakeS3{objects: map[string]bool{}})

	exists, err := v.StateExists(context.Background(), "acme-tfstate", "missing/terraform.tfstate")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSDKVerifierAPIError(t *testing.T) {
	t.Parallel()

	v := NewSDKVerifier(&fakeS3{err: errors.New("access denied")})

	_, err := v.StateExists(context.Background(), "acme-tfstate", "infra/terraform.tfstate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestCLIVerifierDryRun(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logging.NewForWriter(&buf, true)
	v := NewCLIVerifier(run.NewRunner(true, log), "platform-admin", "us-east-1")

	exists, err := v.StateExists(context.Background(), "acme-tfstate", "infra/terraform.tfstate")

	require.NoError(t, err)
	assert.True(t, exists)
	assert.Contains(t, buf.String(), "aws s3api head-object --bucket acme-tfstate --key infra/terraform.tfstate")
}

func TestCLIVerifierClassifiesHeadObjectFailures(t *testing.T) {
	dir := t.TempDir()
	script := `#!/bin/sh
case "$6" in
  infra/present) exit 0 ;;
  infra/missing) echo "An error occurred (404) when calling the HeadObject operation: Not Found" >&2; exit 254 ;;
  *) echo "An error occurred (403) when calling the HeadObject operation: Forbidden" >&2; exit 254 ;;
esac
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "aws"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	log := logging.NewForWriter(&bytes.Buffer{}, false)
	v := NewCLIVerifier(run.NewRunner(false, log), "platform-admin", "us-east-1")

	exists, err := v.StateExists(context.Background(), "acme-tfstate", "infra/present")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = v.StateExists(context.Background(), "acme-tfstate", "infra/missing")
	require.NoError(t, err)
	assert.False(t, exists)

	// Anything that is not a 404 is an error, not a missing object.
	_, err = v.StateExists(context.Background(), "acme-tfstate", "infra/forbidden")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestNewVerifierSelectsMode(t *testing.T) {
	t.Parallel()

	log := logging.NewForWriter(&bytes.Buffer{}, false)
	runner := run.NewRunner(true, log)

	assert.IsType(t, &CLIVerifier{}, NewVerifier(config.VerifyCLI, runner, "p", "us-east-1"))
	assert.IsType(t, &SDKVerifier{}, NewVerifier(config.VerifySDK, runner, "p", "us-east-1"))
}

func TestNewS3ClientRequiresCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")

	client := NewS3Client("us-east-1")
	_, err := client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: strPtr("bucket"),
		Key:    strPtr("key"),
	})
	require.Error(t, err)
	assert.Contains(t, fmt.Sprint(err), "AWS_ACCESS_KEY_ID")
}

func strPtr(s string) *string { return &s }
