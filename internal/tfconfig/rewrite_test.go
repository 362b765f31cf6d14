package tfconfig

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBackend = BackendConfig{
	Bucket:    "acme-tfstate",
	Key:       "infra-networking/terraform.tfstate",
	Region:    "us-east-1",
	LockTable: "terraform-state-lock",
}

func TestRewriteBackendReplacesCloudBlock(t *testing.T) {
	t.Parallel()

	src := `terraform {
  required_version = ">= 1.5"

  cloud {
    organization = "acme"
    workspaces {
      name = "infra-networking"
    }
  }
}
`
	out, changed := RewriteBackend(src, testBackend)

	require.True(t, changed)
	assert.NotContains(t, out, "cloud {")
	assert.Contains(t, out, `backend "s3" {`)
	assert.Contains(t, out, `bucket         = "acme-tfstate"`)
	assert.Contains(t, out, `key            = "infra-networking/terraform.tfstate"`)
	assert.Contains(t, out, `region         = "us-east-1"`)
	assert.Contains(t, out, `dynamodb_table = "terraform-state-lock"`)
	assert.Contains(t, out, "encrypt        = true")
}

func TestRewriteBackendHandlesNestedBraces(t *testing.T) {
	t.Parallel()

	prefix := `# pinned providers
terraform {
  required_version = ">= 1.5"
  `
	block := `cloud {
    organization = "acme"
    workspaces {
      tags = ["prod", "networking"]
      name = "deep"
    }
  }`
	suffix := `
}

resource "aws_s3_bucket" "b" {
  bucket = "unrelated"
}
`
	src := prefix + block + suffix

	out, changed := RewriteBackend(src, testBackend)

	require.True(t, changed)
	// Bytes outside the block span are untouched.
	assert.True(t, strings.HasPrefix(out, prefix))
	assert.True(t, strings.HasSuffix(out, suffix))
	assert.NotContains(t, out, "workspaces")
	assert.NotContains(t, out, `"deep"`)
}

func TestRewriteBackendIgnoresBracesInsideStrings(t *testing.T) {
	t.Parallel()

	src := `terraform {
  cloud {
    organization = "acme"
    hostname     = "app.terraform.io"
    # comment with a stray } brace
    token_hint   = "${var.env}/creds"
  }
}
`
	out, changed := RewriteBackend(src, testBackend)

	require.True(t, changed)
	assert.NotContains(t, out, "token_hint")
	// The terraform block's own closing brace survives.
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "}"))
	assert.Equal(t, 1, strings.Count(out, "terraform {"))
}

func TestRewriteBackendRemoteForm(t *testing.T) {
	t.Parallel()

	src := `terraform {
  backend "remote" {
    organization = "acme"
    workspaces {
      prefix = "infra-"
    }
  }
}
`
	out, changed := RewriteBackend(src, testBackend)

	require.True(t, changed)
	assert.NotContains(t, out, `backend "remote"`)
	assert.Contains(t, out, `backend "s3" {`)
}

func TestRewriteBackendNoBlock(t *testing.T) {
	t.Parallel()

	src := `resource "aws_vpc" "main" {
  cidr_block = "10.0.0.0/16"
}
`
	out, changed := RewriteBackend(src, testBackend)

	require.False(t, changed)
	assert.Equal(t, src, out)
}

func TestRewriteBackendIdempotent(t *testing.T) {
	t.Parallel()

	src := `terraform {
  cloud {
    organization = "acme"
  }
}
`
	once, changed := RewriteBackend(src, testBackend)
	require.True(t, changed)

	twice, changedAgain := RewriteBackend(once, testBackend)
	require.False(t, changedAgain)
	assert.Equal(t, once, twice)
}

func TestRewriteBackendUnterminatedBlock(t *testing.T) {
	t.Parallel()

	src := "terraform {\n  cloud {\n    organization = \"acme\"\n"
	out, changed := RewriteBackend(src, testBackend)

	require.False(t, changed)
	assert.Equal(t, src, out)
}

func TestRewriteModuleSources(t *testing.T) {
	t.Parallel()

	src := `module "vpc" {
  source  = "app.terraform.io/acme/vpc-factory/aws"
  version = "2.1.0"

  cidr = "10.0.0.0/16"
}
`
	out, count := RewriteModuleSources(src, "acme")

	require.Equal(t, 1, count)
	assert.Contains(t, out, `source = "git::https://github.com/acme/terraform-aws-vpc-factory?ref=v2.1.0"`)
	assert.NotContains(t, out, "app.terraform.io")
	// The standalone version pin moved into the ref.
	assert.NotContains(t, out, `version = "2.1.0"`)
	assert.Contains(t, out, `cidr = "10.0.0.0/16"`)
}

func TestRewriteModuleSourcesWithoutVersion(t *testing.T) {
	t.Parallel()

	src := `module "queue" {
  source = "app.terraform.io/acme/queue/aws"
}
`
	out, count := RewriteModuleSources(src, "acme")

	require.Equal(t, 1, count)
	assert.Contains(t, out, "?ref=main")
}

func TestRewriteModuleSourcesVPrefixedVersion(t *testing.T) {
	t.Parallel()

	src := `module "dns" {
  source  = "app.terraform.io/acme/dns/aws"
  version = "v3.0.1"
}
`
	out, _ := RewriteModuleSources(src, "acme")
	assert.Contains(t, out, "?ref=v3.0.1")
	assert.NotContains(t, out, "?ref=vv3.0.1")
}

func TestRewriteModuleSourcesLeavesGitFormAlone(t *testing.T) {
	t.Parallel()

	src := `module "vpc" {
  source = "git::https://github.com/acme/terraform-aws-vpc-factory?ref=v2.1.0"
}
`
	out, count := RewriteModuleSources(src, "acme")

	require.Equal(t, 0, count)
	assert.Equal(t, src, out)
}

func TestRewriteModuleSourcesGitFormKeepsVersionAttribute(t *testing.T) {
	t.Parallel()

	src := `module "vpc" {
  source  = "git::https://github.com/acme/terraform-aws-vpc-factory?ref=v2.1.0"
  version = "2.1.0"
}
`
	out, count := RewriteModuleSources(src, "acme")

	// A zero count must mean the text is unchanged, or callers gating file
	// writes on the count silently drop edits.
	require.Equal(t, 0, count)
	assert.Equal(t, src, out)
}

func TestRewriteModuleSourcesVersionScopedToBlock(t *testing.T) {
	t.Parallel()

	src := `module "queue" {
  source = "app.terraform.io/acme/queue/aws"
}

module "dns" {
  source  = "git::https://github.com/acme/terraform-aws-dns?ref=v1.0.0"
  version = "1.0.0"
}
`
	out, count := RewriteModuleSources(src, "acme")

	require.Equal(t, 1, count)
	assert.Contains(t, out, "terraform-aws-queue?ref=main")
	// The sibling block's version pin is not the queue module's.
	assert.Contains(t, out, `version = "1.0.0"`)
}

func TestRewriteModuleSourcesMultiple(t *testing.T) {
	t.Parallel()

	src := `module "vpc" {
  source  = "app.terraform.io/acme/vpc-factory/aws"
  version = "2.1.0"
}

module "local" {
  source = "./modules/local"
}

module "dns" {
  source  = "app.terraform.io/acme/dns/google"
  version = "1.0.0"
}
`
	out, count := RewriteModuleSources(src, "acme")

	require.Equal(t, 2, count)
	assert.Contains(t, out, "terraform-aws-vpc-factory?ref=v2.1.0")
	assert.Contains(t, out, "terraform-google-dns?ref=v1.0.0")
	assert.Contains(t, out, `source = "./modules/local"`)
}

func TestRewriteModuleSourcesIdempotent(t *testing.T) {
	t.Parallel()

	src := `module "vpc" {
  source  = "app.terraform.io/acme/vpc-factory/aws"
  version = "2.1.0"
}
`
	once, count := RewriteModuleSources(src, "acme")
	require.Equal(t, 1, count)

	twice, countAgain := RewriteModuleSources(once, "acme")
	require.Equal(t, 0, countAgain)
	assert.Equal(t, once, twice)
}
