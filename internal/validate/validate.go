// Package validate rejects malformed repository names, paths and numeric
// parameters before they reach any external command.
package validate

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	tferrors "github.com/EPdacoder05/TF2S3-migration/internal/errors"
)

var (
	repoNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)
	branchPattern   = regexp.MustCompile(`^[a-zA-Z0-9_./-]+$`)
	regionPattern   = regexp.MustCompile(`^[a-z]{2}-[a-z]+-\d+$`)
	shellMetaChars  = regexp.MustCompile(`[;&|` + "`" + `$<>(){}!*?\[\]\\'"~#]`)
	controlChars    = regexp.MustCompile(`[\x00-\x1f\x7f]`)
)

// MaxRecommendedConcurrency is the soft upper bound for parallel migrations.
// Exceeding it is allowed but warned about; GitHub and AWS rate limits make
// larger values counterproductive.
const MaxRecommendedConcurrency = 10

// RepoName checks a repository name against the GitHub identifier grammar and
// rejects traversal segments, shell metacharacters and control characters.
func RepoName(name string) error {
	if name == "" {
		return tferrors.NewValidationError("repository name", name, "must not be empty")
	}
	if strings.Contains(name, "..") {
		return tferrors.NewValidationError("repository name", name, "contains parent directory segment")
	}
	if controlChars.MatchString(name) {
		return tferrors.NewValidationError("repository name", name, "contains control characters")
	}
	if shellMetaChars.MatchString(name) || strings.ContainsAny(name, " /") {
		return tferrors.NewValidationError("repository name", name, "contains shell metacharacters")
	}
	if !repoNamePattern.MatchString(name) {
		return tferrors.NewValidationError("repository name", name, "does not match allowed grammar")
	}
	return nil
}

// OrgName follows the same grammar as repository names. The underlying
// rejection reason is kept so an organization error is as specific as a
// repository one.
func OrgName(name string) error {
	if err := RepoName(name); err != nil {
		var verr *tferrors.ValidationError
		if errors.As(err, &verr) {
			return tferrors.NewValidationError("organization", name, verr.Reason)
		}
		return err
	}
	return nil
}

// BranchName checks a git branch name. Slashes are allowed; traversal and
// metacharacters are not.
func BranchName(name string) error {
	if name == "" {
		return tferrors.NewValidationError("branch name", name, "must not be empty")
	}
	if strings.Contains(name, "..") {
		return tferrors.NewValidationError("branch name", name, "contains parent directory segment")
	}
	if !branchPattern.MatchString(name) {
		return tferrors.NewValidationError("branch name", name, "does not match allowed grammar")
	}
	if strings.HasPrefix(name, "/") || strings.HasSuffix(name, "/") || strings.HasSuffix(name, ".lock") {
		return tferrors.NewValidationError("branch name", name, "not a valid git ref name")
	}
	return nil
}

// Region checks the AWS region format, e.g. us-east-1.
func Region(region string) error {
	if !regionPattern.MatchString(region) {
		return tferrors.NewValidationError("region", region, "does not match AWS region format")
	}
	return nil
}

// PathSafety rejects paths that escape their base after normalization.
func PathSafety(path string) error {
	if path == "" {
		return tferrors.NewValidationError("path", path, "must not be empty")
	}
	if controlChars.MatchString(path) {
		return tferrors.NewValidationError("path", path, "contains control characters")
	}
	normalized := filepath.Clean(path)
	for _, seg := range strings.Split(normalized, string(filepath.Separator)) {
		if seg == ".." {
			return tferrors.NewValidationError("path", path, "contains parent directory segment")
		}
	}
	return nil
}

// Concurrency checks the parallel migration bound. Values above the
// recommended maximum are accepted; the caller decides whether to warn.
func Concurrency(n int) error {
	if n < 1 {
		return tferrors.NewValidationError("concurrency", "", "must be at least 1")
	}
	return nil
}

// FilterRepoNames returns the names that pass RepoName and, separately, the
// names that were rejected.
func FilterRepoNames(names []string) (valid []string, rejected []string) {
	for _, name := range names {
		if err := RepoName(name); err != nil {
			rejected = append(rejected, name)
			continue
		}
		valid = append(valid, name)
	}
	return valid, rejected
}
