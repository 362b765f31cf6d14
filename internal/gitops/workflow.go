package gitops

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// TokenLine is the environment entry injected into Terraform workflows so
// module fetches over Git can authenticate after the registry is gone.
const TokenLine = "GITHUB_TOKEN: ${{ secrets.gh-readaccess-pat }}"

var (
	topLevelEnvPattern  = regexp.MustCompile(`(?m)^env:[ \t]*$`)
	topLevelJobsPattern = regexp.MustCompile(`(?m)^jobs:`)
)

// InjectWorkflowToken adds the read-access token to a workflow definition.
// Only workflows that mention terraform are touched, and a workflow that
// already carries the token is returned unchanged.
func InjectWorkflowToken(content string) (string, bool) {
	if !strings.Contains(strings.ToLower(content), "terraform") {
		return content, false
	}
	if strings.Contains(content, "gh-readaccess-pat") {
		return content, false
	}

	if loc := topLevelEnvPattern.FindStringIndex(content); loc != nil {
		return content[:loc[1]] + "\n  " + TokenLine + content[loc[1]:], true
	}

	if loc := topLevelJobsPattern.FindStringIndex(content); loc != nil {
		block := "env:\n  " + TokenLine + "\n\n"
		return content[:loc[0]] + block + content[loc[0]:], true
	}

	return content, false
}

// UpdateWorkflows rewrites every workflow file under .github/workflows in
// repoPath and returns the names of the files it changed. A repository
// without workflows is not an error.
func UpdateWorkflows(repoPath string) ([]string, error) {
	dir := filepath.Join(repoPath, ".github", "workflows")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workflows directory: %w", err)
	}

	var updated []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || (!strings.HasSuffix(name, ".yml") && !strings.HasSuffix(name, ".yaml")) {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return updated, fmt.Errorf("failed to read workflow %s: %w", name, err)
		}

		out, changed := InjectWorkflowToken(string(data))
		if !changed {
			continue
		}
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			return updated, fmt.Errorf("failed to write workflow %s: %w", name, err)
		}
		updated = append(updated, name)
	}
	return updated, nil
}
