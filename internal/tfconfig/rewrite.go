// Package tfconfig rewrites Terraform configuration text: backend declarations
// from the Terraform Cloud form to S3, and module sources from the TFC
// registry form to direct Git references. All operations are pure text
// transformations with no I/O, and all are idempotent.
package tfconfig

import (
	"fmt"
	"regexp"
	"strings"
)

// BackendConfig parameterizes the generated S3 backend block.
type BackendConfig struct {
	Bucket    string
	Key       string
	Region    string
	LockTable string
}

// cloudBlockPattern locates the opening keyword of a Terraform Cloud backend
// declaration. The regex only finds the keyword; the block body is delimited
// by the brace scanner, never by the regex itself.
var cloudBlockPattern = regexp.MustCompile(`(?m)(?:^|\n)[ \t]*(cloud[ \t]*\{|backend[ \t]+"remote"[ \t]*\{)`)

// RewriteBackend replaces the first Terraform Cloud backend declaration
// (a cloud {} or backend "remote" {} block) with an S3 backend block. Text
// outside the block span is left byte-identical. When no such block exists
// the input is returned unchanged with changed = false; files without a
// backend declaration are legitimate.
func RewriteBackend(src string, backend BackendConfig) (string, bool) {
	loc := cloudBlockPattern.FindStringSubmatchIndex(src)
	if loc == nil {
		return src, false
	}

	keywordStart := loc[2]
	openBrace := loc[3] - 1
	closeBrace := matchBrace(src, openBrace)
	if closeBrace == -1 {
		// Unterminated block; refuse to guess at its extent.
		return src, false
	}

	indent := lineIndent(src, keywordStart)
	block := s3BackendBlock(backend, indent)

	return src[:keywordStart] + block + src[closeBrace+1:], true
}

func s3BackendBlock(backend BackendConfig, indent string) string {
	var b strings.Builder
	b.WriteString(`backend "s3" {` + "\n")
	fmt.Fprintf(&b, "%s  bucket         = %q\n", indent, backend.Bucket)
	fmt.Fprintf(&b, "%s  key            = %q\n", indent, backend.Key)
	fmt.Fprintf(&b, "%s  region         = %q\n", indent, backend.Region)
	fmt.Fprintf(&b, "%s  dynamodb_table = %q\n", indent, backend.LockTable)
	fmt.Fprintf(&b, "%s  encrypt        = true\n", indent)
	b.WriteString(indent + "}")
	return b.String()
}

// registrySourcePattern matches a TFC private registry module source:
// app.terraform.io/<org>/<module>/<provider>.
var registrySourcePattern = regexp.MustCompile(`source\s*=\s*"app\.terraform\.io/([^/"]+)/([^/"]+)/([^"]+)"`)

// versionAttrPattern matches a module version pin attribute.
var versionAttrPattern = regexp.MustCompile(`version\s*=\s*"([^"]+)"`)

// versionLinePattern matches a whole version attribute line, including its
// leading newline, for removal after a source has been converted to Git form.
var versionLinePattern = regexp.MustCompile(`\n[ \t]*version\s*=\s*"[^"]+"[ \t]*`)

// versionLookahead bounds how far past a source attribute the adjacent
// version pin is searched for.
const versionLookahead = 200

// RewriteModuleSources converts every TFC registry module source to a direct
// Git reference of the form
// git::https://github.com/<org>/terraform-<provider>-<module>?ref=<version>,
// carrying the adjacent version pin into the ref and removing the now-redundant
// version attribute from the same block. Blocks that do not carry a registry
// source are left byte-identical, so a zero count always means unchanged text
// and the operation is idempotent.
func RewriteModuleSources(src, org string) (string, int) {
	matches := registrySourcePattern.FindAllStringSubmatchIndex(src, -1)
	if len(matches) == 0 {
		return src, 0
	}

	var b strings.Builder
	last := 0
	count := 0

	for _, m := range matches {
		start, end := m[0], m[1]
		moduleName := src[m[4]:m[5]]
		provider := src[m[6]:m[7]]

		// The version pin lives between the source attribute and the block's
		// closing brace; the lookahead keeps pathological files cheap.
		windowEnd := min(end+versionLookahead, len(src))
		if brace := strings.IndexByte(src[end:windowEnd], '}'); brace != -1 {
			windowEnd = end + brace
		}
		window := src[end:windowEnd]

		ref := "main"
		skipFrom, skipTo := end, end
		if vm := versionLinePattern.FindStringIndex(window); vm != nil {
			if sub := versionAttrPattern.FindStringSubmatch(window[vm[0]:vm[1]]); sub != nil {
				ref = normalizeRef(sub[1])
			}
			skipFrom, skipTo = end+vm[0], end+vm[1]
		}

		b.WriteString(src[last:start])
		fmt.Fprintf(&b, `source = "git::https://github.com/%s/terraform-%s-%s?ref=%s"`, org, provider, moduleName, ref)
		b.WriteString(src[end:skipFrom])
		last = skipTo
		count++
	}
	b.WriteString(src[last:])

	return b.String(), count
}

func normalizeRef(version string) string {
	if version == "main" || strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}
