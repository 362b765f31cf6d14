package tfconfig

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/EPdacoder05/TF2S3-migration/internal/config"
)

// ModulePin is one module declaration with its resolved version pin.
type ModulePin struct {
	// Instance is the label of the module block.
	Instance string
	// Name is the module identifier used for version requirements: the last
	// source path segment with any terraform-<provider>- prefix stripped.
	Name string
	// Source is the raw source attribute value.
	Source string
	// Version is the pinned version: the version attribute, or the ?ref=
	// value of a Git source. Empty when unpinned.
	Version string
}

var (
	moduleBlockPattern = regexp.MustCompile(`module\s+"([^"]+)"\s*\{`)
	sourceAttrPattern  = regexp.MustCompile(`source\s*=\s*"([^"]+)"`)
	providerPrefix     = regexp.MustCompile(`^terraform-[a-z0-9]+-`)
)

// ScanModulePins extracts every module declaration and its version pin from
// Terraform configuration text. Blocks are delimited with the brace scanner.
func ScanModulePins(src string) []ModulePin {
	var pins []ModulePin

	for _, m := range moduleBlockPattern.FindAllStringSubmatchIndex(src, -1) {
		openBrace := m[1] - 1
		closeBrace := matchBrace(src, openBrace)
		if closeBrace == -1 {
			continue
		}
		body := src[m[1]:closeBrace]

		pin := ModulePin{Instance: src[m[2]:m[3]]}

		sm := sourceAttrPattern.FindStringSubmatch(body)
		if sm == nil {
			continue
		}
		pin.Source = sm[1]
		pin.Name = moduleNameFromSource(pin.Source)

		if vm := versionAttrPattern.FindStringSubmatch(body); vm != nil {
			pin.Version = vm[1]
		} else if ref := refFromSource(pin.Source); ref != "" {
			pin.Version = ref
		}

		pins = append(pins, pin)
	}
	return pins
}

func moduleNameFromSource(source string) string {
	trimmed := source
	if i := strings.Index(trimmed, "?"); i != -1 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimSuffix(trimmed, ".git")
	segs := strings.Split(trimmed, "/")

	// Registry form is <host>/<org>/<module>/<provider>; the module name is
	// the third segment. Everything else names the module last.
	if strings.HasPrefix(trimmed, "app.terraform.io/") && len(segs) == 4 {
		return segs[2]
	}

	name := segs[len(segs)-1]
	return providerPrefix.ReplaceAllString(name, "")
}

func refFromSource(source string) string {
	if i := strings.Index(source, "?ref="); i != -1 {
		return source[i+len("?ref="):]
	}
	return ""
}

// Comparator orders version strings. The bounds semantics of version
// requirements are organization-specific, so the comparator is pluggable.
type Comparator interface {
	// Compare returns <0 when a precedes b, 0 when equal, >0 when a follows b.
	Compare(a, b string) (int, error)
}

// SemverComparator is the default comparator: lenient dotted-numeric ordering
// with an optional leading v and ignored pre-release/build suffixes. Both
// bounds of a requirement are inclusive.
type SemverComparator struct{}

// Compare implements Comparator.
func (SemverComparator) Compare(a, b string) (int, error) {
	pa, err := parseVersion(a)
	if err != nil {
		return 0, err
	}
	pb, err := parseVersion(b)
	if err != nil {
		return 0, err
	}

	for i := 0; i < len(pa) || i < len(pb); i++ {
		va, vb := 0, 0
		if i < len(pa) {
			va = pa[i]
		}
		if i < len(pb) {
			vb = pb[i]
		}
		if va != vb {
			if va < vb {
				return -1, nil
			}
			return 1, nil
		}
	}
	return 0, nil
}

func parseVersion(v string) ([]int, error) {
	s := strings.TrimPrefix(v, "v")
	// Pre-release and build metadata do not participate in range checks.
	if i := strings.IndexAny(s, "-+"); i != -1 {
		s = s[:i]
	}
	if s == "" {
		return nil, fmt.Errorf("invalid version format: %q", v)
	}

	parts := strings.Split(s, ".")
	nums := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid version format: %q", v)
		}
		nums[i] = n
	}
	return nums, nil
}

// CheckVersions validates module pins against the required version table.
// It returns one message per violation; an empty slice means all pins are in
// range. Modules without requirements are ignored.
func CheckVersions(pins []ModulePin, required map[string]config.VersionRequirement, cmp Comparator) []string {
	var violations []string

	for _, pin := range pins {
		req, ok := required[pin.Name]
		if !ok {
			continue
		}

		if pin.Version == "" {
			violations = append(violations, fmt.Sprintf(
				"module %q (%s) has no version pinned, but requires minimum version %s",
				pin.Instance, pin.Name, req.Min))
			continue
		}

		if req.Min != "" {
			c, err := cmp.Compare(pin.Version, req.Min)
			if err != nil {
				violations = append(violations, fmt.Sprintf("module %q: %v", pin.Instance, err))
				continue
			}
			if c < 0 {
				violations = append(violations, fmt.Sprintf(
					"module %q (%s) version %s is below minimum required %s",
					pin.Instance, pin.Name, pin.Version, req.Min))
			}
		}

		if req.Max != "" {
			c, err := cmp.Compare(pin.Version, req.Max)
			if err != nil {
				violations = append(violations, fmt.Sprintf("module %q: %v", pin.Instance, err))
				continue
			}
			if c > 0 {
				violations = append(violations, fmt.Sprintf(
					"module %q (%s) version %s exceeds maximum allowed %s",
					pin.Instance, pin.Name, pin.Version, req.Max))
			}
		}
	}
	return violations
}
