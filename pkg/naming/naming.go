package naming

import (
	"regexp"
	"strings"
)

// DefaultNamespace prefixes stack and construct ids when none is configured.
const DefaultNamespace = "blog"

const wwwPrefix = "www."

var (
	nonAlnum  = regexp.MustCompile(`[^a-z0-9-]+`)
	multiDash = regexp.MustCompile(`-+`)
)

func sanitizePart(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "_", "-")
	value = strings.ReplaceAll(value, " ", "-")
	value = nonAlnum.ReplaceAllString(value, "-")
	value = multiDash.ReplaceAllString(value, "-")
	value = strings.Trim(value, "-")
	return value
}

// Namespace returns the sanitized namespace, falling back to DefaultNamespace.
func Namespace(namespace string) string {
	if ns := sanitizePart(namespace); ns != "" {
		return ns
	}
	return DefaultNamespace
}

// StackID returns the deployment unit id: <namespace>-stack.
func StackID(namespace string) string {
	return Namespace(namespace) + "-stack"
}

// ConstructID returns the composition unit id: <namespace>-construct.
func ConstructID(namespace string) string {
	return Namespace(namespace) + "-construct"
}

// ResourceName returns a deterministic resource name:
// - <namespace>-<resource>
// - <namespace>-<resource>-<qualifier> (when qualifier is provided)
func ResourceName(namespace, resource, qualifier string) string {
	parts := []string{Namespace(namespace)}
	if resource = sanitizePart(resource); resource != "" {
		parts = append(parts, resource)
	}
	if qualifier = sanitizePart(qualifier); qualifier != "" {
		parts = append(parts, qualifier)
	}
	return strings.Join(parts, "-")
}

// NormalizeDomain lowercases a domain name and strips surrounding whitespace
// and the root label dot.
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	return strings.TrimSuffix(domain, ".")
}

// WwwName returns the "www." name for an apex domain.
func WwwName(apex string) string {
	return wwwPrefix + NormalizeDomain(apex)
}

// FQDN returns the domain in the absolute, dot-terminated form Route 53 reports.
func FQDN(domain string) string {
	domain = NormalizeDomain(domain)
	if domain == "" {
		return ""
	}
	return domain + "."
}
