package telemetry

import (
	"regexp"
	"strings"
)

// staticRouteTokens are common API path segments that are always
// literal, never an identifier, even when a caller's resource naming
// happens to collide with an id-shaped pattern (spec.md §4.6 route
// normalization allowlist).
var staticRouteTokens = map[string]bool{
	"api": true, "users": true, "posts": true, "orders": true,
	"v1": true, "v2": true, "health": true, "settings": true,
	"items": true, "products": true,
}

// collectionIDNames maps a known collection's path segment to the
// contextual placeholder name used for its id segment (spec.md §4.6:
// "all-digits → context-aware (users → :userId, posts → :postId,
// orders → :orderId, items|products → :itemId, else :id)").
var collectionIDNames = map[string]string{
	"users":    "userId",
	"posts":    "postId",
	"orders":   "orderId",
	"items":    "itemId",
	"products": "itemId",
}

var (
	uuidPattern     = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	objectIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{24}$`)
	numericPattern  = regexp.MustCompile(`^[0-9]+$`)
	slugPattern     = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)+$`)
	base64Pattern   = regexp.MustCompile(`^[A-Za-z0-9+/]{16,}={0,2}$`)
	nanoidPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{20,30}$`)
	shortAlnumPattern = regexp.MustCompile(`^[A-Za-z0-9]{3,12}$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`[0-9]`)
	mixedCase       = regexp.MustCompile(`[a-z]`)
	mixedCaseUpper  = regexp.MustCompile(`[A-Z]`)
)

// NormalizeRoute rewrites a concrete URL path into a cardinality-safe
// route template, replacing segments that look like an identifier
// with a `:name` placeholder following spec.md §4.6's precedence:
// static allowlist, UUID, ObjectId, all-digits (context-aware), slug,
// base64-ish token, nanoid/cuid, then short mixed alphanumerics
// (context-aware). Normalize(Normalize(p)) == Normalize(p): segments
// already beginning with `:` (or `*`) are preserved as-is.
func NormalizeRoute(path string) string {
	original := strings.Split(path, "/")
	segments := append([]string(nil), original...)
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		prev := ""
		if i > 0 {
			prev = original[i-1]
		}
		segments[i] = normalizeSegment(seg, prev)
	}
	return strings.Join(segments, "/")
}

func normalizeSegment(seg, prev string) string {
	if strings.HasPrefix(seg, ":") || seg == "*" {
		return seg
	}
	if staticRouteTokens[strings.ToLower(seg)] {
		return seg
	}
	switch {
	case uuidPattern.MatchString(seg):
		return ":id"
	case objectIDPattern.MatchString(seg):
		return ":id"
	case numericPattern.MatchString(seg):
		return ":" + idPlaceholderFor(prev)
	case slugPattern.MatchString(seg):
		return ":slug"
	case isBase64Token(seg):
		return ":token"
	case nanoidPattern.MatchString(seg):
		return ":id"
	case isShortMixedAlnum(seg):
		return ":" + idPlaceholderFor(prev)
	default:
		return seg
	}
}

// isBase64Token matches a mixed-case alphanumeric run of 16+ chars, or
// any padded base64 value (spec.md §4.6 "Base64 (mixed-case alnum ≥16
// or padded) → :token").
func isBase64Token(seg string) bool {
	if !base64Pattern.MatchString(seg) {
		return false
	}
	if strings.HasSuffix(seg, "=") {
		return true
	}
	return mixedCase.MatchString(seg) && mixedCaseUpper.MatchString(seg)
}

// isShortMixedAlnum matches spec.md §4.6's catch-all: "short
// alphanumerics (3-12 chars, mixed letters+digits)".
func isShortMixedAlnum(seg string) bool {
	return shortAlnumPattern.MatchString(seg) && hasLetter.MatchString(seg) && hasDigit.MatchString(seg)
}

func idPlaceholderFor(prev string) string {
	if name, ok := collectionIDNames[strings.ToLower(prev)]; ok {
		return name
	}
	return "id"
}

// HasCardinalityRisk reports whether path still contains a segment
// that looks like an unbounded identifier after normalization would
// otherwise have replaced it — i.e. NormalizeRoute changed something.
// A caller instrumenting a raw path (instead of a route template) can
// use this to log a warning instead of silently creating unbounded
// label cardinality.
func HasCardinalityRisk(path string) bool {
	return NormalizeRoute(path) != path
}

// EstimateCardinality counts the segments of routeTemplate: literal
// segments, and placeholder segments (":name" or "*"). Empty segments
// are skipped. It does not compute a numeric estimate of distinct
// label values; it returns only the two counts.
func EstimateCardinality(routeTemplate string) (literalSegments int, placeholderSegments int) {
	for _, seg := range strings.Split(routeTemplate, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ":") || seg == "*" {
			placeholderSegments++
		} else {
			literalSegments++
		}
	}
	return literalSegments, placeholderSegments
}
