package domain

import (
	"crypto/md5" //nolint:gosec // cache key derivation, not security
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

// Stable-addressed references embed one or two 36-character hyphenated
// identifiers. Candidate windows are validated as UUIDs before use so a
// run of hex in an unrelated URL cannot pass for one.
var (
	hostedPairPattern = regexp.MustCompile(`([0-9a-fA-F-]{36})/([0-9a-fA-F-]{36})`)
	hostedSegPattern  = regexp.MustCompile(`[0-9a-fA-F-]{36}`)
)

// NormaliseMediaKey derives a stable cache key from a raw media reference.
//
// Source-hosted assets are issued fresh signed URLs on every fetch, so
// keying on the raw URL would miss the cache perpetually. The embedded
// identifiers are the only durable anchor:
//
//  1. two-segment addressing -> "hosted:<seg1>/<seg2>"
//  2. legacy single segment  -> "hosted:<seg>"
//  3. anything else          -> "url:<md5 of the raw reference>"
//
// Segments are lowercased, so the three namespaces never collide. The
// function is total and deterministic: identical input yields an identical
// key across calls and process restarts.
func NormaliseMediaKey(reference string) string {
	for _, m := range hostedPairPattern.FindAllStringSubmatch(reference, -1) {
		first, ok1 := canonicalUUID(m[1])
		second, ok2 := canonicalUUID(m[2])
		if ok1 && ok2 {
			return "hosted:" + first + "/" + second
		}
	}
	for _, seg := range hostedSegPattern.FindAllString(reference, -1) {
		if s, ok := canonicalUUID(seg); ok {
			return "hosted:" + s
		}
	}
	sum := md5.Sum([]byte(reference)) //nolint:gosec // cache key derivation, not security
	return "url:" + hex.EncodeToString(sum[:])
}

// HostedSegments returns the validated stable identifiers embedded in a
// reference, in order of appearance. Nil when the reference is not
// stable-addressed.
func HostedSegments(reference string) []string {
	var segs []string
	for _, seg := range hostedSegPattern.FindAllString(reference, -1) {
		if s, ok := canonicalUUID(seg); ok {
			segs = append(segs, s)
		}
	}
	return segs
}

// canonicalUUID validates a candidate segment and returns its canonical
// lowercase form.
func canonicalUUID(s string) (string, bool) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
