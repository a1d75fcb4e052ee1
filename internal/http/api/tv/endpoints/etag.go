package endpoints

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ComputeETag returns a strong ETag for a response body.
func ComputeETag(body []byte) string {
	return fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
}

// etagMatches reports whether an If-None-Match header matches etag.
// Weak validators compare equal to their strong form.
func etagMatches(header, etag string) bool {
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
