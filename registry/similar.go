package registry

import (
	"bufio"
	"strings"

	"github.com/glaslos/tlsh"
)

func templateDigests(r *Registry, p Part) map[string]*tlsh.TLSH {
	digests := make(map[string]*tlsh.TLSH)
	for _, id := range r.licenseIDs {
		template := r.licenses[id].part(p)
		if template == "" {
			continue
		}
		// Very short templates have no stable TLSH digest; they simply
		// get no nearest-license hint.
		if digest, err := textDigest(template); err == nil {
			digests[id] = digest
		}
	}
	return digests
}

func textDigest(content string) (*tlsh.TLSH, error) {
	return tlsh.HashReader(bufio.NewReader(strings.NewReader(content)))
}

// NearestLicense reports the registered license whose template for the given
// part is fuzzily closest to content, using the TLSH digest distance. It is a
// diagnostic hint for "unknown" outcomes only; license identifiers are never
// assigned from it.
func (r *Registry) NearestLicense(content string, p Part) (string, int, bool) {
	digest, err := textDigest(content)
	if err != nil {
		return "", 0, false
	}
	var best string
	var bestDistance int
	for _, id := range r.licenseIDs {
		other, ok := r.digests[p][id]
		if !ok {
			continue
		}
		distance := digest.Diff(other)
		if best == "" || distance < bestDistance {
			best = id
			bestDistance = distance
		}
	}
	if best == "" {
		return "", 0, false
	}
	return best, bestDistance, true
}
