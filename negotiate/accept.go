// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package negotiate

import (
	"strings"
)

// acceptSpec is one entry of an Accept-style header.
type acceptSpec struct {
	value   string
	quality int // thousandths, 0..1000
}

// Accepts returns the offer the Accept header prefers, or "" if none is
// acceptable. An empty header accepts the first offer.
//
//	negotiate.Accepts("text/html;q=0.9, application/json", "text/html", "application/json")
//	// "application/json"
func Accepts(header string, offers ...string) string {
	if len(offers) == 0 {
		return ""
	}
	specs := parseAccept(header)
	if len(specs) == 0 {
		return offers[0]
	}

	best := ""
	bestQuality := 0
	bestSpecificity := -1
	for _, offer := range offers {
		normalized := normalizeMediaType(offer)
		for _, spec := range specs {
			quality, specificity := matchMediaType(normalized, spec)
			if quality <= 0 {
				continue
			}
			if quality > bestQuality || (quality == bestQuality && specificity > bestSpecificity) {
				best, bestQuality, bestSpecificity = offer, quality, specificity
			}
		}
	}

	return best
}

// AcceptsToken returns the offer preferred by a token header such as
// Accept-Encoding or Accept-Language, or "" if none is acceptable. An empty
// header accepts nothing.
func AcceptsToken(header string, offers ...string) string {
	specs := parseAccept(header)
	best := ""
	bestQuality := 0
	for _, offer := range offers {
		quality, wildcard := -1, -1
		for _, spec := range specs {
			switch {
			case strings.EqualFold(spec.value, offer):
				quality = spec.quality
			case spec.value == "*":
				wildcard = spec.quality
			}
		}
		// An explicit entry overrides the wildcard, including q=0.
		if quality < 0 {
			quality = wildcard
		}
		if quality > bestQuality {
			best, bestQuality = offer, quality
		}
	}

	return best
}

func parseAccept(header string) []acceptSpec {
	if strings.TrimSpace(header) == "" {
		return nil
	}

	var specs []acceptSpec
	for part := range strings.SplitSeq(header, ",") {
		if spec, ok := parseAcceptPart(part); ok {
			specs = append(specs, spec)
		}
	}

	return specs
}

func parseAcceptPart(part string) (acceptSpec, bool) {
	value, params, _ := strings.Cut(part, ";")
	spec := acceptSpec{value: strings.ToLower(strings.TrimSpace(value)), quality: 1000}
	if spec.value == "" {
		return spec, false
	}

	for param := range strings.SplitSeq(params, ";") {
		key, val, ok := strings.Cut(param, "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		q := parseQuality(strings.Trim(strings.TrimSpace(val), `"`))
		if q < 0 {
			return spec, false
		}
		spec.quality = q
	}

	return spec, true
}

// parseQuality parses a q-value into thousandths. It returns -1 for
// malformed values.
func parseQuality(s string) int {
	if len(s) == 0 || len(s) > 5 {
		return -1
	}

	if s[0] == '1' {
		if len(s) == 1 {
			return 1000
		}
		if len(s) < 3 || s[1] != '.' {
			return -1
		}
		for i := 2; i < len(s); i++ {
			if s[i] != '0' {
				return -1
			}
		}
		return 1000
	}

	if s[0] == '0' {
		if len(s) == 1 {
			return 0
		}
		if len(s) < 3 || s[1] != '.' {
			return -1
		}
		result := 0
		multiplier := 100
		for i := 2; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return -1
			}
			result += int(s[i]-'0') * multiplier
			multiplier /= 10
		}
		return result
	}

	return -1
}

// matchMediaType returns the quality and specificity with which spec
// accepts offer: 3 for an exact match, 2 for type/*, 1 for */*.
func matchMediaType(offer string, spec acceptSpec) (int, int) {
	if spec.value == offer {
		return spec.quality, 3
	}
	if spec.value == "*/*" {
		return spec.quality, 1
	}

	specType, specSub := splitMediaType(spec.value)
	offerType, _ := splitMediaType(offer)
	if specSub == "*" && specType == offerType {
		return spec.quality, 2
	}

	return 0, 0
}

func splitMediaType(mediaType string) (string, string) {
	t, sub, ok := strings.Cut(mediaType, "/")
	if !ok {
		return mediaType, ""
	}

	return t, sub
}

// normalizeMediaType expands short names ("json", "html") and drops
// parameters.
func normalizeMediaType(mediaType string) string {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	switch mediaType {
	case "json":
		return "application/json"
	case "html":
		return "text/html"
	case "xml":
		return "application/xml"
	case "text":
		return "text/plain"
	}

	return mediaType
}
