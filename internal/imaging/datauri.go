package imaging

import (
	"bytes"
	"encoding/base64"
	"strings"
)

const dataURIPrefix = "data:"

// IsDataURI reports whether input looks like a "data:" URI.
func IsDataURI(input []byte) bool {
	return bytes.HasPrefix(input, []byte(dataURIPrefix))
}

// DecodeBytesOrDataURI returns the raw image bytes carried by input.
//
// Input that does not start with "data:" is returned unchanged. A data URI
// must have the form data:<mime>;base64,<payload>; the payload may use the
// standard or URL-safe alphabet, with or without padding. Only base64
// payloads are accepted since percent-encoded rasters do not occur in
// practice.
func DecodeBytesOrDataURI(input []byte) ([]byte, error) {
	if !IsDataURI(input) {
		return input, nil
	}

	header, payload, ok := strings.Cut(string(input[len(dataURIPrefix):]), ",")
	if !ok {
		return nil, &DecodeError{Reason: "malformed data URI: missing ','"}
	}

	params := strings.Split(header, ";")
	if !strings.EqualFold(params[len(params)-1], "base64") {
		return nil, &DecodeError{Reason: "malformed data URI: payload is not base64"}
	}
	if mime := params[0]; mime != "" && !strings.HasPrefix(strings.ToLower(mime), "image/") {
		return nil, &DecodeError{Reason: "data URI is not an image: " + mime}
	}

	payload = strings.TrimSpace(payload)
	if payload == "" {
		return nil, &DecodeError{Reason: "empty input"}
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if raw, err := enc.DecodeString(payload); err == nil {
			return raw, nil
		}
	}
	return nil, &DecodeError{Reason: "malformed data URI: invalid base64 payload"}
}

// EncodeDataURI wraps encoded image bytes in a base64 data URI.
func EncodeDataURI(mimeType string, data []byte) string {
	var sb strings.Builder
	sb.Grow(len(dataURIPrefix) + len(mimeType) + len(";base64,") + base64.StdEncoding.EncodedLen(len(data)))
	sb.WriteString(dataURIPrefix)
	sb.WriteString(mimeType)
	sb.WriteString(";base64,")
	sb.WriteString(base64.StdEncoding.EncodeToString(data))
	return sb.String()
}
