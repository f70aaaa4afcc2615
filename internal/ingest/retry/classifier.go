package retry

import "strings"

// ErrorKind buckets a failure for retry decisions and reporting.
type ErrorKind string

const (
	KindApi        ErrorKind = "api"
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindData       ErrorKind = "data"
	KindValidation ErrorKind = "validation"
	KindStorage    ErrorKind = "storage"
	KindUnknown    ErrorKind = "unknown"
)

// Classify buckets an error by case-insensitive substring match against its
// message. First match wins, so keyword order matters: a "network timeout"
// classifies as timeout, not network.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindUnknown
	}

	s := strings.ToLower(err.Error())

	if strings.Contains(s, "timeout") {
		return KindTimeout
	}
	if strings.Contains(s, "connection") || strings.Contains(s, "network") ||
		strings.Contains(s, "unreachable") {
		return KindNetwork
	}
	if strings.Contains(s, "api") {
		return KindApi
	}
	if strings.Contains(s, "json") || strings.Contains(s, "parse") ||
		strings.Contains(s, "format") || strings.Contains(s, "invalid") {
		return KindData
	}
	if strings.Contains(s, "validation") {
		return KindValidation
	}
	if strings.Contains(s, "s3") || strings.Contains(s, "storage") ||
		strings.Contains(s, "bucket") {
		return KindStorage
	}
	return KindUnknown
}

// Retryable reports whether a kind is transient. Data, validation and
// unknown failures are terminal; retrying them only repeats the failure.
func Retryable(kind ErrorKind) bool {
	switch kind {
	case KindApi, KindNetwork, KindTimeout, KindStorage:
		return true
	}
	return false
}
