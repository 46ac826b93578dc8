package bancheck

import "strings"

// Raw status prefixes produced by the probe. Downstream mapping to the
// external summaries is deterministic and stateless.
const (
	rawBannedPrefix     = "BANNED: "
	rawPrivate          = "PRIVATE_PROFILE"
	rawPublic           = "NOT_BANNED_PUBLIC"
	rawUnexpected       = "PROFILE_UNEXPECTED_STRUCTURE"
	rawTimeout          = "ERROR_TIMEOUT"
	rawConnection       = "ERROR_CONNECTION"
	rawProxyPrefix      = "PROXY_ERROR_CONNECT: "
	rawHTTPPrefix       = "ERROR_HTTP_"
	rawUnexpectedPrefix = "ERROR_UNEXPECTED: "
	rawRetryPrefix      = "RETRY_FAILED_FINAL: "
	rawInnerPrefix      = "ERROR_INNER_THREAD_EXCEPTION: "
)

// External status summaries.
const (
	SummaryBanned     = "Banned"
	SummaryPrivate    = "Private"
	SummaryPublic     = "Public"
	SummaryUnexpected = "Unexpected"
	SummaryNotFound   = "HTTP 404 Not Found"
	SummaryProxyError = "Proxy Error"
	SummaryError      = "Error"
)

// interpretStatus maps a raw probe status to the external summary and
// detail strings.
// Parameters:
//   - raw: Raw status returned by the probe
//
// Returns:
//   - string: Status summary
//   - string: Details
func interpretStatus(raw string) (string, string) {
	switch {
	case strings.HasPrefix(raw, rawBannedPrefix):
		return SummaryBanned, strings.TrimPrefix(raw, rawBannedPrefix)
	case raw == rawPrivate:
		return SummaryPrivate, "Profile is private"
	case raw == rawPublic:
		return SummaryPublic, "No ban on record"
	case raw == rawUnexpected:
		return SummaryUnexpected, "Unrecognized page structure"
	case raw == rawTimeout:
		return SummaryError, "Request timed out"
	case raw == rawConnection:
		return SummaryError, "Connection failed"
	case strings.HasPrefix(raw, rawProxyPrefix):
		return SummaryProxyError, raw
	case strings.HasPrefix(raw, rawHTTPPrefix):
		if strings.HasPrefix(raw, rawHTTPPrefix+"404") {
			return SummaryNotFound, raw
		}
		return SummaryError, raw
	case strings.HasPrefix(raw, rawRetryPrefix):
		// Classify by the final error the retries ended on.
		last := strings.TrimPrefix(raw, rawRetryPrefix)
		if strings.HasPrefix(last, rawProxyPrefix) {
			return SummaryProxyError, raw
		}
		return SummaryError, raw
	default:
		return SummaryError, raw
	}
}
