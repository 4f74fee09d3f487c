// Package lark is a small client for the Feishu/Lark open platform, limited to
// what the distributor needs: tenant access tokens and drive file copies.
//
// # Components
//
//   - ExtractResourceID turns a document or folder URL into the opaque
//     resource token the platform expects.
//   - DomainSelector maps a document URL to the API base address of its
//     deployment (open.feishu.cn or open.larksuite.com).
//   - TokenCache reuses tenant access tokens per base address until 60 seconds
//     before they expire.
//   - Client issues tokens and copies files; NormalizeCopyResponse reduces the
//     copy response to a token and URL.
//
// # Error Handling
//
// Every error returned by this package is an *Error with a Kind. Callers map
// kinds to transport statuses with KindOf or errors.Is against the sentinels:
//
//	switch lark.KindOf(err) {
//	case lark.KindValidation:
//	    status = http.StatusBadRequest
//	default:
//	    status = http.StatusInternalServerError
//	}
//
// Nothing in this package retries.
package lark
