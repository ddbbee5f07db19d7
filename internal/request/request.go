// Package request provides the request types handed to validators.
//
// A Request carries the caller identity established by the transport. Validators trust
// that identity as already authenticated and only check it against governance state.
package request

// Request is an authenticated request to validate
type Request struct {
	// Caller is the authenticated caller, or nil if none was presented
	Caller *Caller `json:"caller,omitempty"`

	// Attributes describe the request for logging
	Attributes *RequestAttributes `json:"attributes,omitempty"`
}

// Caller is the authenticated identity of the party making a request
type Caller struct {
	// ID is the identity key derived from the caller's certificate
	ID string `json:"id"`

	// Certificate is the caller's PEM certificate, when the transport provides it
	Certificate string `json:"certificate,omitempty"`

	// Policy names the authentication policy that accepted the caller
	Policy string `json:"policy,omitempty"`
}

// CallerID returns the caller's identity key, or "" if there is no caller
func (r *Request) CallerID() string {
	if r == nil || r.Caller == nil {
		return ""
	}
	return r.Caller.ID
}

// RequestAttributes contains attributes about the incoming request
// All fields are exported and JSON-serializable
type RequestAttributes struct {
	// Method is the HTTP method or RPC method name
	Method string `json:"method,omitempty"`

	// Path is the request path/resource being accessed
	Path string `json:"path,omitempty"`

	// IPAddress is the client IP address
	IPAddress string `json:"ip_address,omitempty"`

	// UserAgent is the client user agent
	UserAgent string `json:"user_agent,omitempty"`

	// RequestID correlates log lines for one request
	RequestID string `json:"request_id,omitempty"`
}
