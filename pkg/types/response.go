package types

type SuccessEnvelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	OK    bool     `json:"ok"`
	Error APIError `json:"error"`
}

// Envelope is the decoding side of both envelopes. OK is a pointer because
// older backends omit it on successful writes.
type Envelope[T any] struct {
	OK      *bool     `json:"ok,omitempty"`
	Data    T         `json:"data"`
	Error   *APIError `json:"error,omitempty"`
	Message string    `json:"message,omitempty"`
}

// Failed reports whether the backend flagged the response as unsuccessful.
func (e Envelope[T]) Failed() bool {
	if e.Error != nil {
		return true
	}
	return e.OK != nil && !*e.OK
}
