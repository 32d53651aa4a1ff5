package status

import (
	"errors"
	"fmt"
	"nonomi/internal/providers"
)

var (
	ErrNetwork = errors.New("network error")
	ErrDecode  = errors.New("decode error")
)

// FetchError carries the failure kind (ErrNetwork or ErrDecode) and the
// underlying cause. errors.Is matches either.
type FetchError struct {
	Kind error
	Url  string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s fetching %s: %v", e.Kind, e.Url, e.Err)
}

func (e *FetchError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func networkError(url string, err error) error {
	return &FetchError{Kind: ErrNetwork, Url: url, Err: err}
}

func decodeError(url string, err error) error {
	return &FetchError{Kind: ErrDecode, Url: url, Err: err}
}

func pollResult(err error) string {
	switch {
	case err == nil:
		return providers.PollResultOK
	case errors.Is(err, ErrDecode):
		return providers.PollResultDecodeError
	default:
		return providers.PollResultNetworkError
	}
}
