package downloader

import (
	"errors"
	"fmt"

	platformerrors "github.com/jmgilman/go/errors"
)

// ErrBadStatus is returned when the server answers with anything but 200.
var ErrBadStatus = errors.New("unexpected HTTP status")

// FetchError reports a failed download of one work item.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// fetchFailed classifies a download failure as a network platform error.
func fetchFailed(url string, err error) error {
	return platformerrors.Wrap(&FetchError{URL: url, Err: err}, platformerrors.CodeNetwork, "download failed")
}
