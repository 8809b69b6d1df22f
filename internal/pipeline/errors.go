package pipeline

import "github.com/pkg/errors"

// permanentError marks failures caused by bad input or configuration.
// The worker fails these immediately instead of retrying.
type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent wraps err so IsPermanent reports true for it.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

var (
	ErrNoSourceVideo = Permanent(errors.New("project has no source video"))
	ErrNoTranscript  = Permanent(errors.New("project has no transcript"))
	ErrBadSourceURL  = Permanent(errors.New("source url is not downloadable"))
)
