package exchange

import "github.com/pkg/errors"

// ErrConnection marks venue connectivity failures (dial, handshake,
// subscription, broken stream). The controller treats these as fatal for
// the current run; batch callers may wrap the operation in pkg/retry.
var ErrConnection = errors.New("venue connection failure")

func IsConnectionFailure(err error) bool {
	return errors.Is(err, ErrConnection)
}
