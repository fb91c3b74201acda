/*Package comm provides low-level TCP dial helpers used to establish and
re-establish the connection underlying an ASAP3 session.

The package intentionally does not offer a connection pool or half-duplex
request/response helper of the kind used for short-lived SCPI-style
exchanges: an ASAP3 session holds exactly one long-lived, full-duplex TCP
connection for its entire life, with a dedicated reader goroutine and a
serialized writer, so those higher-level abstractions have no customer
here. See DESIGN.md for the rest of the original comm package and why it
was trimmed down to this.
*/
package comm

import (
	"io"
	"net"
	"strconv"
	"time"

	"github.com/cenkalti/backoff"
)

// CreationFunc is a function which returns a new connection to something.
// A closure should be used to encapsulate the variables and functions needed.
type CreationFunc func() (io.ReadWriteCloser, error)

// NetworkConnMaker builds the closure needed to satisfy CreationFunc
func NetworkConnMaker(network string, address string, timeout time.Duration) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		return net.DialTimeout(network, address, timeout)
	}
}

// TCPConnMaker wraps NetworkConnMaker with TCP as the network
func TCPConnMaker(address string, timeout time.Duration) CreationFunc {
	return NetworkConnMaker("tcp", address, timeout)
}

// BackingOffTCPConnMaker is a TCPConnMaker that retries a single connection
// attempt with exponential backoff before giving up.  It is used for the
// CONNECTING step of the ASAP3 connection state machine: the outer state
// machine already re-enters RESOLVING/CONNECTING every 5s on failure, so
// this only smooths over the kind of transient refusals that clear up in
// well under that window (a listener mid-restart, a half-open socket still
// draining).
func BackingOffTCPConnMaker(address string, timeout time.Duration) CreationFunc {
	return func() (io.ReadWriteCloser, error) {
		var (
			conn io.ReadWriteCloser
			err  error
		)

		op := func() error {
			conn, err = net.DialTimeout("tcp", address, timeout)
			return err
		}
		err = backoff.Retry(op, &backoff.ExponentialBackOff{
			InitialInterval:     100 * time.Millisecond,
			RandomizationFactor: 0,
			Multiplier:          2,
			MaxInterval:         2 * time.Second,
			MaxElapsedTime:      4 * time.Second,
			Clock:               backoff.SystemClock})

		return conn, err
	}
}

// ResolveTCP resolves host:port into a *net.TCPAddr.  Split out from dialing
// so the ASAP3 connection state machine can report RESOLVING and CONNECTING
// as distinct, separately-retried phases.
func ResolveTCP(host string, port uint16) (*net.TCPAddr, error) {
	return net.ResolveTCPAddr("tcp", net.JoinHostPort(host, strconv.Itoa(int(port))))
}
