// Package reconnect decides whether and when to retry a dropped connection.
//
// A Policy moves between three states:
//   - Connected: the transport is open
//   - Reconnecting: retries are scheduled with exponential backoff
//   - GivenUp: the attempt ceiling was exceeded; only Reset leaves it
//
// Every scheduled attempt is reported to an AttemptObserver so reconnect
// metrics stay exact. Timer holds at most one pending retry and can cancel it.
package reconnect
