// Package throttle provides a [transport.Factory] decorator that rate-limits
// transfers using a token-bucket algorithm from [golang.org/x/time/rate].
//
// # Usage
//
// Wrap an existing factory with [NewFactory]:
//
//	f, err := throttle.NewFactory(
//		10, // transfers per second
//		5,  // burst capacity
//		func() *slog.Logger { return slog.Default() },
//		transport.NewHTTP(nil),
//	)
//
// When the rate limit is exceeded, Perform blocks until a token becomes
// available or the transfer's context is cancelled.
//
// [transport.Factory]: github.com/adamwoolhether/easyhttp/client/transport.Factory
package throttle
