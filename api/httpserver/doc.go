// Package httpserver provides the reusable HTTP server the worker and
// directory binaries are built on.
//
// BaseServer wires standard middleware, structured request logging, a
// metrics listener, and the usual operational endpoints so components
// only register their own routes through RouteRegistrar.
//
// # Health and diagnostics
//
// Every server built with BaseServer includes:
//
//   - Liveness check (/livez)
//   - Readiness check (/readyz)
//   - Drain control for load balancers (/drain, /undrain)
//   - Optional pprof profiling (/debug)
package httpserver
