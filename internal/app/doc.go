// Package app wires the launch pipeline together: configuration, logging,
// the composer and the supervisor. The CLI stays a thin shell around it so
// the whole flow is drivable from tests.
package app
