// Package services implements the driving port interfaces.
// Services contain the core business logic of the retrieval pipeline
// and orchestrate calls to driven ports (adapters).
//
// Services are pure Go with no CGO dependencies; every collaborator is
// injected through a driven port.
package services
