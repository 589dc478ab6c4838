// Package services defines the shared failure taxonomy for pipeline stages.
//
// Pipeline code wraps stage errors with sentinel markers so the coordinator
// can classify a failure at the pipeline boundary and translate it into one
// short on-screen notification without inspecting error strings.
package services
