// Package platform defines the capability contract that insulates
// repobee commands from any specific git hosting service.
//
// Commands are written exclusively against the API interface and never
// against a concrete service; a platform-binding plugin satisfies the
// contract and is selected per invocation through the select_platform
// core hook. Contract methods are synchronous and carry no retry
// semantics; retry policy, where needed, lives in the calling command.
package platform
