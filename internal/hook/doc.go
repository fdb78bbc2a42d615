// Package hook implements the extension-point substrate of repobee.
//
// The host declares a fixed table of hook specifications at startup.
// Plugins contribute implementations that are validated against that
// table when the plugin is loaded. Core hooks resolve to exactly one
// implementation (the most recently activated plugin wins over the
// host default); extension hooks fan out to every active
// implementation in activation order.
package hook
