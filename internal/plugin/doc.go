// Package plugin implements plugin discovery, activation, and loading.
//
// A plugin is a named, versioned unit contributing hook
// implementations and command declarations through an explicit
// Manifest. Plugins are located by stable identifier in a Catalog;
// the Loader turns the persisted activation list plus any transiently
// requested plugins into the ordered active set for one invocation.
// Nothing persists in memory across invocations.
package plugin
