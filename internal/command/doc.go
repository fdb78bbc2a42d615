// Package command assembles the category/action/argument tree that
// makes up the repobee CLI.
//
// Actions are declared as data: an ordered list of Argument
// descriptors plus a body. The tree builder merges host declarations
// with plugin-contributed categories and extensions, then renders the
// merged tree to cobra commands. At invocation time the binder
// resolves every argument from CLI input, the configuration file, or
// the compiled-in default, in that order, and hands the body a plain
// value set.
package command
