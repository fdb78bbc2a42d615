package hook

// Well-known hook names declared by the host. Plugins implement these
// by exact name match.
const (
	// SelectPlatform (core) chooses the platform API binding for the
	// invocation. Params: config, base_url, token, org. Returns a
	// platform.API.
	SelectPlatform = "select_platform"

	// RepoName (core) generates a repository name from a team and an
	// assignment. Params: team, assignment. Returns a string.
	RepoName = "repo_name"

	// PostSetup (extension) fires once per repository after
	// "repos setup" has created or updated it. Params: repo, api.
	PostSetup = "post_setup"

	// PostClone (extension) fires once per repository after
	// "repos clone" has materialized it. Params: repo, api.
	PostClone = "post_clone"

	// ConfigHook (extension) fires once at startup so plugins can
	// validate their configuration section. Params: config.
	ConfigHook = "config_hook"
)

// Specs returns the host's hook spec table. It is built fresh per call
// so callers can never mutate the canonical declarations.
func Specs() []Spec {
	return []Spec{
		{Name: SelectPlatform, Kind: Core, Params: []string{"config", "base_url", "token", "org"}},
		{Name: RepoName, Kind: Core, Params: []string{"team", "assignment"}},
		{Name: PostSetup, Kind: Extension, Params: []string{"repo", "api"}},
		{Name: PostClone, Kind: Extension, Params: []string{"repo", "api"}},
		{Name: ConfigHook, Kind: Extension, Params: []string{"config"}},
	}
}
