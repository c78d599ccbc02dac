// Package context assembles a working aura stack from configuration.
//
// Services bundles everything a deployment needs: file-backed stores under
// the state directory, the reasoning client, the tool registry, git, and
// observers. FromSettings maps resolved configuration onto the wiring,
// and the Engine and Controller methods build the workflow engine and
// lifecycle controller over the bundle.
//
//	settings, err := config.Load()
//	svcs, err := context.NewServices(context.FromSettings(settings, repoPath))
//	ctrl := svcs.Controller(svcs.Engine())
package context
