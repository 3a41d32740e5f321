// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	ManifestNotFoundId Id = iota + 1
	NotManageableId
	NoServicesFoundId
	AmbiguousServiceId
	ServiceNotFoundId
	BulkSelectionId
	IntegrityViolationId
	ElevationLoopId
	HelperNotFoundId
	SupervisorNotFoundId
	BuildFailedId
	ServiceStartFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also:\n"
		for _, link := range i.docLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			extraMd += "- <" + string(link) + ">\n"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	manifestNotFoundIssue = &Issue{
		id: ManifestNotFoundId,
		mdMsg: `
# No Cargo.toml found!

corky installs the package in the current directory, but there is no
Cargo.toml here.

## Things you can try:
- Change into the package directory and retry:
~~~
$ cd /path/to/corky-package
$ corky install
~~~

- To remove an installed service from anywhere, name it:
~~~
$ corky uninstall alpha
~~~`,
	}

	notManageableIssue = &Issue{
		id: NotManageableId,
		mdMsg: `
# This does not appear to be a Corky package.

Only Corky packages can be installed with corky. A Corky package must have a
[corky] section with is_corky_package = true in Cargo.toml.

## Things you can try:
- Add the marker to Cargo.toml:
~~~toml
[corky]
is_corky_package = true
~~~`,
	}

	noServicesFoundIssue = &Issue{
		id: NoServicesFoundId,
		mdMsg: `
# No Corky services found.

Neither the user nor the system service manager has a corky- unit installed.

## Things you can try:
- Install a service from its package directory:
~~~
$ corky install
~~~

- List what systemd knows about:
~~~
$ systemctl list-unit-files 'corky-*.service'
$ systemctl --user list-unit-files 'corky-*.service'
~~~`,
	}

	ambiguousServiceIssue = &Issue{
		id: AmbiguousServiceId,
		mdMsg: `
# More than one service matches!

The selector matches several installed services, possibly the same name in
both the user and the system scope.

## Things you can try:
- Pick one interactively:
~~~
$ corky status interactive
~~~

- See every installed service with its scope:
~~~
$ corky list
~~~`,
	}

	serviceNotFoundIssue = &Issue{
		id: ServiceNotFoundId,
		mdMsg: `
# Service not found!

No installed service has that name. Names may be given with or without the
corky- prefix.

## Things you can try:
- List installed services:
~~~
$ corky list
~~~

- Use tab completion for service names:
~~~
$ corky completion --help
~~~`,
	}

	bulkSelectionIssue = &Issue{
		id: BulkSelectionId,
		mdMsg: `
# Cannot perform this operation on all services.

Please specify a single service name.

## Things you can try:
~~~
$ corky list
$ corky restart alpha
~~~`,
	}

	integrityViolationIssue = &Issue{
		id: IntegrityViolationId,
		mdMsg: `
# The build artifact changed after it was built!

The binary corky built as your user is not the binary it was about to install
as root. Nothing was installed.

## Things you can try:
- Make sure no other process writes to target/release while installing
- Rebuild and install again:
~~~
$ cargo clean --release
$ corky install
~~~`,
	}

	elevationLoopIssue = &Issue{
		id: ElevationLoopId,
		mdMsg: `
# Elevation loop detected!

corky was re-executed through sudo but still does not have root privileges,
so it refused to elevate again.

## Things you can try:
- Check that sudo actually grants root to your user:
~~~
$ sudo -l
~~~

- Run the command as root directly:
~~~
$ sudo corky install
~~~`,
	}

	helperNotFoundIssue = &Issue{
		id: HelperNotFoundId,
		mdMsg: `
# sudo not found!

This operation needs root privileges and corky uses sudo to obtain them.

## Things you can try:
- Install sudo, or run corky as root
- Point corky at another helper in config.cue:
~~~cue
tools: sudo: "/usr/local/bin/doas-sudo-shim"
~~~`,
	}

	supervisorNotFoundIssue = &Issue{
		id: SupervisorNotFoundId,
		mdMsg: `
# systemd tools not found!

corky drives services through systemctl and journalctl, and could not run them.

## Things you can try:
- Make sure the host boots with systemd
- Configure the tool paths in config.cue:
~~~cue
tools: {
	systemctl:  "/usr/bin/systemctl"
	journalctl: "/usr/bin/journalctl"
}
~~~`,
	}

	buildFailedIssue = &Issue{
		id: BuildFailedId,
		mdMsg: `
# Build failed!

The release build did not succeed, so there is nothing to install.

## Things you can try:
- Run the build yourself to see the full output:
~~~
$ cargo build --release
~~~

- Change the build command in config.cue (see 'corky config show')`,
	}

	serviceStartFailedIssue = &Issue{
		id: ServiceStartFailedId,
		mdMsg: `
# The service was installed but failed to start!

The binary and unit file are in place and the unit is enabled.

## Things you can try:
- Inspect the unit state and its recent log with the commands printed above
- Fix the problem and restart:
~~~
$ corky restart <name>
~~~`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

There was an error loading your corky configuration file.

## Config file location:
- Linux: ~/.config/corky/config.cue
- Or the file named by --config / CORKY_CONFIG

## Things you can try:
- Check the file for CUE syntax errors
- Show the effective configuration:
~~~
$ corky config show
~~~

- Write a fresh default configuration:
~~~
$ corky config init
~~~`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

You don't have permission to perform this operation.

## Common causes:
- Writing to /usr/local/bin or /etc/systemd/system without root
- Controlling a system-scope service as a regular user

## Things you can try:
- Let corky elevate through sudo (the default)
- Install to user-writable directories by changing paths in config.cue`,
	}

	issues = map[Id]*Issue{
		manifestNotFoundIssue.Id():   manifestNotFoundIssue,
		notManageableIssue.Id():      notManageableIssue,
		noServicesFoundIssue.Id():    noServicesFoundIssue,
		ambiguousServiceIssue.Id():   ambiguousServiceIssue,
		serviceNotFoundIssue.Id():    serviceNotFoundIssue,
		bulkSelectionIssue.Id():      bulkSelectionIssue,
		integrityViolationIssue.Id(): integrityViolationIssue,
		elevationLoopIssue.Id():      elevationLoopIssue,
		helperNotFoundIssue.Id():     helperNotFoundIssue,
		supervisorNotFoundIssue.Id(): supervisorNotFoundIssue,
		buildFailedIssue.Id():        buildFailedIssue,
		serviceStartFailedIssue.Id(): serviceStartFailedIssue,
		configLoadFailedIssue.Id():   configLoadFailedIssue,
		permissionDeniedIssue.Id():   permissionDeniedIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	all := maps.Values(issues)
	slices.SortFunc(all, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return all
}

func Get(id Id) *Issue {
	return issues[id]
}
