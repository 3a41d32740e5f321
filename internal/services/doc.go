// SPDX-License-Identifier: MPL-2.0

// Package services enumerates the installed members of the service family and
// resolves an operator's selector to exactly one of them.
//
// Records are produced fresh from the supervisor on every query; the package
// keeps no state between calls.
package services
