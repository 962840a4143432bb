// Package command runs external build tools (git, cmake, xcodebuild) behind
// the Runner interface.
package command
