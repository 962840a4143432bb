// Package toolchain drives the native build for each target: it generates a
// project with CMake (Visual Studio, Xcode or Ninja with the Android NDK),
// builds the requested configurations, and copies the resulting static
// libraries into the consuming project's Libs/lib_CMake tree under the
// names the project expects.
package toolchain
