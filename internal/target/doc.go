// Package target defines the build platforms tpbuild can run on and the
// targets it can produce libraries for. Both are closed sets: parsing an
// unknown value yields a typed error rather than a silent default.
package target
