// Package workspace places the source and distribution working trees under a
// base directory and removes them again when cleanup is requested.
//
// A Tree records whether the current run owns it. Only owned trees are ever
// removed, so a pre-existing directory that made checkout fail survives cleanup.
package workspace
