// seehuhn.de/go/stamp - place text and images on PDF pages
// Copyright (C) 2026  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package buildinfo reports the version of the stamp command line tools.
package buildinfo

import (
	"runtime/debug"
)

// Info describes the build of the running binary.
type Info struct {
	Module   string
	Version  string // module version, empty for development builds
	Revision string // abbreviated VCS revision
	Dirty    bool
}

// Read returns the build information embedded by the Go toolchain.
func Read() Info {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return Info{}
	}
	info := Info{Module: bi.Main.Path}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.Revision = s.Value
			if len(info.Revision) > 8 {
				info.Revision = info.Revision[:8]
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		}
	}
	return info
}

// String formats the build information for the -version flag of a tool,
// e.g. "pdf-stamp (seehuhn.de/go/stamp v0.2.0)".
func (info Info) String(tool string) string {
	v := info.Version
	if v == "" {
		v = info.Revision
		if v != "" && info.Dirty {
			v += "+dirty"
		}
	}
	if info.Module == "" || v == "" {
		return tool
	}
	return tool + " (" + info.Module + " " + v + ")"
}
