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

// Licensify adds the license header to all Go source files below the
// current directory which do not have one yet.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
)

const header = `// seehuhn.de/go/stamp - place text and images on PDF pages
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

`

// status is the outcome for a single file.
type status int

const (
	unchanged status = iota
	updated
	attention // neither a header nor a package clause at the start
)

func main() {
	dryRun := flag.Bool("n", false, "only list the files which would be changed")
	flag.Parse()

	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skipDir(d.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}

		st, err := licensify(path, *dryRun)
		switch {
		case err != nil:
			return err
		case st == updated:
			fmt.Println("updating " + path)
		case st == attention:
			fmt.Println("ATTENTION " + path)
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}

// skipDir reports whether a directory is excluded from the walk:
// hidden directories, and directories which the go tool ignores.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata"
}

func licensify(path string, dryRun bool) (status, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return unchanged, err
	}
	if bytes.HasPrefix(body, []byte(header)) {
		return unchanged, nil
	}
	if !bytes.HasPrefix(body, []byte("package ")) && !bytes.HasPrefix(body, []byte("// Package ")) {
		return attention, nil
	}
	if dryRun {
		return updated, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return unchanged, err
	}
	out := make([]byte, 0, len(header)+len(body))
	out = append(out, header...)
	out = append(out, body...)
	err = os.WriteFile(path, out, info.Mode().Perm())
	if err != nil {
		return unchanged, err
	}
	return updated, nil
}
