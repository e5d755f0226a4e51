// Package main provides fabricdump, a command-line utility to inspect
// FabricDB graph files.
package main

import "github.com/fabricdb/fabric/cmd/fabricdump/cmd"

func main() {
	cmd.Execute()
}
