package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gnemet/listview/internal/viewdef"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: listview-validate <definition1> [definition2] ...")
		fmt.Println("       listview-validate -schema")
		os.Exit(1)
	}

	if os.Args[1] == "-schema" {
		os.Stdout.Write(viewdef.Schema())
		return
	}

	allValid := true
	for _, path := range os.Args[1:] {
		def, err := viewdef.Load(path)
		if err != nil {
			fmt.Printf("❌ %s is invalid!\n", filepath.Base(path))
			fmt.Printf("   - %v\n", err)
			allValid = false
			continue
		}
		fmt.Printf("✅ %s is valid (list %q, %d fields).\n", filepath.Base(path), def.List, len(def.ViewFields))
	}

	if !allValid {
		os.Exit(1)
	}
}
