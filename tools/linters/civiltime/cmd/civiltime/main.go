package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/rezkam/awe/tools/linters/civiltime"
)

func main() {
	singlechecker.Main(civiltime.Analyzer)
}
