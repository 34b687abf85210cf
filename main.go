package main

import (
	"github.com/AzielCF/az-wap/cmd"
)

func main() {
	cmd.Execute()
}
