package main

import (
	"os"

	veacmder "github.com/dfernandezmOnesec/vea-connect-go/cmd/vea"
)

func main() {
	cmd := veacmder.NewVeaCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
