package main

import (
	"os"

	infctxcmder "github.com/infinitecontext/infctx/cmd/infctx"
)

func main() {
	cmd := infctxcmder.NewInfctxCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
