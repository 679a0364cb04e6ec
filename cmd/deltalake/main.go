package main

import (
	"github.com/datazip-inc/deltalake/protocol"
	"github.com/datazip-inc/deltalake/utils/logger"
)

func main() {
	if err := protocol.CreateRootCommand().Execute(); err != nil {
		logger.Fatal(err)
	}
}
