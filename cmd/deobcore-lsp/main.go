// SPDX-License-Identifier: Apache-2.0
package main

import (
	"log"
	"os"

	"github.com/tliron/commonlog"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"deobcore/internal/analysis"
	"deobcore/internal/lspsrv"
)

const lsName = "deobcore"

var (
	version = "0.1.0"
	handler protocol.Handler
)

func main() {
	commonlog.Configure(1, nil)

	deobHandler := lspsrv.NewHandler(analysis.Options{EnableRenaming: true})

	handler = protocol.Handler{
		Initialize:            deobHandler.Initialize,
		Initialized:           deobHandler.Initialized,
		Shutdown:              deobHandler.Shutdown,
		TextDocumentDidOpen:   deobHandler.TextDocumentDidOpen,
		TextDocumentDidClose:  deobHandler.TextDocumentDidClose,
		TextDocumentDidChange: deobHandler.TextDocumentDidChange,
	}

	s := server.NewServer(&handler, lsName, false)

	log.Printf("Starting deobcore LSP server (%s)...\n", version)

	if err := s.RunStdio(); err != nil {
		log.Println("Error starting deobcore LSP server:", err)
		os.Exit(1)
	}
}
