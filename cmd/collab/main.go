package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/shahin-grc/collab/internal/config"
	"github.com/shahin-grc/collab/internal/protocol/wire"
	"github.com/shahin-grc/collab/internal/session"
	"github.com/shahin-grc/collab/pkg/logger"
	"github.com/shahin-grc/collab/sdk"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	configureLogging(cfg)

	args, showedHelp, err := parseFlags(cfg, os.Args[1:])
	if err != nil {
		return err
	}
	if showedHelp {
		printUsage()
		return nil
	}

	if cfg.Debug {
		log.Printf("Config: WSURL=%s, Home=%s", cfg.WSURL, cfg.Home)
	}

	if len(args) > 0 {
		switch args[0] {
		case "watch":
			return watchCommand(cfg, args[1:])
		case "help", "--help", "-h":
			printUsage()
			return nil
		case "version", "--version", "-v":
			fmt.Println("collab-cli v1.0.0")
			return nil
		default:
			return fmt.Errorf("unknown command %q (see 'collab help')", args[0])
		}
	}

	printUsage()
	return nil
}

// watchCommand connects, joins the requested rooms and tails collaboration
// traffic until interrupted.
func watchCommand(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	assessmentID := fs.String("assessment", "", "Assessment ID to watch")
	documentID := fs.String("document", "", "Document ID to watch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *assessmentID == "" && *documentID == "" {
		return fmt.Errorf("watch requires --assessment or --document")
	}

	tokenData, err := os.ReadFile(cfg.AccessKey)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	token := string(tokenData)

	client := sdk.New(cfg)
	if err := client.Connect(token); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Disconnect()

	client.Subscribe(wire.EventConnectionStatus, func(p any) {
		st, ok := p.(session.Status)
		if !ok {
			return
		}
		if st.Connected {
			log.Printf("connected (socket=%s)", st.SocketID)
		} else {
			log.Printf("disconnected: %s", st.Reason)
		}
	})
	client.Subscribe(wire.EventConnectionError, func(p any) {
		if ce, ok := p.(session.ConnectionError); ok {
			log.Printf("connection error (attempt %d/%d): %s", ce.Attempts, cfg.MaxReconnects, ce.Error)
		}
	})

	if *assessmentID != "" {
		view := client.Assessment(*assessmentID)
		defer view.Close()
		log.Printf("watching assessment %s", *assessmentID)

		client.Subscribe(wire.EventAssessmentUpdated, func(p any) {
			var u wire.AssessmentUpdated
			if wire.Decode(p, &u) == nil && u.AssessmentID == *assessmentID {
				log.Printf("[%s] %s = %v (by %s)", u.AssessmentID, u.Field, u.Value, u.UpdatedBy)
			}
		})
	}

	if *documentID != "" {
		view := client.Document(*documentID)
		defer view.Close()
		log.Printf("watching document %s", *documentID)

		client.Subscribe(wire.EventDocumentEdited, func(p any) {
			var e wire.DocumentEdited
			if wire.Decode(p, &e) == nil && e.DocumentID == *documentID {
				log.Printf("[%s] %s by %s (%d bytes)", e.DocumentID, e.Operation, e.EditedBy, len(e.Content))
			}
		})
		client.Subscribe(wire.EventUserTyping, func(p any) {
			var u wire.UserTyping
			if wire.Decode(p, &u) == nil && u.ResourceID == *documentID {
				log.Printf("[%s] %s typing: %s", u.ResourceID, u.UserID, u.Action)
			}
		})
	}

	client.Subscribe(wire.EventWorkflowNotification, func(any) {
		log.Printf("inbox: %d notifications (%d unread)", client.Inbox().Len(), client.Inbox().UnreadCount())
	})

	log.Println("Watching. Press Ctrl+C to exit.")
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

func configureLogging(cfg *config.Config) {
	if cfg.Debug {
		logger.SetLevel(logger.LevelDebug)
		return
	}
	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
}

func parseFlags(cfg *config.Config, args []string) ([]string, bool, error) {
	fs := flag.NewFlagSet("collab", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	wsURL := fs.String("ws-url", "", "Collaboration server URL")
	debug := fs.Bool("debug", false, "Enable debug logging")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	if *showHelp {
		return nil, true, nil
	}

	if *wsURL != "" {
		cfg.WSURL = *wsURL
	}
	if *debug {
		cfg.Debug = true
		logger.SetLevel(logger.LevelDebug)
	}

	return fs.Args(), false, nil
}

func printUsage() {
	fmt.Println(`collab - real-time collaboration client for the Shahin GRC platform

Usage:
  collab watch --assessment <id>   Tail live updates for an assessment
  collab watch --document <id>     Tail live edits for a document
  collab help                      Show this help message
  collab version                   Show version information

Environment Variables:
  SHAHIN_WS_URL             Collaboration server URL (default: http://localhost:3006)
  SHAHIN_WS_DISABLED        Disable the websocket layer (true/1)
  SHAHIN_WS_MAX_RECONNECTS  Reconnect attempt ceiling (default: 5)
  SHAHIN_HOME_DIR           Config directory (default: ~/.shahin)
  SHAHIN_LOG_LEVEL          Log level (trace|debug|info|warn|error)
  DEBUG                     Enable debug logging (true/1)

Flags:
  --ws-url   Collaboration server URL
  --debug    Enable debug logging

Examples:
  # Watch an assessment on a local server
  SHAHIN_WS_URL=http://localhost:3006 collab watch --assessment A1

  # Watch a document with debug logging
  collab watch --document doc1 --debug`)
}
