package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"medical-intake-agent/internal/config"
	"medical-intake-agent/internal/diagnosis"
	"medical-intake-agent/internal/export"
	"medical-intake-agent/internal/intake"
	"medical-intake-agent/internal/llm"
)

// Interactive consultation in the terminal, running the same pipeline as the
// HTTP server but in-process.
func main() {
	cfg := config.Load()
	// Keep structured logs out of the chat transcript.
	zerolog.SetGlobalLevel(zerolog.Disabled)

	if cfg.OpenRouter.APIKey == "" {
		fmt.Fprintln(os.Stderr, "OPENROUTER_API_KEY is not set; cannot start a consultation.")
		os.Exit(1)
	}

	aiClient := llm.NewClient(cfg.OpenRouter)
	lookupClient := diagnosis.NewClient(cfg.Diagnosis)
	svc := intake.NewService(intake.NewMemoryRepository(), aiClient, lookupClient, true)

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	ctx := context.Background()
	session, err := svc.Start(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start consultation: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Medical intake console. Commands: /assess | /export <json|csv|pdf> | /reset | /exit")
	fmt.Println()
	printAssistant(session.Turns[len(session.Turns)-1].Text)

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch {
		case input == "/exit" || input == "/quit":
			return

		case input == "/reset":
			_ = svc.Reset(ctx, session.ID)
			session, err = svc.Start(ctx)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Failed to restart: %v\n", err)
				return
			}
			fmt.Println("Started a new consultation.")
			printAssistant(session.Turns[len(session.Turns)-1].Text)

		case input == "/assess":
			session, err = svc.GenerateAssessment(ctx, session.ID)
			if err != nil {
				if errors.Is(err, intake.ErrNotReady) {
					fmt.Println("The interview isn't finished yet; keep answering questions.")
					continue
				}
				fmt.Fprintf(os.Stderr, "Assessment failed: %v\n", err)
				continue
			}
			printReport(renderer, session.Report)

		case strings.HasPrefix(input, "/export"):
			writeExport(ctx, svc, session.ID, strings.TrimSpace(strings.TrimPrefix(input, "/export")))

		default:
			session, err = svc.HandleMessage(ctx, session.ID, input)
			if err != nil {
				if errors.Is(err, intake.ErrInterviewOver) {
					fmt.Println("The interview is finished. Use /export or /reset.")
					continue
				}
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				continue
			}
			printAssistant(session.Turns[len(session.Turns)-1].Text)
			if session.Phase == intake.PhaseAssessmentReady {
				fmt.Println("\nEnough information gathered. Type /assess to generate your report.")
			}
		}
	}
}

func printAssistant(text string) {
	fmt.Printf("\nAssistant: %s\n", text)
}

func printReport(renderer *glamour.TermRenderer, report string) {
	if renderer != nil {
		if out, err := renderer.Render(report); err == nil {
			fmt.Println(out)
			return
		}
	}
	fmt.Println(report)
}

func writeExport(ctx context.Context, svc intake.Service, id uuid.UUID, format string) {
	if format == "" {
		format = "json"
	}

	session, err := svc.Get(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		return
	}

	var data []byte
	switch format {
	case "json":
		data, err = export.JSON(session)
	case "csv":
		data, err = export.CSV(session)
	case "pdf":
		data, err = export.PDF(session)
	default:
		fmt.Println("Unsupported format; use json, csv or pdf.")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		return
	}

	name := fmt.Sprintf("medical_consultation_%s.%s", session.ID, format)
	if err := os.WriteFile(name, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		return
	}
	fmt.Printf("Wrote %s\n", name)
}
