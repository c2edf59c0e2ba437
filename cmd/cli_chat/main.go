package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"moodcheck/internal/config"
	"moodcheck/internal/domain"
	"moodcheck/internal/predictor"
	"moodcheck/internal/repository"
	"moodcheck/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client, err := predictor.New(cfg.PredictorMode, cfg.PredictorBaseURL, cfg.PredictorTimeout, logger)
	if err != nil {
		log.Fatal(err)
	}

	reveals := make(chan domain.Session, 4)
	svc := service.NewConversationService(
		repository.NewMemorySessionRepository(0),
		client,
		logger,
		service.WithRevealDelay(cfg.RevealDelay),
		service.WithRevealHook(func(s domain.Session) {
			select {
			case reveals <- s:
			default:
			}
		}),
	)
	defer svc.Close()

	c := newChat(svc, os.Stdin, os.Stdout, reveals)
	if err := c.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("chat: %v", err)
	}
}

type chat struct {
	svc     *service.ConversationService
	reader  *bufio.Reader
	out     io.Writer
	reveals <-chan domain.Session

	epoch   int
	printed int
}

func newChat(svc *service.ConversationService, in io.Reader, out io.Writer, reveals <-chan domain.Session) *chat {
	return &chat{
		svc:     svc,
		reader:  bufio.NewReader(in),
		out:     out,
		reveals: reveals,
	}
}

func (c *chat) run(ctx context.Context) error {
	session, err := c.svc.Create(ctx)
	if err != nil {
		return fmt.Errorf("crear sesion: %w", err)
	}
	defer func() { _ = c.svc.Discard(context.Background(), session.ID) }()

	fmt.Fprintln(c.out, "===== Chatbot (escribe 'salir' para terminar) =====")
	for {
		c.render(session)

		switch {
		case session.State == domain.StateRevealing:
			select {
			case s := <-c.reveals:
				if s.ID == session.ID {
					session = s
				}
			case <-ctx.Done():
				return ctx.Err()
			}
			continue

		case session.Affordances().AnswerVisible:
			text, ok, err := c.prompt("Tu > ")
			if err != nil || !ok {
				return err
			}
			session, err = c.svc.SubmitAnswer(ctx, session.ID, text)
			if err != nil {
				return fmt.Errorf("responder: %w", err)
			}

		default:
			if session.Affordances().RetryAvailable {
				fmt.Fprintln(c.out, "Escribe 'retry' para reenviar tus respuestas o ingresa otro usuario.")
			}
			text, ok, err := c.prompt("Username: ")
			if err != nil || !ok {
				return err
			}
			if session.Affordances().RetryAvailable && strings.EqualFold(text, "retry") {
				session, err = c.svc.RetrySubmission(ctx, session.ID)
			} else {
				if text != "" {
					fmt.Fprintln(c.out, "Analizando...")
				}
				session, err = c.svc.StartAnalysis(ctx, session.ID, text)
			}
			if err != nil {
				return fmt.Errorf("analizar: %w", err)
			}
		}
	}
}

// render imprime los mensajes del bot que todavia no se mostraron.
func (c *chat) render(session domain.Session) {
	if session.LogEpoch != c.epoch {
		c.epoch = session.LogEpoch
		c.printed = 0
	}
	for _, m := range session.Messages[min(c.printed, len(session.Messages)):] {
		if m.Origin == domain.OriginSystem {
			fmt.Fprintf(c.out, "Bot > %s\n", m.Text)
		}
	}
	c.printed = len(session.Messages)
}

// prompt lee una linea; ok es false cuando el usuario quiere salir o no hay mas entrada.
func (c *chat) prompt(label string) (string, bool, error) {
	fmt.Fprint(c.out, label)
	line, err := c.reader.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", false, fmt.Errorf("leer input: %w", err)
		}
		if line == "" {
			return "", false, nil
		}
	}
	line = strings.TrimSpace(line)
	if strings.EqualFold(line, "salir") || strings.EqualFold(line, "exit") {
		fmt.Fprintln(c.out, "Saliendo del chat...")
		return "", false, nil
	}
	return line, true, nil
}
