package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"

	"github.com/webgate-io/authgate/adapters/challenge"
	"github.com/webgate-io/authgate/adapters/events"
	"github.com/webgate-io/authgate/adapters/store"
	"github.com/webgate-io/authgate/core"
	"github.com/webgate-io/authgate/internal/config"
	"github.com/webgate-io/authgate/ports"
	"github.com/webgate-io/authgate/service"
	transport "github.com/webgate-io/authgate/transport/http"
)

// Route metadata for the demo navigation targets.
var routes = map[string]core.RouteRule{
	"/":          {},
	"/login":     {RequiresGuest: true},
	"/register":  {RequiresGuest: true},
	"/my-videos": {RequiresAuth: true},
	"/upload":    {RequiresAuth: true},
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	// Session store: Redis when configured, a session file otherwise.
	var (
		kv          ports.KeyValueStore
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Failed to parse Redis URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		kv = store.NewRedisStore(redisClient)
	} else {
		fileStore, err := store.NewFileStore(cfg.StorePath)
		if err != nil {
			log.Fatalf("Failed to open session store: %v", err)
		}
		kv = fileStore
	}

	// Lifecycle events ride Redis streams alongside a Redis store, and an
	// in-process channel otherwise.
	logger := watermill.NewStdLogger(false, false)
	var publisher message.Publisher
	if redisClient != nil {
		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: redisClient},
			logger,
		)
		if err != nil {
			log.Fatalf("Failed to create Redis publisher: %v", err)
		}
	} else {
		publisher = gochannel.NewGoChannel(gochannel.Config{}, logger)
	}
	eventPub := events.NewWatermillPublisher(publisher)

	sessions := service.NewSessionService(kv, eventPub)
	nav := ports.NavigatorFunc(func(path string) {
		log.Printf("-> navigated to %s", path)
	})
	client := transport.NewClient(cfg.APIBaseURL, sessions, nav, eventPub, cfg.LoginPath)

	switch os.Args[1] {
	case "login":
		requireArgs(3, "login <username> <password>")
		auth := service.NewAuthService(client, sessions)
		user, err := auth.Login(ctx, os.Args[2], os.Args[3])
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		fmt.Printf("logged in as %s (id %d)\n", user.Username, user.ID)

	case "register":
		requireArgs(4, "register <username> <email> <password>")
		auth := service.NewAuthService(client, sessions)
		user, err := auth.Register(ctx, os.Args[2], os.Args[3], os.Args[4])
		if err != nil {
			log.Fatalf("Registration failed: %v", err)
		}
		fmt.Printf("registered as %s (id %d)\n", user.Username, user.ID)

	case "logout":
		auth := service.NewAuthService(client, sessions)
		if err := auth.Logout(ctx); err != nil {
			log.Fatalf("Logout failed: %v", err)
		}
		fmt.Println("logged out")

	case "whoami":
		user := sessions.User(ctx)
		if user == nil {
			fmt.Println("not logged in")
			return
		}
		fmt.Printf("%s (id %d)\n", user.Username, user.ID)
		if exp, ok := sessions.TokenExpiresAt(ctx); ok {
			fmt.Printf("token expires %s\n", exp.Format("2006-01-02 15:04:05"))
		}

	case "open":
		requireArgs(2, "open <path>")
		target := os.Args[2]
		guard := service.NewGuard(sessions, cfg.LoginPath, cfg.DefaultPath)
		dest := guard.Navigate(ctx, target, routes[target], nav)
		if dest != target {
			fmt.Printf("redirected to %s\n", dest)
		}

	case "shorten":
		requireArgs(2, "shorten <url> [custom-code]")
		customCode := ""
		if len(os.Args) > 3 {
			customCode = os.Args[3]
		}
		runShorten(ctx, cfg, client, os.Args[2], customCode)

	default:
		usage()
	}
}

func runShorten(ctx context.Context, cfg *config.Config, client *transport.Client, url, customCode string) {
	var (
		provider ports.ChallengeProvider
		answer   string
	)

	if cfg.ChallengeMode == "delegated" {
		verifierURL := cfg.VerifierURL
		if verifierURL == "" {
			verifierURL = cfg.APIBaseURL + "/api/verify"
		}
		verifier := challenge.NewHTTPVerifier(client.HTTPClient(), verifierURL)
		delegated := challenge.NewDelegatedProvider(verifier, cfg.VerifierAction)
		// An HTTP verifier is ready as soon as it exists.
		delegated.SignalReady()
		provider = delegated
	} else {
		puzzle := challenge.NewPuzzleProvider(client.HTTPClient(), cfg.APIBaseURL+cfg.CaptchaPath)
		if _, err := puzzle.Issue(ctx); err != nil {
			log.Fatalf("Failed to fetch captcha: %v", err)
		}
		answer = promptForAnswer(puzzle.Current())
		provider = puzzle
	}

	submitter := service.NewSubmitter(client, provider, service.SubmitterConfig{
		AllowCustomCode: cfg.AllowCustomCode,
	}, nil)

	link, err := submitter.Submit(ctx, service.SubmissionInput{
		URL:        url,
		CustomCode: customCode,
		Answer:     answer,
	})
	if err != nil {
		log.Fatalf("Shorten failed: %v", err)
	}

	fmt.Println(link.ShortURL)
}

// promptForAnswer writes the puzzle image to a temp file and reads the
// solution from stdin.
func promptForAnswer(ch *core.Challenge) string {
	path := filepath.Join(os.TempDir(), "authgate-captcha.png")
	if err := os.WriteFile(path, ch.Presentation, 0o600); err != nil {
		log.Fatalf("Failed to write captcha image: %v", err)
	}

	fmt.Printf("captcha image written to %s\nanswer: ", path)

	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		log.Fatalf("No answer provided")
	}

	return scanner.Text()
}

func requireArgs(n int, usageLine string) {
	if len(os.Args) < n+1 {
		log.Fatalf("usage: authgate %s", usageLine)
	}
}

func usage() {
	log.Fatalf("usage: authgate <login|register|logout|whoami|open|shorten> [args]")
}
