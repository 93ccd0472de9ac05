// Command boardwatch follows one project's Kanban board from the terminal.
// It loads the tasks over the REST API, then keeps them current through the
// realtime feed and prints the column counts after every change.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"projecthub-api/internal/logging"
	"projecthub-api/internal/models"
	"projecthub-api/internal/realtime"
	"projecthub-api/internal/reports"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("PROJECTHUB_API", "http://localhost:8008"), "API base URL")
	token := flag.String("token", os.Getenv("PROJECTHUB_TOKEN"), "bearer token from /api/auth/login")
	projectID := flag.String("project", "", "project id to watch")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logging.Setup(*level, false)
	if *projectID == "" || *token == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	base := strings.TrimRight(*apiURL, "/")
	feedURL, err := realtimeURL(base, *projectID)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid api url")
	}

	client := &http.Client{Timeout: 15 * time.Second}
	list := realtime.NewList[models.Task](nil)
	sub := &realtime.Subscriber[models.Task]{
		URL:   feedURL,
		Token: *token,
		List:  list,
		Resync: func(ctx context.Context) ([]models.Task, error) {
			tasks, err := fetchTasks(ctx, client, base, *token, *projectID)
			if err == nil {
				log.Info().Int("tasks", len(tasks)).Msg("board loaded")
				printBoard(tasks)
			}
			return tasks, err
		},
		OnChange: func(msg realtime.Message) {
			ev := log.Info().Str("event", string(msg.Type))
			if msg.Old != nil {
				ev = ev.Str("task_id", msg.Old.ID)
			}
			ev.Msg("task changed")
			printBoard(list.Snapshot())
		},
	}

	if err := sub.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("watch stopped")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func realtimeURL(base, projectID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/api/realtime"
	q := url.Values{}
	q.Set("table", "tasks")
	q.Set("filter", "projectId=eq."+projectID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func fetchTasks(ctx context.Context, client *http.Client, base, token, projectID string) ([]models.Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		base+"/api/projects/"+url.PathEscape(projectID)+"/tasks", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&body)
		return nil, fmt.Errorf("list tasks: %s: %s", resp.Status, body.Error)
	}

	var body struct {
		Tasks []models.Task `json:"tasks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	return body.Tasks, nil
}

func printBoard(tasks []models.Task) {
	for _, col := range reports.Board(tasks) {
		fmt.Printf("%-12s %3d\n", col.Title, len(col.Tasks))
	}
	fmt.Println()
}
