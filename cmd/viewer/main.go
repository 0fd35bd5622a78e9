// Command viewer is a small terminal client for the arena's REST API:
// it prints the leaderboard, or the game history of one account when
// an account id is given as argument.
package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

type config struct {
	ServerURL string        `envconfig:"SERVER_URL" default:"http://localhost:8080"`
	Limit     int           `envconfig:"LIMIT" default:"20"`
	Timeout   time.Duration `envconfig:"TIMEOUT" default:"5s"`
}

type profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
	GamesWon    int    `json:"games_won"`
	GamesLost   int    `json:"games_lost"`
	GamesDrawn  int    `json:"games_drawn"`
}

type record struct {
	SessionID string   `json:"session_id"`
	Class     string   `json:"class"`
	WhiteID   string   `json:"white_id"`
	BlackID   string   `json:"black_id"`
	Outcome   string   `json:"outcome"`
	Reason    string   `json:"reason"`
	Moves     []string `json:"moves"`
	Delta     int      `json:"delta"`
	PlayedAt  string   `json:"played_at"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Viewer terminated with error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	_ = godotenv.Load()

	var cfg config
	if err := envconfig.Process("viewer", &cfg); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	client := &http.Client{Timeout: cfg.Timeout}

	if len(os.Args) > 1 {
		if err := printHistory(client, cfg, os.Args[1]); err != nil {
			return exitRuntime, err
		}
		return exitOK, nil
	}

	if err := printLeaderboard(client, cfg); err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

func printLeaderboard(client *http.Client, cfg config) error {
	var profiles []profile
	url := fmt.Sprintf("%s/api/leaderboard?limit=%d", cfg.ServerURL, cfg.Limit)
	if err := fetch(client, url, &profiles); err != nil {
		return err
	}

	color.Bold.Printf("Leaderboard: top %d\n", len(profiles))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"#", "Username", "Rating", "Played", "Won", "Lost", "Drawn"})
	table.AppendBulk(lo.Map(profiles, func(p profile, i int) []string {
		return []string{
			strconv.Itoa(i + 1),
			p.Username,
			strconv.Itoa(p.Rating),
			strconv.Itoa(p.GamesPlayed),
			strconv.Itoa(p.GamesWon),
			strconv.Itoa(p.GamesLost),
			strconv.Itoa(p.GamesDrawn),
		}
	}))
	table.Render()
	return nil
}

func printHistory(client *http.Client, cfg config, accountID string) error {
	var records []record
	url := fmt.Sprintf("%s/api/account/%s/games?limit=%d", cfg.ServerURL, accountID, cfg.Limit)
	if err := fetch(client, url, &records); err != nil {
		return err
	}

	color.Bold.Printf("Last %d games of %s\n", len(records), accountID)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Session", "Class", "Outcome", "Reason", "Moves", "Delta", "Played at"})
	table.AppendBulk(lo.Map(records, func(r record, _ int) []string {
		return []string{
			r.SessionID,
			r.Class,
			r.Outcome,
			r.Reason,
			strconv.Itoa(len(r.Moves)),
			colorDelta(r.Delta),
			r.PlayedAt,
		}
	}))
	table.Render()
	return nil
}

func colorDelta(delta int) string {
	switch {
	case delta > 0:
		return color.Green.Sprintf("+%d", delta)
	case delta < 0:
		return color.Red.Sprintf("%d", delta)
	default:
		return "0"
	}
}

func fetch(client *http.Client, url string, out any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
