// Command oauth-init walks through the Google OAuth consent flow once and
// stores the resulting token where the report worker expects it
// (GOOGLE_OAUTH_TOKEN_FILE, default token.json).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/config"
	"bilancio/internal/log"
)

func main() {
	_ = godotenv.Load()
	logger := log.New(log.DefaultConfig())

	cfg := config.Load()

	clientJSON, err := readClientCredentials(cfg)
	if err != nil {
		logger.Error("Failed to read OAuth client credentials", log.FieldError, err.Error())
		os.Exit(1)
	}

	oauthCfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		logger.Error("Failed to parse OAuth client credentials", log.FieldError, err.Error())
		os.Exit(1)
	}

	// The OAuth client must list this redirect URI as authorized.
	redirectPort := os.Getenv("OAUTH_REDIRECT_PORT")
	if redirectPort == "" {
		redirectPort = "8085"
	}
	oauthCfg.RedirectURL = "http://localhost:" + redirectPort + "/callback"

	codeCh := make(chan string, 1)
	srv := &http.Server{Addr: ":" + redirectPort, ReadHeaderTimeout: 10 * time.Second}
	http.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		fmt.Fprintln(w, "Authorized. You can close this window.")
		codeCh <- r.URL.Query().Get("code")
		go func() { time.Sleep(500 * time.Millisecond); _ = srv.Close() }()
	})
	go func() { _ = srv.ListenAndServe() }()

	fmt.Printf("Open this URL to authorize:\n%s\n",
		oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline))

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	select {
	case code := <-codeCh:
		token, err := oauthCfg.Exchange(context.Background(), code)
		if err != nil {
			logger.Error("Token exchange failed", log.FieldError, err.Error())
			os.Exit(1)
		}
		if err := saveToken(cfg, token); err != nil {
			logger.Error("Failed to save token", log.FieldError, err.Error())
			os.Exit(1)
		}
	case <-time.After(5 * time.Minute):
		logger.Error("Authorization timed out")
		os.Exit(1)
	case <-interrupt:
		logger.Error("Interrupted")
		os.Exit(1)
	}
}

func readClientCredentials(cfg *config.Config) ([]byte, error) {
	if cfg.GoogleOAuthClientJSON != "" {
		return []byte(cfg.GoogleOAuthClientJSON), nil
	}
	if cfg.GoogleOAuthClientFile != "" {
		return os.ReadFile(cfg.GoogleOAuthClientFile)
	}
	return nil, fmt.Errorf("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
}

func saveToken(cfg *config.Config, token *oauth2.Token) error {
	path := cfg.GoogleOAuthTokenFile
	if path == "" {
		path = "token.json"
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	fmt.Printf("Saved token to %s\n", path)
	return nil
}
