package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	synchub "zweigbib/internal/sync"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Ask a running API server to reload its dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := &http.Client{Timeout: 60 * time.Second}
		req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost, strings.TrimRight(serverURL, "/")+"/api/reload", nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode != http.StatusOK {
			var apiErr struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
				return fmt.Errorf("reload failed (%d): %s", resp.StatusCode, apiErr.Error)
			}
			return fmt.Errorf("reload failed: HTTP %d", resp.StatusCode)
		}
		_, err = cmd.OutOrStdout().Write(body)
		fmt.Fprintln(cmd.OutOrStdout())
		return err
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print load events from a running API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		wsURL, err := websocketURL(serverURL)
		if err != nil {
			return err
		}
		ws, _, err := websocket.DefaultDialer.DialContext(cmd.Context(), wsURL, nil)
		if err != nil {
			return fmt.Errorf("connect %s: %w", wsURL, err)
		}
		defer ws.Close()

		go func() {
			<-cmd.Context().Done()
			_ = ws.Close()
		}()

		out := cmd.OutOrStdout()
		for {
			_, msg, err := ws.ReadMessage()
			if err != nil {
				if cmd.Context().Err() != nil {
					return nil
				}
				return err
			}
			var ev synchub.LoadEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				fmt.Fprint(out, string(msg))
				continue
			}
			fmt.Fprintf(out, "%s %s\n", time.Now().Format(time.TimeOnly), ev.Line())
		}
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd, watchCmd)
}

// websocketURL turns the API base URL into the /ws endpoint.
func websocketURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}
