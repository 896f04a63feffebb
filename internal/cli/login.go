package cli

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a session token for the configured server",
	Long: `Store a session token in ~/.parley.yaml.

The token is read from stdin without echo. The user id and username are
taken from the token's claims so other commands can fill them in.

Examples:
  parley login
  parley login --endpoint http://chat.example.com/query`,
	RunE: runLogin,
}

func runLogin(cmd *cobra.Command, args []string) error {
	fmt.Print("Session token: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read token: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return fmt.Errorf("empty token")
	}

	userID, username, err := tokenIdentity(token)
	if err != nil {
		return fmt.Errorf("inspect token: %w", err)
	}

	clientCfg.Token = token
	clientCfg.UserID = userID
	clientCfg.Username = username
	if err := saveClientConfig(); err != nil {
		return err
	}

	if username != "" {
		fmt.Printf("Logged in as %s (%s)\n", username, userID)
	} else {
		fmt.Printf("Logged in as %s (no username yet, run 'parley username set')\n", userID)
	}
	return nil
}

// tokenIdentity extracts the user id and username from a JWT without
// verifying the signature. Verification is the server's job, the CLI only
// needs the claims to fill in request arguments.
func tokenIdentity(token string) (userID, username string, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", "", fmt.Errorf("not a JWT")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", fmt.Errorf("decode claims: %w", err)
	}

	var claims struct {
		Subject  string `json:"sub"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", "", fmt.Errorf("parse claims: %w", err)
	}
	if claims.Subject == "" {
		return "", "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, claims.Username, nil
}
