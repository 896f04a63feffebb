// Package cli provides the command-line interface for parley.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/parley-chat/parley-go/internal/client"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose      bool
	flagEndpoint string
	flagToken    string

	// Loaded from ~/.parley.yaml, overridable by flags.
	clientCfg clientConfig

	gqlClient *client.Client
)

// clientConfig is the on-disk CLI configuration.
type clientConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
	UserID   string `yaml:"user_id"`
	Username string `yaml:"username"`
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "parley",
	Short: "Chat from the terminal",
	Long: `Parley is a command-line client for the parley chat server.

Log in once with a session token, then list conversations, send
messages, and watch for new ones in real time.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		if err := loadClientConfig(); err != nil {
			return err
		}
		if flagEndpoint != "" {
			clientCfg.Endpoint = flagEndpoint
		}
		if flagToken != "" {
			clientCfg.Token = flagToken
		}
		if clientCfg.Endpoint == "" {
			clientCfg.Endpoint = "http://localhost:8484/query"
		}

		gqlClient = client.New(clientCfg.Endpoint, clientCfg.Token)
		return nil
	},
}

func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".parley.yaml"), nil
}

func loadClientConfig() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &clientCfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func saveClientConfig() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	raw, err := yaml.Marshal(clientCfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// requireLogin returns an error if no session token is configured.
func requireLogin() error {
	if clientCfg.Token == "" {
		return fmt.Errorf("not logged in, run 'parley login' first")
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "server endpoint (default from ~/.parley.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagToken, "token", "", "session token (default from ~/.parley.yaml)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(chatsCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(usernameCmd)
	rootCmd.AddCommand(statsCmd)
}
