package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tgberrios/datasync/internal/source/mysqlsrc"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage datasync configuration",
}

var configInitCmd = &cobra.Command{
	Use:          "init",
	Short:        "Create config file interactively",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		configDir := filepath.Join(home, ".datasync")
		configPath := filepath.Join(configDir, "config.yaml")

		reader := bufio.NewReader(cmd.InOrStdin())

		if _, err := os.Stat(configPath); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Config file already exists at %s\n", configPath)
			fmt.Fprint(cmd.OutOrStdout(), "Overwrite? [y/N]: ")
			answer, _ := reader.ReadString('\n')
			if strings.TrimSpace(strings.ToLower(answer)) != "y" {
				fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
				return nil
			}
		}

		if err := os.MkdirAll(configDir, 0700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), "datasync configuration setup")
		fmt.Fprintln(cmd.OutOrStdout(), "────────────────────────────")
		fmt.Fprintln(cmd.OutOrStdout())

		name := prompt(cmd, reader, "Connection name [source]: ", "source")
		engine := prompt(cmd, reader, "Engine (mysql, postgres, ...) [mysql]: ", "mysql")
		host := prompt(cmd, reader, "Host [127.0.0.1]: ", "127.0.0.1")
		portStr := prompt(cmd, reader, "Port [3306]: ", "3306")
		user := prompt(cmd, reader, "User [datasync]: ", "datasync")
		database := prompt(cmd, reader, "Database (optional): ", "")
		format := prompt(cmd, reader, "Default output format [text]: ", "text")

		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", portStr, err)
		}

		var config strings.Builder
		config.WriteString("# datasync configuration\n\n")
		config.WriteString("connections:\n")
		config.WriteString(fmt.Sprintf("  - name: %s\n", name))
		config.WriteString(fmt.Sprintf("    engine: %s\n", engine))
		config.WriteString(fmt.Sprintf("    host: %s\n", host))
		config.WriteString(fmt.Sprintf("    port: %d\n", port))
		config.WriteString(fmt.Sprintf("    user: %s\n", user))
		config.WriteString("    password_env: DATASYNC_SOURCE_PASSWORD\n")
		if database != "" {
			config.WriteString(fmt.Sprintf("    database: %s\n", database))
		}

		config.WriteString("\nworker:\n")
		config.WriteString("  pool_size: 4\n")
		config.WriteString("  chunk_size: 5000\n")

		config.WriteString(fmt.Sprintf("\nformat: %s\n", format))

		if err := os.WriteFile(configPath, []byte(config.String()), 0600); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n✓ Config written to %s\n", configPath)
		fmt.Fprintln(cmd.OutOrStdout(), "\nSet the connection's password via the env var named in password_env,")
		fmt.Fprintln(cmd.OutOrStdout(), "never inline in the config file.")

		if strings.EqualFold(prompt(cmd, reader, "Test this connection now? [y/N]: ", "n"), "y") {
			if err := testConnectionInteractive(cmd, engine, host, port, user, database); err != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\nConnection test failed: %v\n", err)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "\nConnection test succeeded.")
			}
		}

		if user != "root" {
			fmt.Fprintln(cmd.OutOrStdout(), "\nRecommended: create a read-only user for datasync:")
			fmt.Fprintln(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "  CREATE USER '%s'@'%%' IDENTIFIED BY '<password>';\n", user)
			fmt.Fprintf(cmd.OutOrStdout(), "  GRANT SELECT ON *.* TO '%s'@'%%';\n", user)
			fmt.Fprintf(cmd.OutOrStdout(), "  GRANT REPLICATION CLIENT ON *.* TO '%s'@'%%';\n", user)
			fmt.Fprintln(cmd.OutOrStdout())
		}

		return nil
	},
}

// testConnectionInteractive reads a password from the terminal without
// echoing it (mirroring the teacher's PromptPassword), opens the
// connection with it, and runs one cheap call to confirm it actually
// works. The password is used only for this one-off check; it is never
// written to config.yaml, which always resolves credentials through
// password_env/password_file instead.
func testConnectionInteractive(cmd *cobra.Command, engine, host string, port int, user, database string) error {
	if engine != "mysql" && engine != "mariadb" {
		return fmt.Errorf("connection test only supports mysql/mariadb currently, got %q", engine)
	}

	fmt.Fprint(cmd.OutOrStdout(), "Password (used once, not stored): ")
	passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	ctx := cmd.Context()
	eng, err := mysqlsrc.Open(ctx, mysqlsrc.ConnectionConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: string(passwordBytes),
		Database: database,
	})
	if err != nil {
		return err
	}
	defer eng.Close()

	_, err = eng.DiscoverTables(ctx)
	return err
}

func prompt(cmd *cobra.Command, reader *bufio.Reader, label, def string) string {
	fmt.Fprint(cmd.OutOrStdout(), label)
	answer, _ := reader.ReadString('\n')
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return def
	}
	return answer
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, ok := resolvedConfigPath()
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "No config file found.")
			fmt.Fprintln(cmd.OutOrStdout(), "Run 'datasync config init' to create one.")
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n\n", path)

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

// resolvedConfigPath mirrors config.Load's file-resolution order
// (explicit --config, else $HOME/.datasync/config.yaml) without
// duplicating its viper parsing, just to report which file "show" reads.
func resolvedConfigPath() (string, bool) {
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			return cfgFile, true
		}
		return "", false
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	path := filepath.Join(home, ".datasync", "config.yaml")
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
