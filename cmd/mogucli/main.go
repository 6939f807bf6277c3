// mogucli es la CLI de operación del servicio de autenticación.
//
// Opera contra la base directamente (revocaciones, limpieza) o contra
// la API (ping). Pensada para runbooks, no para usuarios finales.
package main

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/moguapp/moguauth/internal/config"
	"github.com/moguapp/moguauth/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mogucli",
		Short:         "Operational CLI for the auth service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPingCmd())
	root.AddCommand(newRevokeUserCmd())
	root.AddCommand(newCleanupCmd())
	root.AddCommand(newSecretCmd())
	return root
}

func newPingCmd() *cobra.Command {
	var base string
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check service health over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client := &http.Client{Timeout: 5 * time.Second}
			resp, err := client.Get(base + "/readyz")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("service not ready: status %d", resp.StatusCode)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
	cmd.Flags().StringVar(&base, "url", "http://localhost:8080", "service base URL")
	return cmd
}

func newRevokeUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-user <user-id>",
		Short: "Revoke every refresh token of a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.Tokens.RevokeAllByUser(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d tokens\n", n)
			return nil
		},
	}
}

func newCleanupCmd() *cobra.Command {
	var retain time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete refresh tokens expired beyond the retention window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			n, err := st.Tokens.DeleteExpired(cmd.Context(), time.Now(), retain)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d tokens\n", n)
			return nil
		},
	}
	cmd.Flags().DurationVar(&retain, "retain", 14*24*time.Hour, "retention window for expired tokens")
	return cmd
}

func newSecretCmd() *cobra.Command {
	var nBytes int
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a random JWT signing secret",
		RunE: func(cmd *cobra.Command, _ []string) error {
			buf := make([]byte, nBytes)
			if _, err := rand.Read(buf); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), base64.RawURLEncoding.EncodeToString(buf))
			return nil
		},
	}
	cmd.Flags().IntVar(&nBytes, "bytes", 48, "secret size in bytes")
	return cmd
}

func openStore(ctx context.Context) (*store.Store, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("MOGUAUTH_CONFIG"))
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Storage)
}
