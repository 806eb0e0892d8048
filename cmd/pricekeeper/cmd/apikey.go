package cmd

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/pricekeeper/internal/core/auth"
	"github.com/solatis/pricekeeper/internal/core/config"
	"github.com/solatis/pricekeeper/internal/core/db"
)

var apikeyCmd = &cobra.Command{
	Use:   "apikey",
	Short: "Manage tenant API keys",
}

var apikeyCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Issue a new API key for a tenant",
	Long: `Issue a new API key signed with one of the configured HMAC secrets.
The key is printed once; only its HMAC hash is stored.`,
	RunE: runAPIKeyCreate,
}

var apikeyRevokeCmd = &cobra.Command{
	Use:   "revoke <api-key-id>",
	Short: "Revoke an API key",
	Args:  cobra.ExactArgs(1),
	RunE:  runAPIKeyRevoke,
}

func init() {
	apikeyCreateCmd.Flags().String("tenant", "", "tenant (gym business) the key belongs to")
	apikeyCreateCmd.Flags().String("name", "", "human-readable key name")
	apikeyCreateCmd.Flags().String("secret-id", "", "HMAC secret id to sign with (required when several are configured)")
	apikeyCreateCmd.MarkFlagRequired("tenant")

	apikeyCmd.AddCommand(apikeyCreateCmd, apikeyRevokeCmd)
	rootCmd.AddCommand(apikeyCmd)
}

func runAPIKeyCreate(cmd *cobra.Command, args []string) error {
	tenantID, _ := cmd.Flags().GetString("tenant")
	name, _ := cmd.Flags().GetString("name")
	secretID, _ := cmd.Flags().GetString("secret-id")

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	secrets, err := config.HMACSecrets()
	if err != nil {
		return fmt.Errorf("failed to load HMAC secrets: %w", err)
	}
	secretID, err = pickSecret(secrets, secretID)
	if err != nil {
		return err
	}

	database, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()
	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	key, err := auth.GenerateAPIKey(secretID)
	if err != nil {
		return err
	}
	apiKeyID := uuid.Must(uuid.NewV7()).String()
	if err := db.NewAPIKeyStore(queries).Insert(cmd.Context(), apiKeyID, tenantID, name, auth.ComputeHMAC(secrets[secretID], key)); err != nil {
		return err
	}

	logger.Info("api key created", zap.String("api_key_id", apiKeyID), zap.String("tenant_id", tenantID))
	fmt.Fprintf(cmd.OutOrStdout(), "api_key_id: %s\napi_key:    %s\n", apiKeyID, key)
	return nil
}

// pickSecret resolves the signing secret. With a single configured secret
// the flag may be omitted.
func pickSecret(secrets map[string][]byte, secretID string) (string, error) {
	if len(secrets) == 0 {
		return "", fmt.Errorf("no HMAC secrets configured (set PK_HMAC_SECRET environment variable)")
	}
	if secretID != "" {
		if _, ok := secrets[secretID]; !ok {
			return "", fmt.Errorf("unknown secret id %s", secretID)
		}
		return secretID, nil
	}
	if len(secrets) > 1 {
		ids := make([]string, 0, len(secrets))
		for id := range secrets {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		return "", fmt.Errorf("several HMAC secrets configured, pass --secret-id (one of %v)", ids)
	}
	for id := range secrets {
		secretID = id
	}
	return secretID, nil
}

func runAPIKeyRevoke(cmd *cobra.Command, args []string) error {
	database, err := openDatabase(cmd.Context())
	if err != nil {
		return err
	}
	defer database.Close()
	queries, err := db.LoadQueries(database)
	if err != nil {
		return fmt.Errorf("failed to load queries: %w", err)
	}

	if err := db.NewAPIKeyStore(queries).Revoke(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "revoked %s\n", args[0])
	return nil
}
