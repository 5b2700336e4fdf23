package cmd

import (
	"fmt"
	"os"

	"github.com/howeyc/gopass"
	"github.com/justenwalker/realmfetch/auth"
	"github.com/spf13/cobra"
)

var (
	authRealm    string
	authUsername string
	authDelete   bool
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Stores credentials for a realm in the keyring",
	Long: `Stores credentials for a realm in the keyring.
Stored credentials answer challenges for the realm without prompting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if authRealm == "" {
			return fmt.Errorf("realm missing")
		}
		if authDelete {
			return auth.DeleteKeyring(settings.Service, authRealm)
		}
		if authUsername == "" {
			return fmt.Errorf("user name missing")
		}
		password, err := promptPassword(authUsername)
		if err != nil {
			return err
		}
		if err := auth.StoreKeyring(settings.Service, authRealm, auth.Credentials{Username: authUsername, Password: string(password)}); err != nil {
			return err
		}
		logger.Info().Str("realm", authRealm).Str("user", authUsername).Msg("credentials stored")
		return nil
	},
}

func defaultUser() string {
	return os.Getenv("USER")
}

func init() {
	RootCmd.AddCommand(authCmd)
	authCmd.Flags().StringVarP(&authRealm, "realm", "r", "", "realm announced by the server or proxy")
	authCmd.Flags().StringVarP(&authUsername, "user", "u", defaultUser(), "user name for the realm")
	authCmd.Flags().BoolVarP(&authDelete, "delete", "d", false, "remove the stored credentials")
}

func promptPassword(username string) ([]byte, error) {
	return gopass.GetPasswdPrompt(fmt.Sprintf("[%s] Password: ", username), true, os.Stdin, os.Stdout)
}
