package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"cadastre-backend-go/internal/identity"
)

var claimsCmd = &cobra.Command{
	Use:   "claims",
	Short: "Manage identity custom claims",
}

var claimsSetCmd = &cobra.Command{
	Use:   "set <uid> <admin|superAdmin> <true|false>",
	Short: "Set one custom claim on an identity",
	Long: `Set one custom claim on an identity. Other claims already on the
identity are kept. The user has to sign in again for the claim to reach
their ID token.`,
	Args: cobra.ExactArgs(3),
	RunE: runClaimsSet,
}

func init() {
	claimsCmd.AddCommand(claimsSetCmd)
}

// parseClaimArgs validates the positional arguments of claims set.
func parseClaimArgs(args []string) (uid, claim string, value bool, err error) {
	uid, claim = args[0], args[1]
	if uid == "" {
		return "", "", false, fmt.Errorf("uid cannot be empty")
	}
	if claim != identity.ClaimAdmin && claim != identity.ClaimSuperAdmin {
		return "", "", false, fmt.Errorf("%w: %q", identity.ErrUnknownClaim, claim)
	}
	value, err = strconv.ParseBool(args[2])
	if err != nil {
		return "", "", false, fmt.Errorf("value must be true or false: %w", err)
	}
	return uid, claim, value, nil
}

func runClaimsSet(cmd *cobra.Command, args []string) error {
	uid, claim, value, err := parseClaimArgs(args)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	claims, err := identity.NewFirebaseDirectory(app.auth).SetClaim(ctx, uid, claim, value)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "UID %s: %s = %t (claims: %v)\n", uid, claim, value, claims)
	return nil
}
