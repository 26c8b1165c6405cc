package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/imamik/siteforge/cmd/siteforge/handlers"
)

// Contact returns the contact command group. Only registrars with a contact
// store (dnsimple) support it.
func Contact(g *handlers.Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Manage registrant contacts stored at the registrar",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show a stored contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid contact id %q", args[0])
			}
			return handlers.ContactGet(cmd.Context(), *g, id)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <file.json>",
		Short: "Validate a contact file and store it",
		Long: `Validate a registrant contact file and store it at the registrar.

The file uses this layout:

  {
    "nameFirst": "Jane",
    "nameLast": "Doe",
    "email": "jane@example.com",
    "phone": "+1.5551234567",
    "addressMailing": {
      "address1": "1 Main St",
      "city": "Springfield",
      "state": "IL",
      "postalCode": "62701",
      "country": "US"
    }
  }`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return handlers.ContactCreate(cmd.Context(), *g, args[0])
		},
	})

	return cmd
}
