package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/me/tourtrack/internal/router"
)

var (
	errNotLoggedIn   = errors.New("not logged in: run 'tourtrack login' first")
	errAdminRequired = errors.New("this command requires an administrator account")
)

// enter navigates to the view backing a command. It fails when the guard
// sends the user elsewhere.
func enter(cmd *cobra.Command, path string) (router.Match, error) {
	m, err := application.Navigate(cmd.Context(), path)
	if err != nil {
		return m, err
	}
	want, _ := application.Routes.Resolve(path)
	if m.Route.Name == want.Route.Name {
		return m, nil
	}
	if m.Path == router.LoginPath {
		return m, errNotLoggedIn
	}
	if want.Route.RequiresAdmin {
		return m, errAdminRequired
	}
	return m, nil
}
