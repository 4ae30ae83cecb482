package cli

import (
	"github.com/example/rachana-boutique/internal/auth"
	"github.com/example/rachana-boutique/internal/catalog"
	"github.com/example/rachana-boutique/internal/infrastructure/kafka"
	"github.com/example/rachana-boutique/internal/kvstore"
	"github.com/example/rachana-boutique/internal/localcart"
	"github.com/example/rachana-boutique/internal/notify"
	"github.com/example/rachana-boutique/internal/remotecart"
	"github.com/example/rachana-boutique/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
)

// cliScope names the notification scope of the local cart file
const cliScope = "cartctl"

// workspace is the local state one command works on
type workspace struct {
	kv       *kvstore.SQLite
	catalog  catalog.Map
	cart     *localcart.Store
	hub      *notify.Hub
	producer *kafka.Producer
}

// openWorkspace opens the cart file. The catalog is loaded only when
// withCatalog is set, so read-only commands work without one.
func openWorkspace(opts *RootOptions, withCatalog bool) (*workspace, error) {
	kv, err := kvstore.OpenSQLite(opts.DBPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open cart database", err)
	}
	ws := &workspace{kv: kv, hub: notify.NewHub()}

	if withCatalog {
		ws.catalog, err = catalog.LoadFile(opts.CatalogPath)
		if err != nil {
			kv.Close()
			return nil, WrapExitError(ExitCommandError, "failed to load catalog", err)
		}
	}

	if len(opts.KafkaBrokers) > 0 {
		ws.producer = kafka.NewProducer(opts.KafkaBrokers, opts.CartTopic)
		ws.hub.AddTap(notify.KafkaTap(ws.producer))
	}
	ws.cart = localcart.New(kv, ws.hub.Scope(cliScope))
	return ws, nil
}

func (w *workspace) Close() error {
	if w.producer != nil {
		w.producer.Close()
	}
	return w.kv.Close()
}

func (w *workspace) coordinator() *session.Coordinator {
	return session.NewCoordinator(w.kv, w.cart)
}

func (w *workspace) formatter(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
}

func remoteClient(opts *RootOptions) *remotecart.Client {
	return remotecart.NewClient(opts.APIURL, opts.Token, nil)
}

// userFromToken reads the user id out of the access token without
// verifying it; the API verifies every request.
func userFromToken(token string) string {
	if token == "" {
		return ""
	}
	var claims auth.Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return ""
	}
	return claims.UserID
}
