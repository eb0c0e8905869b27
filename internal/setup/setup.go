package setup

import (
	"net/http"

	"github.com/rmcloud-dev/rmcloud/internal/config"
	"github.com/rmcloud-dev/rmcloud/internal/handler"
	"github.com/rmcloud-dev/rmcloud/internal/router"
	"github.com/rmcloud-dev/rmcloud/internal/service"
	"github.com/rmcloud-dev/rmcloud/internal/storage/localfs"
	"github.com/rmcloud-dev/rmcloud/internal/token"
)

// Stores holds the two file-backed stores. The server and the admin CLI
// each build their own instances against the same data directory; the two
// processes do not share in-memory state.
type Stores struct {
	Users *localfs.UserStore
	Codes *localfs.CodeStore
}

func NewStores(cfg *config.Config) (*Stores, error) {
	users, err := localfs.NewUserStore(cfg.API.DataDir)
	if err != nil {
		return nil, err
	}
	codes, err := localfs.NewCodeStore(cfg.API.DataDir)
	if err != nil {
		return nil, err
	}
	return &Stores{Users: users, Codes: codes}, nil
}

// Dependencies holds everything the server process needs.
type Dependencies struct {
	Stores *Stores
	Router http.Handler
}

// New wires the full server dependency graph from the config.
func New(cfg *config.Config) (*Dependencies, error) {
	stores, err := NewStores(cfg)
	if err != nil {
		return nil, err
	}

	tokens := token.New(cfg.API.SecretKey)
	auth := service.NewAuth(stores.Users, stores.Codes, tokens)
	h := handler.New(auth, cfg)

	return &Dependencies{
		Stores: stores,
		Router: router.New(h),
	}, nil
}
