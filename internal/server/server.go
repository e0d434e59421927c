package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ghostwire/ghostbot/internal/utils"
	"github.com/ghostwire/ghostbot/pkg/bungie"
	"github.com/ghostwire/ghostbot/pkg/destiny"
	"github.com/ghostwire/ghostbot/pkg/items"
	"github.com/ghostwire/ghostbot/pkg/storage"
)

// Store is the read side of the clip database.
type Store interface {
	GetStats(ctx context.Context) (storage.Stats, error)
	ListMembers(ctx context.Context, linkedOnly bool) ([]storage.Member, error)
	ListClipMatches(ctx context.Context, opts storage.ListOptions) ([]storage.ClipMatch, error)
}

// Game answers player and item lookups. *bungie.Client satisfies it.
type Game interface {
	SearchPlayer(ctx context.Context, name, platform string) ([]bungie.Player, error)
	ActiveCharacterWithEquipment(ctx context.Context, mt destiny.MembershipType, membershipID string) (*bungie.Character, error)
	ItemDetails(ctx context.Context, mt destiny.MembershipType, membershipID, instanceID string) (*items.DisplayItem, error)
}

type Server struct {
	DB       Store
	Game     Game
	Username string
	Password string
}

// New returns a server. game may be nil, in which case the player
// endpoints answer 503.
func New(db Store, game Game, user, pass string) *Server {
	return &Server{
		DB:       db,
		Game:     game,
		Username: user,
		Password: pass,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/members", s.basicAuth(s.handleMembers))
	mux.HandleFunc("GET /api/clips", s.basicAuth(s.handleClips))
	mux.HandleFunc("GET /api/players/{name}", s.basicAuth(s.handlePlayers))
	mux.HandleFunc("GET /api/players/{name}/items/{slot}", s.basicAuth(s.handleItem))

	return mux
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
