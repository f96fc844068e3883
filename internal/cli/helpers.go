package cli

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/tweetsync/internal/config"
	"github.com/mesh-intelligence/tweetsync/internal/sqlite"
	"github.com/mesh-intelligence/tweetsync/internal/twitter"
	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

// openStore attaches the SQLite store in the resolved data directory.
func (a *app) openStore() (*sqlite.Store, error) {
	store := sqlite.NewStore()
	err := store.Attach(types.Config{
		Backend: types.BackendSQLite,
		DataDir: a.dataDir,
	})
	if err != nil {
		return nil, sysError(fmt.Errorf("open store: %w", err))
	}
	return store, nil
}

// twitterClient builds the timeline source from the twitter.* settings.
func (a *app) twitterClient(ctx context.Context) (*twitter.Client, error) {
	client, err := twitter.New(ctx, a.config.Get(config.KeyTwitterAPIBase), twitter.Credentials{
		AppKey:           a.config.Get(config.KeyTwitterAppKey),
		AppSecret:        a.config.Get(config.KeyTwitterAppSecret),
		OAuthToken:       a.config.Get(config.KeyTwitterOAuthToken),
		OAuthTokenSecret: a.config.Get(config.KeyTwitterOAuthTokenSecret),
	})
	if err != nil {
		return nil, userError(err)
	}
	return client, nil
}

// username returns twitter.username or a user error.
func (a *app) username() (string, error) {
	name := a.config.Get(config.KeyTwitterUsername)
	if name == "" {
		return "", userError(fmt.Errorf("twitter.username is not set; run: tweetsync config set twitter.username <name>"))
	}
	return name, nil
}
